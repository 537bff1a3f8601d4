// Package shardmap resolves store identifiers to the region that owns their
// data. The mapping is built once from the validated shard layout and is
// immutable afterwards, so resolution is a pure, deterministic function.
//
// Unknown store ids fail explicitly with shard.ErrUnknownStore. A silent
// fallback to some default region would route a customer's sale into the
// wrong shard, which is unrecoverable after commit.
package shardmap

import (
	"fmt"

	"github.com/dmarkou/go-sales-backend/internal/config"
	"github.com/dmarkou/go-sales-backend/internal/shard"
)

type span struct {
	from, to int
	region   shard.Region
}

// Map is the static store → region assignment.
type Map struct {
	spans   []span
	regions []shard.Region // configured order, no duplicates
}

// New builds a Map from the shard layout. The layout is assumed validated
// (config.ValidateShards rejects overlapping or inverted ranges).
func New(sc config.ShardsConfig) *Map {
	m := &Map{}
	for _, rc := range sc.Regions {
		m.spans = append(m.spans, span{from: rc.StoreFrom, to: rc.StoreTo, region: shard.Region(rc.Name)})
		m.regions = append(m.regions, shard.Region(rc.Name))
	}
	return m
}

// Resolve returns the owning region for a store id, or ErrUnknownStore for
// ids outside every configured range. Same input, same region, every call.
func (m *Map) Resolve(storeID int) (shard.Region, error) {
	for _, s := range m.spans {
		if storeID >= s.from && storeID <= s.to {
			return s.region, nil
		}
	}
	return "", fmt.Errorf("store %d: %w", storeID, shard.ErrUnknownStore)
}

// Group buckets store ids by owning region, deduplicating ids while keeping
// their first-seen order within each bucket. One unknown store fails the
// whole call: a report that silently dropped a requested store would be
// indistinguishable from that store having no sales.
func (m *Map) Group(storeIDs []int) (map[shard.Region][]int, error) {
	out := make(map[shard.Region][]int)
	seen := make(map[int]bool, len(storeIDs))
	for _, id := range storeIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		region, err := m.Resolve(id)
		if err != nil {
			return nil, err
		}
		out[region] = append(out[region], id)
	}
	return out, nil
}

// Regions lists every configured region in layout order.
func (m *Map) Regions() []shard.Region {
	out := make([]shard.Region, len(m.regions))
	copy(out, m.regions)
	return out
}
