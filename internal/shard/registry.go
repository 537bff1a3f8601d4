// Package shard – pool registry.
//
// The registry owns one {primary, replica} pair of GORM handles per region.
// Every pair is opened exactly once at startup and reused by all requests
// for the process lifetime; Get is a pure table lookup and never opens a
// pool lazily. Shutdown closes every pool and is idempotent; acquisitions
// attempted after shutdown fail with ErrRegistryClosed.
package shard

import (
	"sort"
	"sync"

	"gorm.io/gorm"

	"github.com/dmarkou/go-sales-backend/internal/config"
)

// Region identifies one geographic shard (e.g. "north").
type Region string

// Role selects the writable primary or the read-only replica of a region.
type Role string

const (
	// RolePrimary is the writable member of a shard.
	RolePrimary Role = "primary"
	// RoleReplica is the read-only member used to offload read traffic.
	RoleReplica Role = "replica"
)

// Opener opens a database handle for one (region, role) target. It is
// satisfied by repo.Open and injectable in tests.
type Opener func(driver string, rc config.DBRoleConfig) (*gorm.DB, error)

// Registry is the process-wide table of live connection pools.
// It is safe for concurrent use by any number of requests.
type Registry struct {
	mu     sync.RWMutex
	pools  map[Region]map[Role]*gorm.DB
	closed bool
}

// NewRegistry builds one pool per (region, role) from the validated shard
// layout. If any pool fails to open, every pool opened so far is closed and
// the whole construction fails: a partially wired registry must never serve
// traffic.
func NewRegistry(sc config.ShardsConfig, open Opener) (*Registry, error) {
	if err := config.ValidateShards(sc); err != nil {
		return nil, err
	}

	r := &Registry{pools: make(map[Region]map[Role]*gorm.DB, len(sc.Regions))}
	for _, rc := range sc.Regions {
		region := Region(rc.Name)
		pair := make(map[Role]*gorm.DB, 2)
		for role, target := range map[Role]config.DBRoleConfig{
			RolePrimary: rc.Primary,
			RoleReplica: rc.Replica,
		} {
			db, err := open(sc.Driver, target)
			if err != nil {
				r.Shutdown()
				return nil, Unavailable(region, err)
			}
			pair[role] = db
		}
		r.pools[region] = pair
	}
	return r, nil
}

// Get returns the pool for (region, role). It fails with ErrUnknownRegion
// for regions absent from the startup layout and with ErrRegistryClosed
// once shutdown has begun.
func (r *Registry) Get(region Region, role Role) (*gorm.DB, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, ErrRegistryClosed
	}
	pair, ok := r.pools[region]
	if !ok {
		return nil, ErrUnknownRegion
	}
	db, ok := pair[role]
	if !ok {
		return nil, ErrUnknownRegion
	}
	return db, nil
}

// Regions lists every configured region in stable (sorted) order.
func (r *Registry) Regions() []Region {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Region, 0, len(r.pools))
	for region := range r.pools {
		out = append(out, region)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Shutdown closes every pool. It is idempotent: the first call flips the
// registry to closed and releases the underlying connections; subsequent
// calls are no-ops. In-flight operations holding a checked-out connection
// finish on their own; only new acquisitions are refused.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	pools := r.pools
	r.pools = map[Region]map[Role]*gorm.DB{}
	r.mu.Unlock()

	for _, pair := range pools {
		for _, db := range pair {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
	}
}

// Closed reports whether Shutdown has been called.
func (r *Registry) Closed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}
