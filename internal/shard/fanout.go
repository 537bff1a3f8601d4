// Package shard – multi-region fan-out.
//
// FanOut issues the same statement against a set of regions concurrently
// and joins the results: one goroutine per region, each branch converting
// failure into a value. Isolation is the defining property — a region that
// is down, slow, or tripping its breaker contributes an error entry and
// nothing else; sibling regions are never cancelled or corrupted.
//
// Each region gets its own circuit breaker so a shard that has been failing
// repeatedly is skipped fast instead of burning a pool-acquisition timeout
// on every report while it is down.
package shard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Outcome is one region's result-or-error from a fan-out, plus the round
// trip latency (also populated on failure, where it reflects time to error).
type Outcome struct {
	Rows    []Row
	Err     error
	Elapsed time.Duration
}

// breakerFor returns (creating on first use) the circuit breaker guarding
// fan-out traffic to one region. Settings are deliberately forgiving: five
// consecutive failures open the breaker, and it probes again after 30s.
func (e *Executor) breakerFor(region Region) *gobreaker.CircuitBreaker[[]Row] {
	e.breakerMu.Lock()
	defer e.breakerMu.Unlock()

	if e.breakers == nil {
		e.breakers = make(map[Region]*gobreaker.CircuitBreaker[[]Row])
	}
	if cb, ok := e.breakers[region]; ok {
		return cb
	}
	cb := gobreaker.NewCircuitBreaker[[]Row](gobreaker.Settings{
		Name:        "shard-" + string(region),
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	e.breakers[region] = cb
	return cb
}

// RegionQuery is one region's statement in a heterogeneous fan-out, where
// each region runs the same logical query with different parameters (e.g.
// its own store id list).
type RegionQuery struct {
	Role Role
	SQL  string
	Args []any
}

// FanOut runs one statement against every listed region concurrently and
// returns a per-region Outcome. It never returns an error itself: failures
// are data. Results are merged commutatively by callers, so no cross-region
// ordering is guaranteed.
func (e *Executor) FanOut(ctx context.Context, regions []Region, role Role, query string, args ...any) map[Region]Outcome {
	queries := make(map[Region]RegionQuery, len(regions))
	for _, region := range regions {
		queries[region] = RegionQuery{Role: role, SQL: query, Args: args}
	}
	return e.FanOutEach(ctx, queries)
}

// FanOutEach is the general fan-out: one goroutine per region, each running
// that region's own statement, joined before returning. A region's failure
// is captured in its Outcome and never cancels or corrupts the others.
func (e *Executor) FanOutEach(ctx context.Context, queries map[Region]RegionQuery) map[Region]Outcome {
	out := make(map[Region]Outcome, len(queries))

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for region, q := range queries {
		wg.Add(1)
		go func(region Region, q RegionQuery) {
			defer wg.Done()

			start := time.Now()
			rows, err := e.breakerFor(region).Execute(func() ([]Row, error) {
				return e.Query(ctx, region, q.Role, q.SQL, q.Args...)
			})
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				err = Unavailable(region, err)
			}
			if err != nil {
				fanoutFailures.WithLabelValues(string(region)).Inc()
			}

			mu.Lock()
			out[region] = Outcome{Rows: rows, Err: err, Elapsed: time.Since(start)}
			mu.Unlock()
		}(region, q)
	}
	wg.Wait()

	return out
}
