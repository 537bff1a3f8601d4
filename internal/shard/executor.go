// Package shard – query and transaction executors.
//
// The executor is the single choke point through which every statement
// reaches a shard. It picks the pool via the registry, bounds connection
// acquisition with a timeout, and translates driver-level failures into the
// package error taxonomy. It never parses SQL: the caller decides whether a
// statement goes to the primary or a replica, and no retry happens here —
// retry policy belongs to callers.
package shard

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

// Row is one result row of a raw query, keyed by column name.
type Row map[string]any

// Statement is one step of a transactional sequence: a parameterized SQL
// statement plus an optional Check evaluated against the statement's result
// while the transaction is still open. A non-nil Check error aborts the
// sequence and rolls everything back.
type Statement struct {
	SQL   string
	Args  []any
	Check func(Result) error
}

// Result carries the outcome of one executed statement.
type Result struct {
	RowsAffected int64
}

// Executor runs statements against regions through the pool registry.
type Executor struct {
	registry       *Registry
	acquireTimeout time.Duration

	// Per-region circuit breakers for the fan-out path, created on first
	// use. Single-shard operations bypass them: the executor applies no
	// policy of its own there.
	breakerMu sync.Mutex
	breakers  map[Region]*gobreaker.CircuitBreaker[[]Row]
}

// NewExecutor wires an executor to a registry. acquireTimeout bounds how
// long any single operation may wait for a pooled connection; zero falls
// back to a conservative default.
func NewExecutor(registry *Registry, acquireTimeout time.Duration) *Executor {
	if acquireTimeout <= 0 {
		acquireTimeout = 5 * time.Second
	}
	return &Executor{registry: registry, acquireTimeout: acquireTimeout}
}

// Registry exposes the underlying registry (for region enumeration).
func (e *Executor) Registry() *Registry { return e.registry }

// Query executes one parameterized statement against the chosen (region,
// role) pool and returns the result rows. Replica reads are a caller
// choice; nothing here inspects the SQL text for write intent.
func (e *Executor) Query(ctx context.Context, region Region, role Role, query string, args ...any) ([]Row, error) {
	tr := otel.Tracer("shard/Executor")
	ctx, span := tr.Start(ctx, "Query",
		trace.WithAttributes(
			attribute.String("shard.region", string(region)),
			attribute.String("shard.role", string(role)),
		),
	)
	defer span.End()

	db, err := e.registry.Get(region, role)
	if err != nil {
		observeQuery(region, role, err, 0)
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.acquireTimeout)
	defer cancel()

	start := time.Now()
	var rows []map[string]any
	res := db.WithContext(ctx).Raw(query, args...).Scan(&rows)
	if res.Error != nil {
		err := Classify(region, res.Error)
		observeQuery(region, role, err, time.Since(start))
		return nil, err
	}
	observeQuery(region, role, nil, time.Since(start))

	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = Row(r)
	}
	return out, nil
}

// RunTransaction acquires one connection from the region's primary pool and
// executes the statements strictly in order inside a single transaction.
// The first failure (statement error or Check rejection) rolls everything
// back and surfaces as ErrTransactionAborted wrapping the cause. On success
// all intermediate results are returned in order.
//
// Connection release is guaranteed on every exit path — the closure-based
// transaction commits or rolls back (panics included) before returning the
// connection to the pool.
func (e *Executor) RunTransaction(ctx context.Context, region Region, stmts []Statement) ([]Result, error) {
	tr := otel.Tracer("shard/Executor")
	ctx, span := tr.Start(ctx, "RunTransaction",
		trace.WithAttributes(
			attribute.String("shard.region", string(region)),
			attribute.Int("shard.statements", len(stmts)),
		),
	)
	defer span.End()

	db, err := e.registry.Get(region, RolePrimary)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.acquireTimeout)
	defer cancel()

	start := time.Now()
	results := make([]Result, 0, len(stmts))
	txErr := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, st := range stmts {
			res := tx.Exec(st.SQL, st.Args...)
			if res.Error != nil {
				return Classify(region, res.Error)
			}
			r := Result{RowsAffected: res.RowsAffected}
			if st.Check != nil {
				if cerr := st.Check(r); cerr != nil {
					return cerr
				}
			}
			results = append(results, r)
		}
		return nil
	})
	if txErr != nil {
		err = Aborted(region, txErr)
		observeTransaction(region, err, time.Since(start))
		return nil, err
	}
	observeTransaction(region, nil, time.Since(start))
	return results, nil
}

// Classify translates a driver-level error into the shard taxonomy.
// Connectivity failures (network, timeouts, pool exhaustion, dead
// connections) become ErrShardUnavailable; anything the shard itself
// rejected (constraints, malformed SQL) becomes ErrQueryRejected. Errors
// already carrying a taxonomy sentinel pass through untouched.
func Classify(region Region, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrShardUnavailable),
		errors.Is(err, ErrQueryRejected),
		errors.Is(err, ErrRegistryClosed),
		errors.Is(err, ErrUnknownRegion):
		return err
	}

	if isConnectivity(err) {
		return Unavailable(region, err)
	}
	return Rejected(region, err)
}

// isConnectivity reports whether an error indicates the shard could not be
// reached at all, as opposed to answering with a rejection.
func isConnectivity(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"connection refused",
		"invalid connection",
		"bad connection",
		"broken pipe",
		"connection reset",
		"i/o timeout",
		"dial tcp",
		"database is closed",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
