// Package shard – Prometheus instrumentation for shard traffic.
package shard

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// shardQueries counts single statements by region, role, and outcome.
	shardQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shard_queries_total",
			Help: "Total number of statements executed against shards.",
		},
		[]string{"region", "role", "status"},
	)

	// shardQueryLat records statement duration in seconds by region and role.
	shardQueryLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shard_query_duration_seconds",
			Help:    "Duration of shard statements in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"region", "role"},
	)

	// shardTxns counts transactional sequences by region and outcome.
	shardTxns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shard_transactions_total",
			Help: "Total number of transactional sequences run against shard primaries.",
		},
		[]string{"region", "status"},
	)

	// shardTxnLat records full-sequence duration (begin to commit/rollback).
	shardTxnLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shard_transaction_duration_seconds",
			Help:    "Duration of shard transactions in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"region"},
	)

	// fanoutFailures counts per-region failures captured during fan-out.
	// These never fail the aggregate request, so a counter is the only
	// place they become visible operationally.
	fanoutFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shard_fanout_region_failures_total",
			Help: "Per-region failures captured (not propagated) during fan-out.",
		},
		[]string{"region"},
	)
)

func init() {
	prometheus.MustRegister(shardQueries, shardQueryLat, shardTxns, shardTxnLat, fanoutFailures)
}

// statusLabel folds an error into a low-cardinality outcome label.
func statusLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrShardUnavailable):
		return "unavailable"
	case errors.Is(err, ErrRegistryClosed):
		return "closed"
	case errors.Is(err, ErrUnknownRegion):
		return "unknown_region"
	default:
		return "rejected"
	}
}

func observeQuery(region Region, role Role, err error, elapsed time.Duration) {
	shardQueries.WithLabelValues(string(region), string(role), statusLabel(err)).Inc()
	if elapsed > 0 {
		shardQueryLat.WithLabelValues(string(region), string(role)).Observe(elapsed.Seconds())
	}
}

func observeTransaction(region Region, err error, elapsed time.Duration) {
	shardTxns.WithLabelValues(string(region), statusLabel(err)).Inc()
	shardTxnLat.WithLabelValues(string(region)).Observe(elapsed.Seconds())
}
