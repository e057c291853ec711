package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fellowship_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fellowship_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// CounterClamps counts decrements that would have driven a counter below zero.
	CounterClamps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fellowship_counter_clamps_total",
		Help: "Total number of counter decrements clamped at zero",
	}, []string{"counter"})

	// CounterAdjustments counts applied counter deltas by counter and direction.
	CounterAdjustments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fellowship_counter_adjustments_total",
		Help: "Total number of counter adjustments",
	}, []string{"counter", "direction"})

	// RestrictedDeletes counts owner deletes blocked by a RESTRICT relation.
	RestrictedDeletes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fellowship_restricted_deletes_total",
		Help: "Total number of deletes blocked by dependent rows",
	}, []string{"parent", "child"})

	// CascadeRowsDeleted counts rows removed by cascading owner deletes.
	CascadeRowsDeleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fellowship_cascade_rows_deleted_total",
		Help: "Total number of rows deleted by cascade",
	}, []string{"kind"})

	// CascadeRowsNullified counts foreign keys set to NULL by owner deletes.
	CascadeRowsNullified = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fellowship_cascade_rows_nullified_total",
		Help: "Total number of foreign keys nullified by owner deletes",
	}, []string{"kind"})

	// AggregateDrift counts stored aggregates a reconcile pass found out of step.
	AggregateDrift = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fellowship_aggregate_drift_total",
		Help: "Total number of aggregates repaired by reconcile",
	}, []string{"aggregate"})

	// XpPointsRecorded sums recorded XP by fruit.
	XpPointsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fellowship_xp_points_recorded_total",
		Help: "Total XP points recorded by fruit",
	}, []string{"fruit"})

	// XpRecomputeDuration records the duration of per-user totals recomputes.
	XpRecomputeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fellowship_xp_recompute_duration_seconds",
		Help:    "Duration of XP totals recompute per user",
		Buckets: prometheus.DefBuckets,
	})
)

// DatabaseMetrics records query latency for a repository.
type DatabaseMetrics struct{}

// NewDatabaseMetrics returns a new DatabaseMetrics instance.
func NewDatabaseMetrics() *DatabaseMetrics {
	return &DatabaseMetrics{}
}

// ObserveQuery records the latency of a database query.
func (m *DatabaseMetrics) ObserveQuery(operation, table string, start time.Time) {
	latency := time.Since(start).Seconds()
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(latency)
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func (m *DatabaseMetrics) TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		m.ObserveQuery(operation, table, start)
	}
}
