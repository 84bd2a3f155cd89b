package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the trust module.
type Metrics struct {
	// Trust operation outcomes by kind ("add", "remove") and result
	OperationOutcome *prometheus.CounterVec

	// Ledger call latencies by call name
	LedgerLatency *prometheus.HistogramVec

	// Operations currently awaiting a ledger response
	PendingOperations prometheus.Gauge

	// Optimistic patches reverted after a ledger failure
	Rollbacks *prometheus.CounterVec

	// Snapshot cache lookups
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// Active account sessions
	Sessions prometheus.Gauge
}

// New creates a new Metrics instance with all trust module metrics registered.
func New() *Metrics {
	return &Metrics{
		OperationOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trustdash_trust_operations_total",
			Help: "Total trust operations by kind and result",
		}, []string{"kind", "result"}),

		LedgerLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trustdash_trust_ledger_duration_seconds",
			Help:    "Duration of trust ledger calls",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"call"}), // call: "list", "add", "remove"

		PendingOperations: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "trustdash_trust_pending_operations",
			Help: "Trust operations awaiting a ledger response",
		}),

		Rollbacks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trustdash_trust_rollbacks_total",
			Help: "Optimistic trust patches rolled back by kind",
		}, []string{"kind"}),

		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "trustdash_trust_snapshot_cache_hits_total",
			Help: "Relation snapshot cache hits",
		}),

		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "trustdash_trust_snapshot_cache_misses_total",
			Help: "Relation snapshot cache misses",
		}),

		Sessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "trustdash_trust_sessions",
			Help: "Open account sessions",
		}),
	}
}

// IncrementOutcome records the result of a trust operation.
func (m *Metrics) IncrementOutcome(kind, result string) {
	if m != nil {
		m.OperationOutcome.WithLabelValues(kind, result).Inc()
	}
}

// ObserveLedgerLatency records the duration of a ledger call.
func (m *Metrics) ObserveLedgerLatency(call string, d time.Duration) {
	if m != nil {
		m.LedgerLatency.WithLabelValues(call).Observe(d.Seconds())
	}
}

// PendingStarted marks an operation as in flight.
func (m *Metrics) PendingStarted() {
	if m != nil {
		m.PendingOperations.Inc()
	}
}

// PendingResolved marks an in-flight operation as resolved.
func (m *Metrics) PendingResolved() {
	if m != nil {
		m.PendingOperations.Dec()
	}
}

// IncrementRollback records a rolled back patch.
func (m *Metrics) IncrementRollback(kind string) {
	if m != nil {
		m.Rollbacks.WithLabelValues(kind).Inc()
	}
}

// IncrementCacheHit records a snapshot cache hit.
func (m *Metrics) IncrementCacheHit() {
	if m != nil {
		m.CacheHits.Inc()
	}
}

// IncrementCacheMiss records a snapshot cache miss.
func (m *Metrics) IncrementCacheMiss() {
	if m != nil {
		m.CacheMisses.Inc()
	}
}

// SetSessions records the number of open sessions.
func (m *Metrics) SetSessions(n int) {
	if m != nil {
		m.Sessions.Set(float64(n))
	}
}
