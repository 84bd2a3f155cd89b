package gateway

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker"
)

// Metrics provides observability for the gateway client.
type Metrics struct {
	// Requests by endpoint and result ("ok", "rejected", "failed", "short_circuited")
	Requests *prometheus.CounterVec

	RequestLatency *prometheus.HistogramVec

	// Breaker state: 0 closed, 1 half-open, 2 open
	BreakerState prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all gateway metrics registered.
func NewMetrics() *Metrics {
	return &Metrics{
		Requests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trustdash_gateway_requests_total",
			Help: "Total gateway requests by endpoint and result",
		}, []string{"endpoint", "result"}),

		RequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trustdash_gateway_request_duration_seconds",
			Help:    "Duration of gateway requests",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"endpoint"}),

		BreakerState: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "trustdash_gateway_breaker_state",
			Help: "Gateway circuit breaker state (0 closed, 1 half-open, 2 open)",
		}),
	}
}

func (m *Metrics) ObserveRequest(endpoint, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(endpoint, result).Inc()
	m.RequestLatency.WithLabelValues(endpoint).Observe(d.Seconds())
}

func (m *Metrics) SetBreakerState(state gobreaker.State) {
	if m == nil {
		return
	}
	switch state {
	case gobreaker.StateHalfOpen:
		m.BreakerState.Set(1)
	case gobreaker.StateOpen:
		m.BreakerState.Set(2)
	default:
		m.BreakerState.Set(0)
	}
}
