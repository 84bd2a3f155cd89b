package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the avatar module.
type Metrics struct {
	// Avatar actions by action ("register", "mint", "transfer") and result
	Actions *prometheus.CounterVec

	// Hub call latencies by call name
	HubLatency *prometheus.HistogramVec
}

// New creates a new Metrics instance with all avatar module metrics registered.
func New() *Metrics {
	return &Metrics{
		Actions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trustdash_avatar_actions_total",
			Help: "Total avatar actions by action and result",
		}, []string{"action", "result"}),

		HubLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trustdash_avatar_hub_duration_seconds",
			Help:    "Duration of avatar hub calls",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"call"}),
	}
}

func (m *Metrics) IncrementAction(action, result string) {
	if m == nil {
		return
	}
	m.Actions.WithLabelValues(action, result).Inc()
}

func (m *Metrics) ObserveHubLatency(call string, d time.Duration) {
	if m == nil {
		return
	}
	m.HubLatency.WithLabelValues(call).Observe(d.Seconds())
}
