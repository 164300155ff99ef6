package reference

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for outbound reference checks.
type Metrics struct {
	CheckLatency *prometheus.HistogramVec
	CheckOutcome *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	auto := promauto.With(reg)
	return &Metrics{
		CheckLatency: auto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "subscriptions_reference_check_duration_seconds",
			Help:    "Duration of remote reference checks by kind",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"kind"}),

		CheckOutcome: auto.NewCounterVec(prometheus.CounterOpts{
			Name: "subscriptions_reference_checks_total",
			Help: "Total remote reference checks by kind and outcome",
		}, []string{"kind", "outcome"}),
	}
}

// ObserveCheck records one finished check. Safe on a nil receiver.
func (m *Metrics) ObserveCheck(kind Kind, outcome Outcome, d time.Duration) {
	if m == nil {
		return
	}
	m.CheckLatency.WithLabelValues(string(kind)).Observe(d.Seconds())
	m.CheckOutcome.WithLabelValues(string(kind), outcome.String()).Inc()
}
