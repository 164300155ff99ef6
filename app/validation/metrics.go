package validation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/apperror"
)

type Metrics struct {
	Outcome *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Outcome: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "subscriptions_validation_outcomes_total",
			Help: "Validation decisions by result (accepted or error kind)",
		}, []string{"result"}),
	}
}

func (m *Metrics) ObserveValidation(err error) {
	if m == nil {
		return
	}
	result := "accepted"
	if err != nil {
		result = string(apperror.KindOf(err))
	}
	m.Outcome.WithLabelValues(result).Inc()
}
