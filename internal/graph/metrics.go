package graph

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Решения по политикам: outcome = allow | deny
	Decisions *prometheus.CounterVec

	// Latency проверки политики (чистая in-memory операция, ожидаем микросекунды)
	EvaluationDuration *prometheus.HistogramVec

	// Ошибки конфигурации, всплывшие в рантайме (unknown_policy)
	ErrorTotal *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern - Если рег не передан, используем локальный, который никуда не подключен
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		Decisions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "authz_decisions_total",
			Help: "Total number of authorization decisions by policy and outcome.",
		}, []string{"type", "policy", "outcome"}),

		EvaluationDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "authz_evaluation_duration_seconds",
			Help:    "Histogram of policy evaluation latencies.",
			Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
		}, []string{"policy"}),

		ErrorTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "authz_errors_total",
			Help: "Total number of authorization errors by type.",
		}, []string{"type"}),
	}
}
