package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	PipelineRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_runs_total",
		Help: "Прогоны конвейера по итогу",
	}, []string{"outcome"})

	ExtractionFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "extraction_failures_total",
		Help: "Ошибки извлечения графика по виду",
	}, []string{"kind"})

	PublishActionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "publish_actions_total",
		Help: "Решения машины уведомлений",
	}, []string{"action"})

	TransportErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "transport_errors_total",
		Help: "Ошибки отправки сообщений по виду",
	}, []string{"kind"})

	RetriesScheduledTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "retries_scheduled_total",
		Help: "Запланированные повторные прогоны",
	})

	RetryPending = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "retry_pending",
		Help: "1, если повторный прогон ожидает запуска",
	})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 15, 20, 30, 45, 60},
	}, []string{"component", "operation", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "status"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		PipelineRunsTotal,
		ExtractionFailuresTotal,
		PublishActionsTotal,
		TransportErrorsTotal,
		RetriesScheduledTotal,
		RetryPending,
		NetworkRequestDuration,
		NetworkRequestTotal,
	)
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, status).Inc()
}

// SetRetryPending отражает наличие отложенного повтора.
func SetRetryPending(pending bool) {
	if pending {
		RetryPending.Set(1)
		return
	}
	RetryPending.Set(0)
}
