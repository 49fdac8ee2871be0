// Package metrics метрики Prometheus портала: HTTP и доменные счётчики.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// HTTP метрики
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests in flight",
		},
	)

	// Платежи и подписки
	PaymentsCompletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_completed_total",
			Help: "Number of completed payments by plan",
		},
		[]string{"plan"},
	)
	LicenseValidationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "license_validations_total",
			Help: "License validation attempts by result",
		},
		[]string{"result"},
	)
	SubscriptionCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscription_cache_requests_total",
			Help: "Active subscription cache lookups by result",
		},
		[]string{"result"},
	)

	// Напоминания
	RemindersPublishedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "expiry_reminders_published_total",
			Help: "Number of expiry reminders published to the broker",
		},
	)
	EmailsSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emails_sent_total",
			Help: "Reminder e-mails by delivery status",
		},
		[]string{"status"},
	)
)

var once sync.Once

// InitMetrics регистрирует метрики в реестре по умолчанию. Повторные вызовы ничего не делают.
func InitMetrics() {
	once.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDuration,
			HTTPRequestsInFlight,
			PaymentsCompletedTotal,
			LicenseValidationsTotal,
			SubscriptionCacheTotal,
			RemindersPublishedTotal,
			EmailsSentTotal,
		)
		// Go и process коллекторы уже есть в реестре по умолчанию, регистрируем только отсутствующие.
		_ = prometheus.Register(collectors.NewBuildInfoCollector())
	})
}
