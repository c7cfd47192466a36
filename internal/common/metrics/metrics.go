package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RegistrationsTotal counts registration attempts by result:
	// created, invalid, storage_error.
	RegistrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "affiliate_registrations_total",
			Help: "Total number of affiliate registration attempts by result",
		},
		[]string{"result"},
	)

	SheetRelayTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sheet_relay_total",
			Help: "Total number of spreadsheet webhook relays by outcome",
		},
		[]string{"outcome"},
	)

	SheetRelayDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sheet_relay_duration_seconds",
			Help:    "Duration of spreadsheet webhook calls in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 10},
		},
	)

	// NotificationsTotal counts email attempts by kind (welcome, backup,
	// alert) and status (sent, failed, not_configured).
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Total number of notification attempts by kind and status",
		},
		[]string{"kind", "status"},
	)

	IndexTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "affiliate_index_total",
			Help: "Total number of search index writes by status",
		},
		[]string{"status"},
	)

	DeliveryJobsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "delivery_jobs_active",
			Help: "Number of delivery jobs currently running",
		},
	)

	DeliveryQueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "delivery_queue_depth",
			Help: "Number of delivery jobs waiting in the queue",
		},
		[]string{"queue"},
	)

	DeliveryJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_jobs_total",
			Help: "Total number of delivery jobs by queue and status",
		},
		[]string{"queue", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"route", "method", "status"},
	)
)
