package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindwell_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mindwell_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	SessionTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindwell_session_transitions_total",
			Help: "Total number of session state transitions",
		},
		[]string{"to_status"},
	)

	SettlementsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mindwell_settlements_total",
			Help: "Total number of completed session settlements",
		},
	)

	SettledGrossCents = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mindwell_settled_gross_cents_total",
			Help: "Gross amount settled, in cents",
		},
	)

	PlatformFeeCents = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mindwell_platform_fee_cents_total",
			Help: "Platform commission retained, in cents",
		},
	)

	TopupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindwell_wallet_topups_total",
			Help: "Total number of gateway topup verifications",
		},
		[]string{"result"},
	)

	WithdrawalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindwell_withdrawals_total",
			Help: "Total number of withdrawal request transitions",
		},
		[]string{"status"},
	)

	DisputesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindwell_disputes_total",
			Help: "Total number of dispute resolutions",
		},
		[]string{"resolution"},
	)

	NotificationQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mindwell_notification_queue_length",
			Help: "Current length of the notification queue",
		},
	)

	NotificationsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindwell_notifications_sent_total",
			Help: "Total number of notifications sent",
		},
		[]string{"type", "status"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordSessionTransition(toStatus string) {
	SessionTransitionsTotal.WithLabelValues(toStatus).Inc()
}

func RecordSettlement(grossCents, feeCents int64) {
	SettlementsTotal.Inc()
	SettledGrossCents.Add(float64(grossCents))
	PlatformFeeCents.Add(float64(feeCents))
}

func RecordTopup(result string) {
	TopupsTotal.WithLabelValues(result).Inc()
}

func RecordWithdrawal(status string) {
	WithdrawalsTotal.WithLabelValues(status).Inc()
}

func RecordDispute(resolution string) {
	DisputesTotal.WithLabelValues(resolution).Inc()
}

func RecordNotification(notifType, status string) {
	NotificationsSentTotal.WithLabelValues(notifType, status).Inc()
}
