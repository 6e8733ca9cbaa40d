package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rait_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rait_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Sync protocol metrics
	MessagesAppended = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rait_messages_appended_total",
			Help: "Total messages accepted into room logs",
		},
		[]string{"kind"},
	)

	SnapshotsDelivered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rait_snapshots_delivered_total",
			Help: "Total full-log snapshots delivered to subscribers",
		},
	)

	ResubscribeAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rait_resubscribe_attempts_total",
			Help: "Total resubscription attempts after stream errors",
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rait_active_sessions",
			Help: "Currently open room sync sessions",
		},
	)

	// Directory metrics
	DirectoryEnsures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rait_directory_ensures_total",
			Help: "Total directory ensure upserts",
		},
	)

	DirectoryTouchFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rait_directory_touch_failures_total",
			Help: "Total failed recency touches after an accepted append",
		},
	)

	// Transport metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rait_ws_connections",
			Help: "Currently open WebSocket connections",
		},
	)

	// Moderation metrics
	ReportsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rait_reports_submitted_total",
			Help: "Total moderation reports accepted",
		},
	)
)
