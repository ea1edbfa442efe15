package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "movietracker"

// Metrics holds all Prometheus collectors of the bot.
type Metrics struct {
	// Polling
	SeriesChecked        prometheus.Counter
	SeriesCheckErrors    prometheus.Counter
	EpisodesDetected     prometheus.Counter
	NotificationsCreated prometheus.Counter

	// Dispatch
	NotificationsSent   prometheus.Counter
	NotificationsFailed prometheus.Counter
	OutboxPending       prometheus.Gauge

	// Scheduler
	CycleDuration prometheus.Histogram
	CycleFailures *prometheus.CounterVec

	// Conversation
	UpdatesHandled *prometheus.CounterVec
	Subscriptions  *prometheus.CounterVec
}

// New registers all collectors with reg. A nil reg uses a private registry,
// which keeps tests and one-shot CLI commands from touching global state.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Metrics{
		SeriesChecked: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "series_checked_total",
			Help:      "Total number of series freshness checks",
		}),
		SeriesCheckErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "series_check_errors_total",
			Help:      "Total number of series checks that failed to persist",
		}),
		EpisodesDetected: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "episodes_detected_total",
			Help:      "Total number of newly aired episodes detected",
		}),
		NotificationsCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_created_total",
			Help:      "Total number of notifications enqueued",
		}),
		NotificationsSent: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Total number of notifications delivered",
		}),
		NotificationsFailed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_failed_total",
			Help:      "Total number of failed delivery attempts",
		}),
		OutboxPending: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "outbox_pending",
			Help:      "Unsent notifications after the last dispatch pass",
		}),
		CycleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_cycle_duration_seconds",
			Help:      "Duration of polling cycles in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}),
		CycleFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_cycle_failures_total",
			Help:      "Total number of failed polling steps",
		}, []string{"step"}),
		UpdatesHandled: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_handled_total",
			Help:      "Total number of Telegram updates handled",
		}, []string{"type"}),
		Subscriptions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscription_changes_total",
			Help:      "Total number of subscribe and unsubscribe actions",
		}, []string{"action"}),
	}
}
