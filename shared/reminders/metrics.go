package reminders

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the reminder system. A nil *Metrics
// records nothing.
type Metrics struct {
	RemindersSentTotal   *prometheus.CounterVec
	RemindersDue         prometheus.Gauge
	ReminderSendDuration prometheus.Histogram
	ReminderRetries      prometheus.Counter
	DigestsSentTotal     prometheus.Counter
}

// NewMetrics creates the reminder metrics on reg.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RemindersSentTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reminders_sent_total",
				Help:      "Reminders delivered, by outcome",
			},
			[]string{"status"},
		),
		RemindersDue: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "reminders_due",
				Help:      "Bookings due for a reminder at the last check",
			},
		),
		ReminderSendDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "reminder_send_duration_seconds",
				Help:      "Time to deliver a reminder to every notifier",
				Buckets:   []float64{.01, .05, .1, .5, 1, 2, 5},
			},
		),
		ReminderRetries: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reminder_retries_total",
				Help:      "Total number of retry attempts",
			},
		),
		DigestsSentTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "digests_sent_total",
				Help:      "Daily digests announced",
			},
		),
	}
}

func (m *Metrics) IncSent(status string) {
	if m != nil {
		m.RemindersSentTotal.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) SetDue(n int) {
	if m != nil {
		m.RemindersDue.Set(float64(n))
	}
}

func (m *Metrics) ObserveSendDuration(seconds float64) {
	if m != nil {
		m.ReminderSendDuration.Observe(seconds)
	}
}

func (m *Metrics) IncRetries() {
	if m != nil {
		m.ReminderRetries.Inc()
	}
}

func (m *Metrics) IncDigests() {
	if m != nil {
		m.DigestsSentTotal.Inc()
	}
}
