package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	BookingsCreated    prometheus.Counter
	BookingFailures    *prometheus.CounterVec
	StatusTransitions  *prometheus.CounterVec
	PaymentTransitions *prometheus.CounterVec
	SweepRuns          prometheus.Counter
	SweepDuration      prometheus.Histogram
	BookingsExpired    prometheus.Counter
	SweepErrors        prometheus.Counter
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer in
// the server and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		BookingsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "bookings_created_total",
			Help: "Total number of bookings committed",
		}),
		BookingFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_create_failures_total",
			Help: "Total number of rejected booking creations by reason",
		}, []string{"reason"}),
		StatusTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_status_transitions_total",
			Help: "Total number of applied booking status transitions",
		}, []string{"from", "to"}),
		PaymentTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_payment_transitions_total",
			Help: "Total number of booking payment status updates",
		}, []string{"status"}),
		SweepRuns: f.NewCounter(prometheus.CounterOpts{
			Name: "booking_expiry_sweeps_total",
			Help: "Total number of expiry sweeper passes",
		}),
		SweepDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "booking_expiry_sweep_duration_seconds",
			Help:    "Expiry sweeper pass duration in seconds",
			Buckets: []float64{.01, .05, .1, .5, 1, 5, 10, 30},
		}),
		BookingsExpired: f.NewCounter(prometheus.CounterOpts{
			Name: "bookings_expired_total",
			Help: "Total number of pending bookings cancelled by the sweeper",
		}),
		SweepErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "booking_expiry_errors_total",
			Help: "Total number of bookings the sweeper failed to expire",
		}),
	}
}

// The Record methods accept a nil receiver so callers can run without metrics.

func (m *Metrics) RecordBookingCreated() {
	if m == nil {
		return
	}
	m.BookingsCreated.Inc()
}

func (m *Metrics) RecordBookingFailed(reason string) {
	if m == nil {
		return
	}
	m.BookingFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecordStatusTransition(from, to string) {
	if m == nil {
		return
	}
	m.StatusTransitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) RecordPaymentTransition(status string) {
	if m == nil {
		return
	}
	m.PaymentTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordSweep(duration time.Duration, expired, failed int) {
	if m == nil {
		return
	}
	m.SweepRuns.Inc()
	m.SweepDuration.Observe(duration.Seconds())
	m.BookingsExpired.Add(float64(expired))
	m.SweepErrors.Add(float64(failed))
}
