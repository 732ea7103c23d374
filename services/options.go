package services

import (
	"time"

	"hotel-booking-engine/metrics"
)

const (
	DefaultPendingExpiry  = 30 * time.Minute
	DefaultSweepBatchSize = 200
)

type options struct {
	metrics       *metrics.Metrics
	events        EventPublisher
	now           func() time.Time
	pendingExpiry time.Duration
	batchSize     int
}

// Option configures BookingService and ExpiryService.
type Option func(*options)

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func WithEventPublisher(p EventPublisher) Option {
	return func(o *options) {
		if p != nil {
			o.events = p
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func WithPendingExpiry(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.pendingExpiry = d
		}
	}
}

func WithSweepBatchSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		events:        NoopPublisher{},
		now:           time.Now,
		pendingExpiry: DefaultPendingExpiry,
		batchSize:     DefaultSweepBatchSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
