package services

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	EventBookingCreated        = "booking.created"
	EventBookingStatusChanged  = "booking.status_changed"
	EventBookingExpired        = "booking.expired"
	EventBookingPaymentUpdated = "booking.payment_updated"
)

// BookingEvent is emitted after a booking change has been committed.
type BookingEvent struct {
	Type           string    `json:"type"`
	BookingID      uuid.UUID `json:"bookingId"`
	BusinessUserID uuid.UUID `json:"businessUserId"`
	UserID         uuid.UUID `json:"userId"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previousStatus,omitempty"`
	PaymentStatus  string    `json:"paymentStatus"`
	OccurredAt     time.Time `json:"occurredAt"`
}

type EventPublisher interface {
	Publish(ctx context.Context, event BookingEvent) error
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, BookingEvent) error { return nil }
