package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted:
		return true
	}
	return false
}

func (s BookingStatus) Terminal() bool {
	return s == BookingCancelled || s == BookingCompleted
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
	PaymentFailed   PaymentStatus = "failed"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentRefunded, PaymentFailed:
		return true
	}
	return false
}

// Booking is the order header. PendingExpiresAt is only set while the
// booking is pending; CancellationReason only while it is cancelled.
type Booking struct {
	ID                 uuid.UUID     `gorm:"type:char(36);primaryKey" json:"id"`
	UserID             uuid.UUID     `gorm:"type:char(36);not null;index" json:"userId"`
	BusinessUserID     uuid.UUID     `gorm:"type:char(36);not null;index" json:"businessUserId"`
	Adult              int           `gorm:"not null" json:"adult"`
	Child              int           `gorm:"not null" json:"child"`
	CheckinDate        time.Time     `gorm:"not null;index" json:"checkinDate"`
	CheckoutDate       time.Time     `gorm:"not null" json:"checkoutDate"`
	BookingDate        time.Time     `gorm:"not null" json:"bookingDate"`
	Duration           int           `gorm:"not null" json:"duration"`
	Status             BookingStatus `gorm:"column:status;size:16;not null;index:idx_bookings_status_expiry,priority:1" json:"status"`
	PaymentStatus      PaymentStatus `gorm:"column:payment_status;size:16;not null" json:"paymentStatus"`
	PendingExpiresAt   *time.Time    `gorm:"index:idx_bookings_status_expiry,priority:2" json:"pendingExpiresAt,omitempty"`
	CancellationReason *string       `gorm:"size:500" json:"cancellationReason,omitempty"`
	CreatedAt          time.Time     `gorm:"index" json:"createdAt"`
	UpdatedAt          time.Time     `json:"updatedAt"`

	Items []BookingItem `gorm:"foreignKey:BookingID" json:"items,omitempty"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	ensureID(&b.ID)
	return nil
}

func (b Booking) GuestCount() int { return b.Adult + b.Child }
