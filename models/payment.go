package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payment is written by the payment collaborator. Only Paid is touched by
// booking payment-status transitions.
type Payment struct {
	ID            uuid.UUID       `gorm:"type:char(36);primaryKey" json:"id"`
	BookingID     uuid.UUID       `gorm:"type:char(36);not null;uniqueIndex" json:"bookingId"`
	PaymentTypeID *uuid.UUID      `gorm:"type:char(36)" json:"paymentTypeId,omitempty"`
	Total         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	Paid          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"paid"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
