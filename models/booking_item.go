package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BookingItem is one (room, quantity) line of a booking. A room appears at
// most once per booking.
type BookingItem struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	BookingID uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_booking_items_booking_room,priority:1" json:"bookingId"`
	RoomID    uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_booking_items_booking_room,priority:2;index:idx_booking_items_room" json:"roomId"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `json:"createdAt"`
}

func (i *BookingItem) BeforeCreate(tx *gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
