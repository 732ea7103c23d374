package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BusinessUser is an account that either owns lodgings (role "business")
// or books them (role "user").
type BusinessUser struct {
	ID          uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	Name        string    `gorm:"size:255" json:"name"`
	Email       string    `gorm:"size:255;uniqueIndex" json:"email"`
	PhoneNumber string    `gorm:"size:32" json:"phoneNumber"`
	Role        string    `gorm:"size:16;not null" json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (u *BusinessUser) BeforeCreate(tx *gorm.DB) error {
	ensureID(&u.ID)
	return nil
}

type Lodging struct {
	ID          uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	BusinessID  uuid.UUID `gorm:"type:char(36);not null;index" json:"businessId"`
	LodgingName string    `gorm:"size:255" json:"lodgingName"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (l *Lodging) BeforeCreate(tx *gorm.DB) error {
	ensureID(&l.ID)
	return nil
}

// Room is a sellable room type of a lodging. Capacity is the number of
// physical units available per night; MinGuests and MaxGuests bound the
// party size a single unit accepts.
type Room struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	LodgingID uuid.UUID `gorm:"type:char(36);not null;index" json:"lodgingId"`
	RoomName  string    `gorm:"size:255" json:"roomName"`
	Capacity  int       `gorm:"column:capacity;not null" json:"capacity"`
	MinGuests int       `gorm:"column:min_guests" json:"minGuests"`
	MaxGuests int       `gorm:"column:max_guests" json:"maxGuests"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (r *Room) BeforeCreate(tx *gorm.DB) error {
	ensureID(&r.ID)
	return nil
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// All lists every model managed by AutoMigrate, parents first.
func All() []any {
	return []any{
		&BusinessUser{},
		&Lodging{},
		&Room{},
		&RoomInventory{},
		&Booking{},
		&BookingItem{},
		&Payment{},
	}
}
