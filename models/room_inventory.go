package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// RoomInventory is one ledger row per (room, calendar day). Capacity is
// fixed when the row is first written; Booked only moves through the
// conditional reserve and the floor-at-zero release.
type RoomInventory struct {
	RoomID    uuid.UUID      `gorm:"type:char(36);primaryKey" json:"roomId"`
	Date      datatypes.Date `gorm:"column:stay_date;primaryKey" json:"date"`
	Capacity  int            `gorm:"not null" json:"capacity"`
	Booked    int            `gorm:"not null" json:"booked"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

func (RoomInventory) TableName() string { return "room_inventories" }

// Remaining never goes below zero even if capacity was lowered elsewhere.
func (r RoomInventory) Remaining() int {
	if r.Booked >= r.Capacity {
		return 0
	}
	return r.Capacity - r.Booked
}
