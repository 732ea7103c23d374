// Package testutil provides an in-memory database and seed fixtures for
// package tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"hotel-booking-engine/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a private in-memory SQLite database with the full schema.
// The pool holds a single connection, so concurrent transactions run one
// after another here. In MySQL they interleave, and the capacity guard
// rests on each conditional UPDATE in the inventory ledger checking and
// incrementing a row in one statement under its row lock. Tests that race
// goroutines cover request handling, not that interleaving.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// Fixture is a business account with one lodging, plus a guest account.
type Fixture struct {
	Owner   models.BusinessUser
	Guest   models.BusinessUser
	Lodging models.Lodging
}

func Seed(t *testing.T, db *gorm.DB) Fixture {
	t.Helper()

	f := Fixture{
		Owner:   SeedUser(t, db, "business"),
		Guest:   SeedUser(t, db, "user"),
		Lodging: models.Lodging{},
	}
	f.Lodging = SeedLodging(t, db, f.Owner.ID)
	return f
}

func SeedUser(t *testing.T, db *gorm.DB, role string) models.BusinessUser {
	t.Helper()
	id := uuid.New()
	u := models.BusinessUser{
		ID:          id,
		Name:        role + "-" + id.String()[:8],
		Email:       id.String() + "@example.test",
		PhoneNumber: "0800000000",
		Role:        role,
	}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedLodging(t *testing.T, db *gorm.DB, ownerID uuid.UUID) models.Lodging {
	t.Helper()
	l := models.Lodging{BusinessID: ownerID, LodgingName: "Lodging " + uuid.NewString()[:8]}
	if err := db.Create(&l).Error; err != nil {
		t.Fatalf("seed lodging: %v", err)
	}
	return l
}

func SeedRoom(t *testing.T, db *gorm.DB, lodgingID uuid.UUID, capacity, minGuests, maxGuests int) models.Room {
	t.Helper()
	r := models.Room{
		LodgingID: lodgingID,
		RoomName:  "Room " + uuid.NewString()[:8],
		Capacity:  capacity,
		MinGuests: minGuests,
		MaxGuests: maxGuests,
	}
	if err := db.Create(&r).Error; err != nil {
		t.Fatalf("seed room: %v", err)
	}
	return r
}

func SeedPayment(t *testing.T, db *gorm.DB, bookingID uuid.UUID, total string) models.Payment {
	t.Helper()
	p := models.Payment{
		BookingID: bookingID,
		Total:     decimal.RequireFromString(total),
		Paid:      decimal.Zero,
	}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed payment: %v", err)
	}
	return p
}

// Day returns midnight UTC of the given calendar date.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
