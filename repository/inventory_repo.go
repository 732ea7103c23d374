package repository

import (
	"context"
	"errors"
	"time"

	"hotel-booking-engine/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InventoryRepo interface {
	// EnsureRows inserts {capacity, booked: 0} for every missing day and
	// leaves existing rows untouched.
	EnsureRows(ctx context.Context, roomID uuid.UUID, dates []time.Time, capacity int) error
	// TryReserve: booked += qty if booked <= capacity - qty, in one statement.
	TryReserve(ctx context.Context, roomID uuid.UUID, date time.Time, qty int) (bool, error)
	// Release: booked = max(booked - qty, 0). Missing rows are left alone.
	Release(ctx context.Context, roomID uuid.UUID, date time.Time, qty int) error

	Get(ctx context.Context, roomID uuid.UUID, date time.Time) (*models.RoomInventory, error)
	ListByRoomsOnDate(ctx context.Context, roomIDs []uuid.UUID, date time.Time) ([]models.RoomInventory, error)
}

type inventoryRepo struct{ db *gorm.DB }

func NewInventoryRepo(db *gorm.DB) InventoryRepo { return &inventoryRepo{db: db} }

func (r *inventoryRepo) EnsureRows(ctx context.Context, roomID uuid.UUID, dates []time.Time, capacity int) error {
	if len(dates) == 0 {
		return nil
	}
	rows := make([]models.RoomInventory, 0, len(dates))
	for _, d := range dates {
		rows = append(rows, models.RoomInventory{
			RoomID:   roomID,
			Date:     datatypes.Date(d),
			Capacity: capacity,
			Booked:   0,
		})
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "room_id"}, {Name: "stay_date"}},
			DoNothing: true,
		}).
		Create(&rows).Error
}

func (r *inventoryRepo) TryReserve(ctx context.Context, roomID uuid.UUID, date time.Time, qty int) (bool, error) {
	tx := r.db.WithContext(ctx).Exec(`
UPDATE room_inventories
SET booked = booked + @q,
    updated_at = @now
WHERE room_id = @rid
  AND stay_date = @day
  AND booked <= capacity - @q
`, map[string]any{
		"q":   qty,
		"now": time.Now().UTC(),
		"rid": roomID,
		"day": datatypes.Date(date),
	})
	return tx.RowsAffected > 0, tx.Error
}

func (r *inventoryRepo) Release(ctx context.Context, roomID uuid.UUID, date time.Time, qty int) error {
	return r.db.WithContext(ctx).Exec(`
UPDATE room_inventories
SET booked = CASE WHEN booked > @q THEN booked - @q ELSE 0 END,
    updated_at = @now
WHERE room_id = @rid
  AND stay_date = @day
`, map[string]any{
		"q":   qty,
		"now": time.Now().UTC(),
		"rid": roomID,
		"day": datatypes.Date(date),
	}).Error
}

func (r *inventoryRepo) Get(ctx context.Context, roomID uuid.UUID, date time.Time) (*models.RoomInventory, error) {
	var inv models.RoomInventory
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND stay_date = ?", roomID, datatypes.Date(date)).
		First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &inv, err
}

func (r *inventoryRepo) ListByRoomsOnDate(ctx context.Context, roomIDs []uuid.UUID, date time.Time) ([]models.RoomInventory, error) {
	var rows []models.RoomInventory
	if len(roomIDs) == 0 {
		return rows, nil
	}
	err := r.db.WithContext(ctx).
		Where("room_id IN ? AND stay_date = ?", roomIDs, datatypes.Date(date)).
		Find(&rows).Error
	return rows, err
}
