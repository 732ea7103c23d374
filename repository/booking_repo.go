package repository

import (
	"context"
	"errors"
	"time"

	"hotel-booking-engine/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BookingFilter struct {
	BusinessUserID uuid.UUID
	Status         models.BookingStatus
	LodgingID      *uuid.UUID
	CheckinFrom    *time.Time
	CheckinTo      *time.Time
	Offset         int
	Limit          int
}

type BookingRepo interface {
	Create(ctx context.Context, b *models.Booking) error
	CreateItems(ctx context.Context, items []models.BookingItem) error

	// GetByID loads the booking with its items, nil when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	// GetForUpdate is GetByID with a row lock held until the transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	// GetPendingForUpdate returns nil when the booking is gone or no longer pending.
	GetPendingForUpdate(ctx context.Context, id uuid.UUID) (*models.Booking, error)

	// UpdateStatusGuarded applies fields only while the row still has status from.
	UpdateStatusGuarded(ctx context.Context, id uuid.UUID, from models.BookingStatus, fields map[string]any) (bool, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error

	ListExpiredPending(ctx context.Context, now time.Time, after *ExpiredCandidate, limit int) ([]ExpiredCandidate, error)
	List(ctx context.Context, f BookingFilter) ([]models.Booking, int64, error)
}

// ExpiredCandidate is one row of the expiry scan and the cursor for the next page.
type ExpiredCandidate struct {
	ID               uuid.UUID
	PendingExpiresAt time.Time
}

type bookingRepo struct{ db *gorm.DB }

func NewBookingRepo(db *gorm.DB) BookingRepo { return &bookingRepo{db: db} }

func (r *bookingRepo) Create(ctx context.Context, b *models.Booking) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(b).Error
}

func (r *bookingRepo) CreateItems(ctx context.Context, items []models.BookingItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *bookingRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return r.first(r.db.WithContext(ctx), "id = ?", id)
}

func (r *bookingRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	q := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"})
	return r.first(q, "id = ?", id)
}

func (r *bookingRepo) GetPendingForUpdate(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	q := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"})
	return r.first(q, "id = ? AND status = ?", id, models.BookingPending)
}

func (r *bookingRepo) first(q *gorm.DB, cond string, args ...any) (*models.Booking, error) {
	var b models.Booking
	err := q.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC").Order("id ASC")
	}).Where(cond, args...).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookingRepo) UpdateStatusGuarded(ctx context.Context, id uuid.UUID, from models.BookingStatus, fields map[string]any) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status = ?", id, from).
		Updates(fields)
	return tx.RowsAffected > 0, tx.Error
}

func (r *bookingRepo) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// ListExpiredPending pages through pending bookings whose expiry has passed,
// oldest first. Pass the last candidate of a page as after to read the next.
func (r *bookingRepo) ListExpiredPending(ctx context.Context, now time.Time, after *ExpiredCandidate, limit int) ([]ExpiredCandidate, error) {
	var out []ExpiredCandidate
	q := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Select("id, pending_expires_at").
		Where("status = ? AND pending_expires_at IS NOT NULL AND pending_expires_at <= ?", models.BookingPending, now)
	if after != nil {
		q = q.Where("pending_expires_at > ? OR (pending_expires_at = ? AND id > ?)",
			after.PendingExpiresAt, after.PendingExpiresAt, after.ID)
	}
	q = q.Order("pending_expires_at ASC").Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Scan(&out).Error
	return out, err
}

func (r *bookingRepo) List(ctx context.Context, f BookingFilter) ([]models.Booking, int64, error) {
	scope := func() *gorm.DB {
		q := r.db.WithContext(ctx).
			Model(&models.Booking{}).
			Where("business_user_id = ?", f.BusinessUserID)
		if f.Status != "" {
			q = q.Where("status = ?", f.Status)
		}
		if f.LodgingID != nil {
			sub := r.db.Model(&models.BookingItem{}).
				Select("booking_items.booking_id").
				Joins("JOIN rooms ON rooms.id = booking_items.room_id").
				Where("rooms.lodging_id = ?", *f.LodgingID)
			q = q.Where("id IN (?)", sub)
		}
		if f.CheckinFrom != nil {
			q = q.Where("checkin_date >= ?", *f.CheckinFrom)
		}
		if f.CheckinTo != nil {
			q = q.Where("checkin_date <= ?", *f.CheckinTo)
		}
		return q
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []models.Booking
	q := scope().
		Preload("Items").
		Order("created_at DESC").
		Order("id DESC").
		Offset(f.Offset)
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}
