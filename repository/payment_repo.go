package repository

import (
	"context"
	"errors"

	"hotel-booking-engine/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentRepo interface {
	GetByBooking(ctx context.Context, bookingID uuid.UUID) (*models.Payment, error)
	ListByBookings(ctx context.Context, bookingIDs []uuid.UUID) ([]models.Payment, error)
	// MarkPaid copies total into paid. Amounts are never computed here.
	MarkPaid(ctx context.Context, bookingID uuid.UUID) error
	ResetPaid(ctx context.Context, bookingID uuid.UUID) error
}

type paymentRepo struct{ db *gorm.DB }

func NewPaymentRepo(db *gorm.DB) PaymentRepo { return &paymentRepo{db: db} }

func (r *paymentRepo) GetByBooking(ctx context.Context, bookingID uuid.UUID) (*models.Payment, error) {
	var p models.Payment
	err := r.db.WithContext(ctx).First(&p, "booking_id = ?", bookingID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &p, err
}

func (r *paymentRepo) ListByBookings(ctx context.Context, bookingIDs []uuid.UUID) ([]models.Payment, error) {
	var list []models.Payment
	if len(bookingIDs) == 0 {
		return list, nil
	}
	err := r.db.WithContext(ctx).Where("booking_id IN ?", bookingIDs).Find(&list).Error
	return list, err
}

func (r *paymentRepo) MarkPaid(ctx context.Context, bookingID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("booking_id = ?", bookingID).
		Update("paid", gorm.Expr("total")).Error
}

func (r *paymentRepo) ResetPaid(ctx context.Context, bookingID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("booking_id = ?", bookingID).
		Update("paid", 0).Error
}
