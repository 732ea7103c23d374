package repository

import (
	"context"
	"errors"

	"hotel-booking-engine/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CatalogRepo reads the collaborator-owned tables: accounts, lodgings, rooms.
type CatalogRepo interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.BusinessUser, error)
	GetUsers(ctx context.Context, ids []uuid.UUID) ([]models.BusinessUser, error)
	GetLodging(ctx context.Context, id uuid.UUID) (*models.Lodging, error)
	GetLodgings(ctx context.Context, ids []uuid.UUID) ([]models.Lodging, error)
	GetRooms(ctx context.Context, ids []uuid.UUID) ([]models.Room, error)
	ListRoomsByLodging(ctx context.Context, lodgingID uuid.UUID) ([]models.Room, error)
}

type catalogRepo struct{ db *gorm.DB }

func NewCatalogRepo(db *gorm.DB) CatalogRepo { return &catalogRepo{db: db} }

func (r *catalogRepo) GetUser(ctx context.Context, id uuid.UUID) (*models.BusinessUser, error) {
	var u models.BusinessUser
	err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &u, err
}

func (r *catalogRepo) GetUsers(ctx context.Context, ids []uuid.UUID) ([]models.BusinessUser, error) {
	var users []models.BusinessUser
	if len(ids) == 0 {
		return users, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	return users, err
}

func (r *catalogRepo) GetLodging(ctx context.Context, id uuid.UUID) (*models.Lodging, error) {
	var l models.Lodging
	err := r.db.WithContext(ctx).First(&l, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &l, err
}

func (r *catalogRepo) GetLodgings(ctx context.Context, ids []uuid.UUID) ([]models.Lodging, error) {
	var lodgings []models.Lodging
	if len(ids) == 0 {
		return lodgings, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&lodgings).Error
	return lodgings, err
}

func (r *catalogRepo) GetRooms(ctx context.Context, ids []uuid.UUID) ([]models.Room, error) {
	var rooms []models.Room
	if len(ids) == 0 {
		return rooms, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rooms).Error
	return rooms, err
}

func (r *catalogRepo) ListRoomsByLodging(ctx context.Context, lodgingID uuid.UUID) ([]models.Room, error) {
	var rooms []models.Room
	err := r.db.WithContext(ctx).
		Where("lodging_id = ?", lodgingID).
		Order("room_name ASC").
		Find(&rooms).Error
	return rooms, err
}
