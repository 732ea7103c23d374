package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"hotel-booking-engine/models"
	"hotel-booking-engine/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReserveInventory books qty units of roomID for every day in dates, or
// fails with a *RoomUnavailableError on the first day without room. tx must
// be transaction scoped: increments already applied for earlier days are
// undone only by rolling that transaction back.
func ReserveInventory(ctx context.Context, tx *repository.Repository, roomID uuid.UUID, dates []time.Time, capacity, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	if len(dates) == 0 {
		return ErrInvalidDateRange
	}

	if err := tx.Inventories.EnsureRows(ctx, roomID, dates, capacity); err != nil {
		return fmt.Errorf("ensure inventory rows for room %s: %w", roomID, err)
	}
	for _, d := range dates {
		ok, err := tx.Inventories.TryReserve(ctx, roomID, d, qty)
		if err != nil {
			return fmt.Errorf("reserve room %s on %s: %w", roomID, d.Format(time.DateOnly), err)
		}
		if !ok {
			return &RoomUnavailableError{RoomID: roomID, Date: d}
		}
	}
	return nil
}

// ReleaseInventory returns qty units for every day, flooring booked at zero.
// Days without a ledger row are skipped.
func ReleaseInventory(ctx context.Context, tx *repository.Repository, roomID uuid.UUID, dates []time.Time, qty int) error {
	if qty <= 0 {
		return nil
	}
	for _, d := range dates {
		if err := tx.Inventories.Release(ctx, roomID, d, qty); err != nil {
			return fmt.Errorf("release room %s on %s: %w", roomID, d.Format(time.DateOnly), err)
		}
	}
	return nil
}

// releaseBooking gives back every item of b over the booking's own stored
// stay dates.
func releaseBooking(ctx context.Context, tx *repository.Repository, b *models.Booking) error {
	dates, err := EnumerateDates(b.CheckinDate, b.CheckoutDate)
	if err != nil {
		return fmt.Errorf("booking %s: %w", b.ID, err)
	}
	for _, item := range b.Items {
		if err := ReleaseInventory(ctx, tx, item.RoomID, dates, item.Quantity); err != nil {
			return err
		}
	}
	return nil
}

type RoomAvailability struct {
	RoomID    uuid.UUID `json:"roomId"`
	RoomName  string    `json:"roomName"`
	Capacity  int       `json:"capacity"`
	Booked    int       `json:"booked"`
	Remaining int       `json:"remaining"`
}

type DayAvailability struct {
	LodgingID uuid.UUID          `json:"lodgingId"`
	Date      string             `json:"date"`
	Rooms     []RoomAvailability `json:"rooms"`
}

type InventoryService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewInventoryService(repo *repository.Repository, log *zap.Logger) *InventoryService {
	if log == nil {
		log = zap.NewNop()
	}
	return &InventoryService{repo: repo, log: log}
}

// GetAvailabilityByDay reports capacity, booked and remaining units of every
// room of a lodging on one day, fullest rooms first.
func (s *InventoryService) GetAvailabilityByDay(ctx context.Context, actor Actor, lodgingID uuid.UUID, date time.Time) (*DayAvailability, error) {
	lodging, err := s.repo.Catalog.GetLodging(ctx, lodgingID)
	if err != nil {
		return nil, fmt.Errorf("load lodging: %w", err)
	}
	if lodging == nil {
		return nil, ErrLodgingNotFound
	}
	if lodging.BusinessID != actor.UserID {
		return nil, ErrForbidden
	}

	rooms, err := s.repo.Catalog.ListRoomsByLodging(ctx, lodgingID)
	if err != nil {
		return nil, fmt.Errorf("load rooms: %w", err)
	}
	if len(rooms) == 0 {
		return nil, ErrNoRoomsFound
	}

	day := NormalizeDateUTC(date)
	ids := make([]uuid.UUID, 0, len(rooms))
	for _, r := range rooms {
		ids = append(ids, r.ID)
	}
	rows, err := s.repo.Inventories.ListByRoomsOnDate(ctx, ids, day)
	if err != nil {
		return nil, fmt.Errorf("load inventory: %w", err)
	}
	ledger := make(map[uuid.UUID]models.RoomInventory, len(rows))
	for _, row := range rows {
		ledger[row.RoomID] = row
	}

	out := &DayAvailability{
		LodgingID: lodgingID,
		Date:      day.Format(time.DateOnly),
		Rooms:     make([]RoomAvailability, 0, len(rooms)),
	}
	for _, r := range rooms {
		row, ok := ledger[r.ID]
		if !ok {
			row = models.RoomInventory{RoomID: r.ID, Capacity: r.Capacity}
		}
		out.Rooms = append(out.Rooms, RoomAvailability{
			RoomID:    r.ID,
			RoomName:  r.RoomName,
			Capacity:  row.Capacity,
			Booked:    row.Booked,
			Remaining: row.Remaining(),
		})
	}
	sort.SliceStable(out.Rooms, func(i, j int) bool {
		return out.Rooms[i].Remaining < out.Rooms[j].Remaining
	})

	s.log.Debug("availability computed",
		zap.String("lodging_id", lodgingID.String()),
		zap.String("date", out.Date),
		zap.Int("rooms", len(out.Rooms)),
	)
	return out, nil
}
