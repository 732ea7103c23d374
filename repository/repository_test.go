package repository_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"hotel-booking-engine/models"
	"hotel-booking-engine/repository"
	"hotel-booking-engine/testutil"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupRepo(t *testing.T) (*repository.Repository, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	return repository.New(db), db
}

func TestInventory_EnsureRowsKeepsExistingCounters(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()
	roomID := uuid.New()
	day := testutil.Day(2024, time.June, 10)

	require.NoError(t, repo.Inventories.EnsureRows(ctx, roomID, []time.Time{day}, 2))
	ok, err := repo.Inventories.TryReserve(ctx, roomID, day, 1)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, repo.Inventories.EnsureRows(ctx, roomID, []time.Time{day, day.AddDate(0, 0, 1)}, 5))

	inv, err := repo.Inventories.Get(ctx, roomID, day)
	require.NoError(t, err)
	require.NotNil(t, inv)
	assert.Equal(t, 2, inv.Capacity)
	assert.Equal(t, 1, inv.Booked)

	next, err := repo.Inventories.Get(ctx, roomID, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, 5, next.Capacity)
	assert.Equal(t, 0, next.Booked)
}

func TestInventory_TryReserveStopsAtCapacity(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()
	roomID := uuid.New()
	day := testutil.Day(2024, time.June, 10)

	require.NoError(t, repo.Inventories.EnsureRows(ctx, roomID, []time.Time{day}, 2))

	ok, err := repo.Inventories.TryReserve(ctx, roomID, day, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Inventories.TryReserve(ctx, roomID, day, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	inv, err := repo.Inventories.Get(ctx, roomID, day)
	require.NoError(t, err)
	assert.Equal(t, 2, inv.Booked)
}

func TestInventory_TryReserveGuardsAgainstStaleReads(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()
	roomID := uuid.New()
	day := testutil.Day(2024, time.June, 10)

	require.NoError(t, repo.Inventories.EnsureRows(ctx, roomID, []time.Time{day}, 1))

	// Both callers see a free unit before either writes.
	for i := 0; i < 2; i++ {
		inv, err := repo.Inventories.Get(ctx, roomID, day)
		require.NoError(t, err)
		require.Equal(t, 1, inv.Capacity-inv.Booked)
	}

	first, err := repo.Inventories.TryReserve(ctx, roomID, day, 1)
	require.NoError(t, err)
	second, err := repo.Inventories.TryReserve(ctx, roomID, day, 1)
	require.NoError(t, err)
	assert.True(t, first)
	assert.False(t, second)

	inv, err := repo.Inventories.Get(ctx, roomID, day)
	require.NoError(t, err)
	assert.Equal(t, 1, inv.Booked)
}

func TestInventory_TryReserveWithoutRowFails(t *testing.T) {
	repo, _ := setupRepo(t)

	ok, err := repo.Inventories.TryReserve(context.Background(), uuid.New(), testutil.Day(2024, time.June, 10), 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInventory_ReleaseFloorsAtZero(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()
	roomID := uuid.New()
	day := testutil.Day(2024, time.June, 10)

	require.NoError(t, repo.Inventories.EnsureRows(ctx, roomID, []time.Time{day}, 3))
	ok, err := repo.Inventories.TryReserve(ctx, roomID, day, 1)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, repo.Inventories.Release(ctx, roomID, day, 5))

	inv, err := repo.Inventories.Get(ctx, roomID, day)
	require.NoError(t, err)
	assert.Equal(t, 0, inv.Booked)
}

func TestInventory_ReleaseMissingRowCreatesNothing(t *testing.T) {
	repo, db := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Inventories.Release(ctx, uuid.New(), testutil.Day(2024, time.June, 10), 1))

	var count int64
	require.NoError(t, db.Model(&models.RoomInventory{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestInventory_ListByRoomsOnDate(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()
	day := testutil.Day(2024, time.June, 10)

	require.NoError(t, repo.Inventories.EnsureRows(ctx, a, []time.Time{day, day.AddDate(0, 0, 1)}, 2))
	require.NoError(t, repo.Inventories.EnsureRows(ctx, b, []time.Time{day.AddDate(0, 0, 1)}, 4))

	rows, err := repo.Inventories.ListByRoomsOnDate(ctx, []uuid.UUID{a, b}, day)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, a, rows[0].RoomID)
}

func TestWithTx_RollsBackLedgerOnError(t *testing.T) {
	repo, db := setupRepo(t)
	ctx := context.Background()
	roomID := uuid.New()
	day := testutil.Day(2024, time.June, 10)
	boom := errors.New("boom")

	err := repo.WithTx(ctx, func(tx *repository.Repository) error {
		if err := tx.Inventories.EnsureRows(ctx, roomID, []time.Time{day}, 1); err != nil {
			return err
		}
		if _, err := tx.Inventories.TryReserve(ctx, roomID, day, 1); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int64
	require.NoError(t, db.Model(&models.RoomInventory{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestWithTx_ReplaysDeadlocks(t *testing.T) {
	repo, _ := setupRepo(t)
	calls := 0

	err := repo.WithTx(context.Background(), func(tx *repository.Repository) error {
		calls++
		if calls < 2 {
			return &mysql.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock"}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestWithTx_GivesUpAfterMaxAttempts(t *testing.T) {
	repo, _ := setupRepo(t)
	calls := 0

	err := repo.WithTx(context.Background(), func(tx *repository.Repository) error {
		calls++
		return &mysql.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded"}
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"deadlock", &mysql.MySQLError{Number: 1213}, true},
		{"lock wait timeout", &mysql.MySQLError{Number: 1205}, true},
		{"wrapped deadlock", fmt.Errorf("reserve: %w", &mysql.MySQLError{Number: 1213}), true},
		{"duplicate key", &mysql.MySQLError{Number: 1062}, false},
		{"plain error", errors.New("nope"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, repository.IsRetryable(tt.err))
		})
	}
}

func newBooking(userID, ownerID uuid.UUID, checkin time.Time, status models.BookingStatus) *models.Booking {
	return &models.Booking{
		UserID:         userID,
		BusinessUserID: ownerID,
		Adult:          2,
		CheckinDate:    checkin,
		CheckoutDate:   checkin.AddDate(0, 0, 2),
		BookingDate:    time.Now().UTC(),
		Duration:       2,
		Status:         status,
		PaymentStatus:  models.PaymentPending,
	}
}

func TestBookings_UpdateStatusGuarded(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()
	b := newBooking(uuid.New(), uuid.New(), testutil.Day(2024, time.June, 10), models.BookingPending)
	require.NoError(t, repo.Bookings.Create(ctx, b))

	ok, err := repo.Bookings.UpdateStatusGuarded(ctx, b.ID, models.BookingConfirmed, map[string]any{"status": models.BookingCompleted})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.Bookings.UpdateStatusGuarded(ctx, b.ID, models.BookingPending, map[string]any{
		"status":             models.BookingConfirmed,
		"pending_expires_at": nil,
	})
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.Bookings.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, got.Status)
	assert.Nil(t, got.PendingExpiresAt)
}

func TestBookings_GetPendingForUpdateSkipsOtherStatuses(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()
	b := newBooking(uuid.New(), uuid.New(), testutil.Day(2024, time.June, 10), models.BookingConfirmed)
	require.NoError(t, repo.Bookings.Create(ctx, b))

	got, err := repo.Bookings.GetPendingForUpdate(ctx, b.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	missing, err := repo.Bookings.GetByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestBookings_ListExpiredPending(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()
	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-10 * time.Minute)
	future := now.Add(10 * time.Minute)

	expired := newBooking(uuid.New(), uuid.New(), testutil.Day(2024, time.June, 10), models.BookingPending)
	expired.PendingExpiresAt = &past
	fresh := newBooking(uuid.New(), uuid.New(), testutil.Day(2024, time.June, 10), models.BookingPending)
	fresh.PendingExpiresAt = &future
	confirmed := newBooking(uuid.New(), uuid.New(), testutil.Day(2024, time.June, 10), models.BookingConfirmed)
	confirmed.PendingExpiresAt = &past

	for _, b := range []*models.Booking{expired, fresh, confirmed} {
		require.NoError(t, repo.Bookings.Create(ctx, b))
	}

	got, err := repo.Bookings.ListExpiredPending(ctx, now, nil, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, expired.ID, got[0].ID)
}

func TestBookings_ListExpiredPendingPagesWithCursor(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()
	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	older := now.Add(-time.Hour)
	newer := now.Add(-time.Minute)

	var want []uuid.UUID
	for _, at := range []time.Time{older, older, newer} {
		b := newBooking(uuid.New(), uuid.New(), testutil.Day(2024, time.June, 10), models.BookingPending)
		b.PendingExpiresAt = &at
		require.NoError(t, repo.Bookings.Create(ctx, b))
		want = append(want, b.ID)
	}
	// Ties on expiry are broken by id.
	if want[1].String() < want[0].String() {
		want[0], want[1] = want[1], want[0]
	}

	var seen []uuid.UUID
	var after *repository.ExpiredCandidate
	for page := 0; page < 3; page++ {
		got, err := repo.Bookings.ListExpiredPending(ctx, now, after, 2)
		require.NoError(t, err)
		for _, c := range got {
			seen = append(seen, c.ID)
		}
		if len(got) < 2 {
			break
		}
		after = &got[len(got)-1]
	}
	assert.Equal(t, want, seen)
}

func TestBookings_ListFiltersByOwnerStatusAndLodging(t *testing.T) {
	repo, db := setupRepo(t)
	ctx := context.Background()
	fx := testutil.Seed(t, db)
	otherLodging := testutil.SeedLodging(t, db, fx.Owner.ID)
	roomA := testutil.SeedRoom(t, db, fx.Lodging.ID, 2, 1, 2)
	roomB := testutil.SeedRoom(t, db, otherLodging.ID, 2, 1, 2)

	mk := func(room models.Room, checkin time.Time, status models.BookingStatus, owner uuid.UUID) *models.Booking {
		b := newBooking(fx.Guest.ID, owner, checkin, status)
		require.NoError(t, repo.Bookings.Create(ctx, b))
		require.NoError(t, repo.Bookings.CreateItems(ctx, []models.BookingItem{{BookingID: b.ID, RoomID: room.ID, Quantity: 1}}))
		return b
	}
	inA := mk(roomA, testutil.Day(2024, time.June, 10), models.BookingPending, fx.Owner.ID)
	mk(roomB, testutil.Day(2024, time.June, 20), models.BookingConfirmed, fx.Owner.ID)
	mk(roomA, testutil.Day(2024, time.June, 10), models.BookingPending, uuid.New())

	all, total, err := repo.Bookings.List(ctx, repository.BookingFilter{BusinessUserID: fx.Owner.ID, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, all, 2)

	lodgingID := fx.Lodging.ID
	byLodging, total, err := repo.Bookings.List(ctx, repository.BookingFilter{BusinessUserID: fx.Owner.ID, LodgingID: &lodgingID, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, byLodging, 1)
	assert.Equal(t, inA.ID, byLodging[0].ID)
	require.Len(t, byLodging[0].Items, 1)
	assert.Equal(t, roomA.ID, byLodging[0].Items[0].RoomID)

	confirmed, total, err := repo.Bookings.List(ctx, repository.BookingFilter{BusinessUserID: fx.Owner.ID, Status: models.BookingConfirmed, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, confirmed, 1)
	assert.Equal(t, models.BookingConfirmed, confirmed[0].Status)

	from := testutil.Day(2024, time.June, 15)
	later, total, err := repo.Bookings.List(ctx, repository.BookingFilter{BusinessUserID: fx.Owner.ID, CheckinFrom: &from, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, later, 1)
}

func TestPayments_MarkPaidAndReset(t *testing.T) {
	repo, db := setupRepo(t)
	ctx := context.Background()
	bookingID := uuid.New()
	testutil.SeedPayment(t, db, bookingID, "150.50")

	require.NoError(t, repo.Payments.MarkPaid(ctx, bookingID))
	p, err := repo.Payments.GetByBooking(ctx, bookingID)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.True(t, p.Paid.Equal(p.Total), "paid %s total %s", p.Paid, p.Total)

	require.NoError(t, repo.Payments.ResetPaid(ctx, bookingID))
	p, err = repo.Payments.GetByBooking(ctx, bookingID)
	require.NoError(t, err)
	assert.True(t, p.Paid.IsZero())
}
