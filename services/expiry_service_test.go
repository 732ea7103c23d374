package services_test

import (
	"context"
	"testing"
	"time"

	"hotel-booking-engine/models"
	"hotel-booking-engine/services"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestExpirePendingBookings_CancelsAndReleases(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room := env.room(t, 1)

	b, err := env.book(room.ID, 1, june10, june12)
	require.NoError(t, err)
	require.Equal(t, 1, env.booked(t, room.ID, june10))

	env.clock.Advance(31 * time.Minute)
	res, err := env.expiry.ExpirePendingBookings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.ExpiredCount)
	assert.Empty(t, res.Errors)

	got := env.load(t, b.ID)
	assert.Equal(t, models.BookingCancelled, got.Status)
	require.NotNil(t, got.CancellationReason)
	assert.Equal(t, services.ExpiredReason, *got.CancellationReason)
	assert.Nil(t, got.PendingExpiresAt)
	assert.Equal(t, 0, env.booked(t, room.ID, june10))
	assert.Equal(t, 0, env.booked(t, room.ID, june11))

	// The freed unit is bookable again.
	_, err = env.book(room.ID, 1, june10, june12)
	require.NoError(t, err)

	assert.Equal(t, []string{
		services.EventBookingCreated,
		services.EventBookingExpired,
		services.EventBookingCreated,
	}, env.events.Types())
	assert.Equal(t, float64(1), promtest.ToFloat64(env.metrics.BookingsExpired))
}

func TestExpirePendingBookings_SecondPassIsNoop(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room := env.room(t, 3)

	_, err := env.book(room.ID, 2, june10, june12)
	require.NoError(t, err)
	_, err = env.bookings.CreateBooking(ctx, env.guest(), services.CreateBookingInput{
		Items:    []services.LineItem{{RoomID: room.ID, Quantity: 1}},
		CheckIn:  june11,
		CheckOut: june12,
		Adult:    1,
	})
	require.NoError(t, err)

	env.clock.Advance(time.Hour)
	first, err := env.expiry.ExpirePendingBookings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, first.ExpiredCount)
	assert.Equal(t, 0, env.booked(t, room.ID, june10))
	assert.Equal(t, 0, env.booked(t, room.ID, june11))

	second, err := env.expiry.ExpirePendingBookings(ctx)
	require.NoError(t, err)
	assert.Zero(t, second.ExpiredCount)
	assert.Empty(t, second.Errors)
	assert.Equal(t, 0, env.booked(t, room.ID, june11))
}

func TestExpirePendingBookings_LeavesLiveBookingsAlone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room := env.room(t, 5)

	fresh, err := env.book(room.ID, 1, june10, june12)
	require.NoError(t, err)
	confirmed, err := env.book(room.ID, 1, june10, june12)
	require.NoError(t, err)
	_, err = env.bookings.UpdateBookingStatus(ctx, env.owner(), confirmed.ID, models.BookingConfirmed, "")
	require.NoError(t, err)

	env.clock.Advance(29 * time.Minute)
	res, err := env.expiry.ExpirePendingBookings(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.ExpiredCount)
	assert.Equal(t, models.BookingPending, env.load(t, fresh.ID).Status)

	env.clock.Advance(2 * time.Hour)
	res, err = env.expiry.ExpirePendingBookings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.ExpiredCount)
	assert.Equal(t, models.BookingCancelled, env.load(t, fresh.ID).Status)
	assert.Equal(t, models.BookingConfirmed, env.load(t, confirmed.ID).Status)
	assert.Equal(t, 1, env.booked(t, room.ID, june10))
}

func TestExpirePendingBookings_HonoursBatchSize(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room := env.room(t, 5)
	for i := 0; i < 3; i++ {
		_, err := env.book(room.ID, 1, june10, june11)
		require.NoError(t, err)
	}

	sweeper := services.NewExpiryService(env.repo, zap.NewNop(),
		services.WithClock(env.clock.Now),
		services.WithSweepBatchSize(2),
	)
	env.clock.Advance(time.Hour)

	res, err := sweeper.ExpirePendingBookings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.ExpiredCount)
	assert.Equal(t, 1, env.booked(t, room.ID, june10))

	res, err = sweeper.ExpirePendingBookings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.ExpiredCount)
	assert.Equal(t, 0, env.booked(t, room.ID, june10))
}

func TestExpirePendingBookings_FailuresDoNotBlockNewerBookings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room := env.room(t, 5)

	// Bookings with an empty stay cannot be released and stay pending.
	var broken []models.Booking
	for i := 0; i < 2; i++ {
		expiresAt := env.clock.Now().Add(-time.Duration(10-i) * time.Minute)
		b := models.Booking{
			UserID:           env.fx.Guest.ID,
			BusinessUserID:   env.fx.Owner.ID,
			Adult:            1,
			CheckinDate:      june10,
			CheckoutDate:     june10,
			BookingDate:      env.clock.Now(),
			Status:           models.BookingPending,
			PaymentStatus:    models.PaymentPending,
			PendingExpiresAt: &expiresAt,
		}
		require.NoError(t, env.repo.Bookings.Create(ctx, &b))
		broken = append(broken, b)
	}

	valid, err := env.book(room.ID, 1, june10, june12)
	require.NoError(t, err)

	sweeper := services.NewExpiryService(env.repo, zap.NewNop(),
		services.WithClock(env.clock.Now),
		services.WithSweepBatchSize(2),
	)
	env.clock.Advance(time.Hour)

	for pass := 0; pass < 2; pass++ {
		res, err := sweeper.ExpirePendingBookings(ctx)
		require.NoError(t, err)
		assert.Len(t, res.Errors, 2)
		if pass == 0 {
			assert.Equal(t, 1, res.ExpiredCount)
		} else {
			assert.Zero(t, res.ExpiredCount)
		}
	}

	assert.Equal(t, models.BookingCancelled, env.load(t, valid.ID).Status)
	assert.Equal(t, 0, env.booked(t, room.ID, june10))
	for _, b := range broken {
		assert.Equal(t, models.BookingPending, env.load(t, b.ID).Status)
	}
}

func TestExpirePendingBookings_CustomPendingWindow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room := env.room(t, 1)

	bookings := services.NewBookingService(env.repo, zap.NewNop(),
		services.WithClock(env.clock.Now),
		services.WithPendingExpiry(5*time.Minute),
	)
	view, err := bookings.CreateBooking(ctx, env.guest(), services.CreateBookingInput{
		Items:    []services.LineItem{{RoomID: room.ID, Quantity: 1}},
		CheckIn:  june10,
		CheckOut: june11,
		Adult:    1,
	})
	require.NoError(t, err)
	require.NotNil(t, view.PendingExpiresAt)
	assert.True(t, view.PendingExpiresAt.Equal(env.clock.Now().Add(5*time.Minute)))

	env.clock.Advance(6 * time.Minute)
	res, err := env.expiry.ExpirePendingBookings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.ExpiredCount)
}

func TestExpirePendingBookings_ToleratesMissingLedgerRows(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room := env.room(t, 1)

	b, err := env.book(room.ID, 1, june10, june12)
	require.NoError(t, err)
	require.NoError(t, env.db.Exec("DELETE FROM room_inventories WHERE room_id = ?", room.ID).Error)

	env.clock.Advance(time.Hour)
	res, err := env.expiry.ExpirePendingBookings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.ExpiredCount)
	assert.Equal(t, models.BookingCancelled, env.load(t, b.ID).Status)
	assert.Equal(t, -1, env.booked(t, room.ID, june10))
}

func TestExpirePendingBookings_EmptyStore(t *testing.T) {
	env := newTestEnv(t)
	res, err := env.expiry.ExpirePendingBookings(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.ExpiredCount)
	assert.NotNil(t, res.Errors)
	assert.Equal(t, float64(1), promtest.ToFloat64(env.metrics.SweepRuns))
}
