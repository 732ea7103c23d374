package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"hotel-booking-engine/metrics"
	"hotel-booking-engine/models"
	"hotel-booking-engine/repository"
	"hotel-booking-engine/services"
	"hotel-booking-engine/testutil"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []services.BookingEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e services.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type testEnv struct {
	db       *gorm.DB
	repo     *repository.Repository
	fx       testutil.Fixture
	clock    *fakeClock
	events   *recordingPublisher
	metrics  *metrics.Metrics
	bookings *services.BookingService
	expiry   *services.ExpiryService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewDB(t)
	env := &testEnv{
		db:      db,
		repo:    repository.New(db),
		fx:      testutil.Seed(t, db),
		clock:   &fakeClock{now: time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)},
		events:  &recordingPublisher{},
		metrics: metrics.New(prometheus.NewRegistry()),
	}
	opts := []services.Option{
		services.WithClock(env.clock.Now),
		services.WithEventPublisher(env.events),
		services.WithMetrics(env.metrics),
	}
	env.bookings = services.NewBookingService(env.repo, zap.NewNop(), opts...)
	env.expiry = services.NewExpiryService(env.repo, zap.NewNop(), opts...)
	return env
}

func (e *testEnv) guest() services.Actor {
	return services.Actor{UserID: e.fx.Guest.ID, Role: services.RoleUser}
}

func (e *testEnv) owner() services.Actor {
	return services.Actor{UserID: e.fx.Owner.ID, Role: services.RoleBusiness}
}

func (e *testEnv) room(t *testing.T, capacity int) models.Room {
	t.Helper()
	return testutil.SeedRoom(t, e.db, e.fx.Lodging.ID, capacity, 1, 4)
}

func (e *testEnv) book(roomID uuid.UUID, qty int, in, out time.Time) (*services.BookingView, error) {
	return e.bookings.CreateBooking(context.Background(), e.guest(), services.CreateBookingInput{
		Items:    []services.LineItem{{RoomID: roomID, Quantity: qty}},
		CheckIn:  in,
		CheckOut: out,
		Adult:    2,
	})
}

// booked returns the ledger count for a room and day, -1 when no row exists.
func (e *testEnv) booked(t *testing.T, roomID uuid.UUID, d time.Time) int {
	t.Helper()
	inv, err := e.repo.Inventories.Get(context.Background(), roomID, d)
	require.NoError(t, err)
	if inv == nil {
		return -1
	}
	return inv.Booked
}

func (e *testEnv) load(t *testing.T, id uuid.UUID) *models.Booking {
	t.Helper()
	b, err := e.repo.Bookings.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, b)
	return b
}

func (e *testEnv) countBookings(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&models.Booking{}).Count(&n).Error)
	return n
}
