package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hotel-booking-engine/models"
	"hotel-booking-engine/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ExpiredReason is stored on bookings cancelled by the sweeper.
const ExpiredReason = "expired"

type SweepError struct {
	BookingID uuid.UUID `json:"bookingId"`
	Error     string    `json:"error"`
}

type SweepResult struct {
	ExpiredCount int          `json:"expiredCount"`
	Errors       []SweepError `json:"errors"`
}

type ExpiryService struct {
	repo *repository.Repository
	log  *zap.Logger
	opts options
}

func NewExpiryService(repo *repository.Repository, log *zap.Logger, opts ...Option) *ExpiryService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ExpiryService{repo: repo, log: log, opts: buildOptions(opts)}
}

// ExpirePendingBookings cancels pending bookings whose expiry has passed and
// releases their inventory. Every booking runs in its own transaction; a
// failure is collected and the booking is retried on the next pass. The
// returned error is only set when the candidate scan itself fails.
func (s *ExpiryService) ExpirePendingBookings(ctx context.Context) (SweepResult, error) {
	start := time.Now()
	result := SweepResult{Errors: []SweepError{}}
	now := s.opts.now().UTC()

	// Failing bookings stay pending and keep their place at the head of the
	// scan, so pages continue until batchSize bookings have expired.
	var after *repository.ExpiredCandidate
	candidates := 0
	for result.ExpiredCount < s.opts.batchSize && ctx.Err() == nil {
		page, err := s.repo.Bookings.ListExpiredPending(ctx, now, after, s.opts.batchSize)
		if err != nil {
			return result, fmt.Errorf("scan expired bookings: %w", err)
		}
		candidates += len(page)

		for _, c := range page {
			if ctx.Err() != nil || result.ExpiredCount >= s.opts.batchSize {
				break
			}
			expired, err := s.expireOne(ctx, c.ID, now)
			if err != nil {
				s.log.Error("expire booking failed", zap.String("booking_id", c.ID.String()), zap.Error(err))
				result.Errors = append(result.Errors, SweepError{BookingID: c.ID, Error: err.Error()})
				continue
			}
			if expired {
				result.ExpiredCount++
			}
		}

		if len(page) < s.opts.batchSize {
			break
		}
		after = &page[len(page)-1]
	}

	s.opts.metrics.RecordSweep(time.Since(start), result.ExpiredCount, len(result.Errors))
	if result.ExpiredCount > 0 || len(result.Errors) > 0 {
		s.log.Info("expired pending bookings",
			zap.Int("count", result.ExpiredCount),
			zap.Int("errors", len(result.Errors)),
			zap.Int("candidates", candidates),
		)
	}
	return result, nil
}

// expireOne reports false when the booking was confirmed, cancelled or
// extended after the scan picked it up.
func (s *ExpiryService) expireOne(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	var booking models.Booking
	expired := false

	err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		expired = false
		b, err := tx.Bookings.GetPendingForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("load booking: %w", err)
		}
		if b == nil || b.PendingExpiresAt == nil || b.PendingExpiresAt.After(now) {
			return nil
		}

		if err := releaseBooking(ctx, tx, b); err != nil {
			return err
		}
		ok, err := tx.Bookings.UpdateStatusGuarded(ctx, id, models.BookingPending, map[string]any{
			"status":              models.BookingCancelled,
			"cancellation_reason": ExpiredReason,
			"pending_expires_at":  nil,
		})
		if err != nil {
			return fmt.Errorf("cancel booking: %w", err)
		}
		if !ok {
			return errStatusRace
		}
		booking = *b
		expired = true
		return nil
	})
	if errors.Is(err, errStatusRace) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if expired {
		booking.Status = models.BookingCancelled
		publishEvent(ctx, s.opts.events, s.log,
			newBookingEvent(EventBookingExpired, &booking, string(models.BookingPending), s.opts.now()))
	}
	return expired, nil
}
