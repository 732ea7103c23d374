package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"hotel-booking-engine/models"
	"hotel-booking-engine/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	maxStatusAttempts = 3
	defaultPageLimit  = 10
	maxPageLimit      = 100

	// Upper bound for the merged quantity of one room in a booking.
	maxLineQuantity = math.MaxInt32

	// Rooms that do not declare MaxGuests accept any party up to this size.
	unboundedGuests = 999
)

var errStatusRace = errors.New("booking status changed during update")

type LineItem struct {
	RoomID   uuid.UUID `json:"roomId"`
	Quantity int       `json:"quantity"`
}

type CreateBookingInput struct {
	Items    []LineItem
	CheckIn  time.Time
	CheckOut time.Time
	Adult    int
	Child    int
}

type ListBookingsInput struct {
	Status    models.BookingStatus
	LodgingID *uuid.UUID
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	Limit     int
}

type BookingService struct {
	repo *repository.Repository
	log  *zap.Logger
	opts options
}

func NewBookingService(repo *repository.Repository, log *zap.Logger, opts ...Option) *BookingService {
	if log == nil {
		log = zap.NewNop()
	}
	return &BookingService{repo: repo, log: log, opts: buildOptions(opts)}
}

// MergeLineItems drops non-positive quantities and sums repeated rooms,
// keeping the order in which rooms first appear. A room whose total exceeds
// maxLineQuantity fails with ErrInvalidQuantity.
func MergeLineItems(items []LineItem) ([]LineItem, error) {
	merged := make([]LineItem, 0, len(items))
	index := make(map[uuid.UUID]int, len(items))
	for _, it := range items {
		if it.RoomID == uuid.Nil || it.Quantity <= 0 {
			continue
		}
		if it.Quantity > maxLineQuantity {
			return nil, fmt.Errorf("%w: room %s", ErrInvalidQuantity, it.RoomID)
		}
		if i, ok := index[it.RoomID]; ok {
			if it.Quantity > maxLineQuantity-merged[i].Quantity {
				return nil, fmt.Errorf("%w: room %s", ErrInvalidQuantity, it.RoomID)
			}
			merged[i].Quantity += it.Quantity
			continue
		}
		index[it.RoomID] = len(merged)
		merged = append(merged, it)
	}
	if len(merged) == 0 {
		return nil, ErrInvalidItems
	}
	return merged, nil
}

// CreateBooking reserves every line item for every night of the stay and
// stores the booking as pending, all in one transaction.
func (s *BookingService) CreateBooking(ctx context.Context, actor Actor, in CreateBookingInput) (*BookingView, error) {
	items, err := MergeLineItems(in.Items)
	if err != nil {
		s.opts.metrics.RecordBookingFailed(failureReason(err))
		return nil, err
	}
	if in.Adult < 0 || in.Child < 0 {
		s.opts.metrics.RecordBookingFailed(failureReason(ErrInvalidGuestCount))
		return nil, ErrInvalidGuestCount
	}
	dates, err := EnumerateDates(in.CheckIn, in.CheckOut)
	if err != nil {
		s.opts.metrics.RecordBookingFailed(failureReason(err))
		return nil, err
	}

	now := s.opts.now().UTC()
	expiresAt := now.Add(s.opts.pendingExpiry)
	booking := models.Booking{
		ID:               uuid.New(),
		UserID:           actor.UserID,
		Adult:            in.Adult,
		Child:            in.Child,
		CheckinDate:      dates[0],
		CheckoutDate:     NormalizeDateUTC(in.CheckOut),
		BookingDate:      now,
		Duration:         len(dates),
		Status:           models.BookingPending,
		PaymentStatus:    models.PaymentPending,
		PendingExpiresAt: &expiresAt,
	}

	err = s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		guest, err := tx.Catalog.GetUser(ctx, actor.UserID)
		if err != nil {
			return fmt.Errorf("load guest: %w", err)
		}
		if guest == nil {
			return ErrUserNotFound
		}

		rooms, err := resolveRooms(ctx, tx, items)
		if err != nil {
			return err
		}
		ownerID, err := resolveOwner(ctx, tx, rooms)
		if err != nil {
			return err
		}
		if err := checkGuestCount(rooms, in.Adult+in.Child); err != nil {
			return err
		}

		for _, it := range items {
			if err := ReserveInventory(ctx, tx, it.RoomID, dates, rooms[it.RoomID].Capacity, it.Quantity); err != nil {
				return err
			}
		}

		booking.BusinessUserID = ownerID
		booking.Items = nil
		if err := tx.Bookings.Create(ctx, &booking); err != nil {
			return fmt.Errorf("create booking: %w", err)
		}
		rows := make([]models.BookingItem, 0, len(items))
		for _, it := range items {
			rows = append(rows, models.BookingItem{BookingID: booking.ID, RoomID: it.RoomID, Quantity: it.Quantity})
		}
		if err := tx.Bookings.CreateItems(ctx, rows); err != nil {
			return fmt.Errorf("create booking items: %w", err)
		}
		booking.Items = rows
		return nil
	})
	if err != nil {
		s.opts.metrics.RecordBookingFailed(failureReason(err))
		if errors.Is(err, ErrRoomNotAvailable) {
			s.log.Info("booking rejected", zap.String("user_id", actor.UserID.String()), zap.Error(err))
		}
		return nil, err
	}

	s.opts.metrics.RecordBookingCreated()
	s.log.Info("booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("business_user_id", booking.BusinessUserID.String()),
		zap.Int("items", len(items)),
		zap.Int("nights", len(dates)),
	)
	s.publish(ctx, EventBookingCreated, &booking, "")

	view, err := s.loadView(ctx, booking.ID)
	if err != nil {
		s.log.Warn("booking view assembly failed", zap.String("booking_id", booking.ID.String()), zap.Error(err))
		v := newBookingView(&booking, nil, nil)
		return &v, nil
	}
	return view, nil
}

func resolveRooms(ctx context.Context, tx *repository.Repository, items []LineItem) (map[uuid.UUID]models.Room, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.RoomID)
	}
	rooms, err := tx.Catalog.GetRooms(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load rooms: %w", err)
	}
	byID := make(map[uuid.UUID]models.Room, len(rooms))
	for _, r := range rooms {
		byID[r.ID] = r
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrRoomNotFound, id)
		}
	}
	return byID, nil
}

// resolveOwner returns the single business account owning every room.
func resolveOwner(ctx context.Context, tx *repository.Repository, rooms map[uuid.UUID]models.Room) (uuid.UUID, error) {
	seen := make(map[uuid.UUID]struct{}, len(rooms))
	lodgingIDs := make([]uuid.UUID, 0, len(rooms))
	for _, r := range rooms {
		if _, ok := seen[r.LodgingID]; ok {
			continue
		}
		seen[r.LodgingID] = struct{}{}
		lodgingIDs = append(lodgingIDs, r.LodgingID)
	}

	lodgings, err := tx.Catalog.GetLodgings(ctx, lodgingIDs)
	if err != nil {
		return uuid.Nil, fmt.Errorf("load lodgings: %w", err)
	}
	if len(lodgings) != len(lodgingIDs) {
		return uuid.Nil, ErrLodgingNotFound
	}

	owner := lodgings[0].BusinessID
	for _, l := range lodgings[1:] {
		if l.BusinessID != owner {
			return uuid.Nil, ErrMixedBusiness
		}
	}
	return owner, nil
}

// checkGuestCount applies the coarse party-size rule: the whole party must
// fit between the smallest room minimum and the largest room maximum.
func checkGuestCount(rooms map[uuid.UUID]models.Room, guests int) error {
	lo, hi := math.MaxInt, 0
	for _, r := range rooms {
		minGuests := r.MinGuests
		if minGuests < 1 {
			minGuests = 1
		}
		maxGuests := r.MaxGuests
		if maxGuests < 1 {
			maxGuests = unboundedGuests
		}
		lo = min(lo, minGuests)
		hi = max(hi, maxGuests)
	}
	if guests < lo || guests > hi {
		return fmt.Errorf("%w: %d guests, rooms allow %d to %d", ErrInvalidGuestCount, guests, lo, hi)
	}
	return nil
}

// GetBooking returns a booking to its owning business or to its guest.
func (s *BookingService) GetBooking(ctx context.Context, actor Actor, id uuid.UUID) (*BookingView, error) {
	b, err := s.repo.Bookings.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load booking: %w", err)
	}
	if b == nil {
		return nil, ErrBookingNotFound
	}
	if b.BusinessUserID != actor.UserID && b.UserID != actor.UserID {
		return nil, ErrForbidden
	}
	v := s.assemble(ctx, b)
	return &v, nil
}

// ListBookings pages through the bookings owned by the acting business,
// newest first.
func (s *BookingService) ListBookings(ctx context.Context, actor Actor, in ListBookingsInput) (*BookingPage, error) {
	if in.Status != "" && !in.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	page := max(in.Page, 1)
	limit := in.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	limit = min(limit, maxPageLimit)

	filter := repository.BookingFilter{
		BusinessUserID: actor.UserID,
		Status:         in.Status,
		LodgingID:      in.LodgingID,
		Offset:         (page - 1) * limit,
		Limit:          limit,
	}
	if in.StartDate != nil {
		from := NormalizeDateUTC(*in.StartDate)
		filter.CheckinFrom = &from
	}
	if in.EndDate != nil {
		to := NormalizeDateUTC(*in.EndDate)
		filter.CheckinTo = &to
	}

	list, total, err := s.repo.Bookings.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	guests, payments := s.lookupParties(ctx, list)
	out := &BookingPage{
		Bookings:    make([]BookingView, 0, len(list)),
		Total:       total,
		TotalPages:  int((total + int64(limit) - 1) / int64(limit)),
		CurrentPage: page,
	}
	for i := range list {
		b := &list[i]
		var guest *models.BusinessUser
		if g, ok := guests[b.UserID]; ok {
			guest = &g
		}
		var payment *models.Payment
		if p, ok := payments[b.ID]; ok {
			payment = &p
		}
		out.Bookings = append(out.Bookings, newBookingView(b, guest, payment))
	}
	return out, nil
}

func (s *BookingService) lookupParties(ctx context.Context, list []models.Booking) (map[uuid.UUID]models.BusinessUser, map[uuid.UUID]models.Payment) {
	guests := make(map[uuid.UUID]models.BusinessUser)
	payments := make(map[uuid.UUID]models.Payment)
	if len(list) == 0 {
		return guests, payments
	}

	userIDs := make([]uuid.UUID, 0, len(list))
	bookingIDs := make([]uuid.UUID, 0, len(list))
	seen := make(map[uuid.UUID]struct{}, len(list))
	for _, b := range list {
		bookingIDs = append(bookingIDs, b.ID)
		if _, ok := seen[b.UserID]; !ok {
			seen[b.UserID] = struct{}{}
			userIDs = append(userIDs, b.UserID)
		}
	}

	users, err := s.repo.Catalog.GetUsers(ctx, userIDs)
	if err != nil {
		s.log.Warn("guest lookup failed", zap.Error(err))
	}
	for _, u := range users {
		guests[u.ID] = u
	}
	ps, err := s.repo.Payments.ListByBookings(ctx, bookingIDs)
	if err != nil {
		s.log.Warn("payment lookup failed", zap.Error(err))
	}
	for _, p := range ps {
		payments[p.BookingID] = p
	}
	return guests, payments
}

// UpdateBookingStatus moves a booking through the state machine on behalf
// of its owning business. Entering cancelled from pending or confirmed gives
// the reserved units back. Re-applying the current status changes nothing.
func (s *BookingService) UpdateBookingStatus(ctx context.Context, actor Actor, id uuid.UUID, target models.BookingStatus, reason string) (*BookingView, error) {
	if !target.Valid() {
		return nil, ErrInvalidStatus
	}
	reason = strings.TrimSpace(reason)

	for attempt := 1; attempt <= maxStatusAttempts; attempt++ {
		var (
			current models.Booking
			applied bool
		)
		err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
			applied = false
			b, err := tx.Bookings.GetForUpdate(ctx, id)
			if err != nil {
				return fmt.Errorf("load booking: %w", err)
			}
			if b == nil {
				return ErrBookingNotFound
			}
			if b.BusinessUserID != actor.UserID {
				return ErrForbidden
			}
			current = *b

			from := b.Status
			if from == target {
				return nil
			}
			if !CanTransition(from, target) {
				return &TransitionError{From: string(from), To: string(target)}
			}

			fields := map[string]any{"status": target}
			if from == models.BookingPending {
				fields["pending_expires_at"] = nil
			}
			if target == models.BookingCancelled {
				if reason != "" {
					fields["cancellation_reason"] = reason
				}
			} else {
				fields["cancellation_reason"] = nil
			}

			if releasesInventory(from, target) {
				if err := releaseBooking(ctx, tx, b); err != nil {
					return err
				}
			}

			ok, err := tx.Bookings.UpdateStatusGuarded(ctx, id, from, fields)
			if err != nil {
				return fmt.Errorf("update booking status: %w", err)
			}
			if !ok {
				return errStatusRace
			}
			applied = true
			return nil
		})
		if errors.Is(err, errStatusRace) {
			s.log.Warn("booking status raced, retrying", zap.String("booking_id", id.String()), zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return nil, err
		}

		if applied {
			from := current.Status
			s.opts.metrics.RecordStatusTransition(string(from), string(target))
			s.log.Info("booking status changed",
				zap.String("booking_id", id.String()),
				zap.String("from", string(from)),
				zap.String("to", string(target)),
			)
			current.Status = target
			s.publish(ctx, EventBookingStatusChanged, &current, string(from))
		}
		return s.loadView(ctx, id)
	}
	return nil, ErrConcurrentUpdate
}

// UpdatePaymentStatus records a payment outcome reported by the payment
// collaborator. paid copies the payment total into paid; refunded zeroes it.
func (s *BookingService) UpdatePaymentStatus(ctx context.Context, actor Actor, id uuid.UUID, status models.PaymentStatus) (*BookingView, error) {
	if !status.Valid() {
		return nil, ErrInvalidPaymentStatus
	}

	var current models.Booking
	err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		b, err := tx.Bookings.GetForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("load booking: %w", err)
		}
		if b == nil {
			return ErrBookingNotFound
		}
		if b.BusinessUserID != actor.UserID {
			return ErrForbidden
		}
		current = *b

		if err := tx.Bookings.UpdateFields(ctx, id, map[string]any{"payment_status": status}); err != nil {
			return fmt.Errorf("update payment status: %w", err)
		}
		switch status {
		case models.PaymentPaid:
			err = tx.Payments.MarkPaid(ctx, id)
		case models.PaymentRefunded:
			err = tx.Payments.ResetPaid(ctx, id)
		}
		if err != nil {
			return fmt.Errorf("update payment amount: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.opts.metrics.RecordPaymentTransition(string(status))
	s.log.Info("booking payment status changed",
		zap.String("booking_id", id.String()),
		zap.String("payment_status", string(status)),
	)
	current.PaymentStatus = status
	s.publish(ctx, EventBookingPaymentUpdated, &current, "")
	return s.loadView(ctx, id)
}

func (s *BookingService) loadView(ctx context.Context, id uuid.UUID) (*BookingView, error) {
	b, err := s.repo.Bookings.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load booking: %w", err)
	}
	if b == nil {
		return nil, ErrBookingNotFound
	}
	v := s.assemble(ctx, b)
	return &v, nil
}

// assemble joins guest and payment onto the booking. Lookup failures only
// leave the parts out.
func (s *BookingService) assemble(ctx context.Context, b *models.Booking) BookingView {
	guest, err := s.repo.Catalog.GetUser(ctx, b.UserID)
	if err != nil {
		s.log.Warn("guest lookup failed", zap.String("booking_id", b.ID.String()), zap.Error(err))
		guest = nil
	}
	payment, err := s.repo.Payments.GetByBooking(ctx, b.ID)
	if err != nil {
		s.log.Warn("payment lookup failed", zap.String("booking_id", b.ID.String()), zap.Error(err))
		payment = nil
	}
	return newBookingView(b, guest, payment)
}

func (s *BookingService) publish(ctx context.Context, eventType string, b *models.Booking, previous string) {
	publishEvent(ctx, s.opts.events, s.log, newBookingEvent(eventType, b, previous, s.opts.now()))
}

func newBookingEvent(eventType string, b *models.Booking, previous string, at time.Time) BookingEvent {
	return BookingEvent{
		Type:           eventType,
		BookingID:      b.ID,
		BusinessUserID: b.BusinessUserID,
		UserID:         b.UserID,
		Status:         string(b.Status),
		PreviousStatus: previous,
		PaymentStatus:  string(b.PaymentStatus),
		OccurredAt:     at.UTC(),
	}
}

func publishEvent(ctx context.Context, p EventPublisher, log *zap.Logger, evt BookingEvent) {
	if err := p.Publish(ctx, evt); err != nil {
		log.Warn("publish booking event failed",
			zap.String("type", evt.Type),
			zap.String("booking_id", evt.BookingID.String()),
			zap.Error(err),
		)
	}
}

// failureReason is the metrics label for a rejected booking.
func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrRoomNotAvailable):
		return "room_not_available"
	case errors.Is(err, ErrInvalidItems):
		return "invalid_items"
	case errors.Is(err, ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, ErrStayTooLong):
		return "stay_too_long"
	case errors.Is(err, ErrInvalidDateRange):
		return "invalid_date_range"
	case errors.Is(err, ErrInvalidGuestCount):
		return "invalid_guest_count"
	case errors.Is(err, ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, ErrRoomNotFound):
		return "room_not_found"
	case errors.Is(err, ErrLodgingNotFound):
		return "lodging_not_found"
	case errors.Is(err, ErrMixedBusiness):
		return "mixed_business"
	default:
		return "internal"
	}
}
