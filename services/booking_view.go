package services

import (
	"time"

	"hotel-booking-engine/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookingItemView struct {
	RoomID   uuid.UUID `json:"roomId"`
	Quantity int       `json:"quantity"`
}

type GuestView struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phoneNumber"`
}

type PaymentView struct {
	Total decimal.Decimal `json:"total"`
	Paid  decimal.Decimal `json:"paid"`
}

type BookingView struct {
	ID                 uuid.UUID            `json:"id"`
	BusinessUserID     uuid.UUID            `json:"businessUserId"`
	Items              []BookingItemView    `json:"items"`
	CheckinDate        time.Time            `json:"checkinDate"`
	CheckoutDate       time.Time            `json:"checkoutDate"`
	Nights             int                  `json:"nights"`
	Adult              int                  `json:"adult"`
	Child              int                  `json:"child"`
	GuestCount         int                  `json:"guestCount"`
	Status             models.BookingStatus `json:"status"`
	PaymentStatus      models.PaymentStatus `json:"paymentStatus"`
	PendingExpiresAt   *time.Time           `json:"pendingExpiresAt,omitempty"`
	CancellationReason *string              `json:"cancellationReason,omitempty"`
	CreatedAt          time.Time            `json:"createdAt"`
	Guest              *GuestView           `json:"guest,omitempty"`
	Payment            *PaymentView         `json:"payment,omitempty"`
}

type BookingPage struct {
	Bookings    []BookingView `json:"bookings"`
	Total       int64         `json:"total"`
	TotalPages  int           `json:"totalPages"`
	CurrentPage int           `json:"currentPage"`
}

func newBookingView(b *models.Booking, guest *models.BusinessUser, payment *models.Payment) BookingView {
	v := BookingView{
		ID:                 b.ID,
		BusinessUserID:     b.BusinessUserID,
		Items:              make([]BookingItemView, 0, len(b.Items)),
		CheckinDate:        b.CheckinDate,
		CheckoutDate:       b.CheckoutDate,
		Nights:             b.Duration,
		Adult:              b.Adult,
		Child:              b.Child,
		GuestCount:         b.GuestCount(),
		Status:             b.Status,
		PaymentStatus:      b.PaymentStatus,
		PendingExpiresAt:   b.PendingExpiresAt,
		CancellationReason: b.CancellationReason,
		CreatedAt:          b.CreatedAt,
	}
	for _, it := range b.Items {
		v.Items = append(v.Items, BookingItemView{RoomID: it.RoomID, Quantity: it.Quantity})
	}
	if guest != nil {
		v.Guest = &GuestView{
			ID:          guest.ID,
			Name:        guest.Name,
			Email:       guest.Email,
			PhoneNumber: guest.PhoneNumber,
		}
	}
	if payment != nil {
		v.Payment = &PaymentView{Total: payment.Total, Paid: payment.Paid}
	}
	return v
}
