package controllers

import (
	"net/http"
	"strconv"
	"time"

	"hotel-booking-engine/middleware"
	"hotel-booking-engine/models"
	"hotel-booking-engine/services"
	"hotel-booking-engine/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CreateBookingRequest struct {
	Items    []services.LineItem `json:"items" binding:"required"`
	CheckIn  string              `json:"checkIn" binding:"required"`
	CheckOut string              `json:"checkOut" binding:"required"`
	Adult    int                 `json:"adult"`
	Child    int                 `json:"child"`
}

type UpdateStatusRequest struct {
	Status models.BookingStatus `json:"status" binding:"required"`
	Reason string               `json:"reason"`
}

type UpdatePaymentRequest struct {
	PaymentStatus models.PaymentStatus `json:"paymentStatus" binding:"required"`
}

type BookingController struct {
	bookings *services.BookingService
	sweeper  services.Sweeper
	log      *zap.Logger
}

func NewBookingController(bookings *services.BookingService, sweeper services.Sweeper, log *zap.Logger) *BookingController {
	if log == nil {
		log = zap.NewNop()
	}
	return &BookingController{bookings: bookings, sweeper: sweeper, log: log}
}

// POST /api/bookings
func (bc *BookingController) CreateBooking(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload: "+err.Error())
		return
	}
	checkIn, err := parseDay(req.CheckIn)
	if err != nil {
		badRequest(c, "checkIn must be a date (YYYY-MM-DD)")
		return
	}
	checkOut, err := parseDay(req.CheckOut)
	if err != nil {
		badRequest(c, "checkOut must be a date (YYYY-MM-DD)")
		return
	}

	view, err := bc.bookings.CreateBooking(c.Request.Context(), actor, services.CreateBookingInput{
		Items:    req.Items,
		CheckIn:  checkIn,
		CheckOut: checkOut,
		Adult:    req.Adult,
		Child:    req.Child,
	})
	if err != nil {
		respondError(c, bc.log, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, view)
}

// GET /api/bookings/:id
func (bc *BookingController) GetBooking(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	actor, _ := middleware.ActorFrom(c)
	view, err := bc.bookings.GetBooking(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, bc.log, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, view)
}

// GET /api/business/bookings?status=&lodgingId=&startDate=&endDate=&page=&limit=
func (bc *BookingController) ListBookings(c *gin.Context) {
	in := services.ListBookingsInput{
		Status: models.BookingStatus(c.Query("status")),
	}
	if raw := c.Query("lodgingId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			badRequest(c, "lodgingId must be a UUID")
			return
		}
		in.LodgingID = &id
	}
	dateParams := []struct {
		name string
		dst  **time.Time
	}{
		{"startDate", &in.StartDate},
		{"endDate", &in.EndDate},
	}
	for _, p := range dateParams {
		raw := c.Query(p.name)
		if raw == "" {
			continue
		}
		d, err := parseDay(raw)
		if err != nil {
			badRequest(c, p.name+" must be a date (YYYY-MM-DD)")
			return
		}
		*p.dst = &d
	}
	var err error
	if in.Page, err = queryInt(c, "page"); err != nil {
		badRequest(c, "page must be a number")
		return
	}
	if in.Limit, err = queryInt(c, "limit"); err != nil {
		badRequest(c, "limit must be a number")
		return
	}

	actor, _ := middleware.ActorFrom(c)
	page, err := bc.bookings.ListBookings(c.Request.Context(), actor, in)
	if err != nil {
		respondError(c, bc.log, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, page)
}

// PATCH /api/business/bookings/:id/status
func (bc *BookingController) UpdateStatus(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload: "+err.Error())
		return
	}

	actor, _ := middleware.ActorFrom(c)
	view, err := bc.bookings.UpdateBookingStatus(c.Request.Context(), actor, id, req.Status, req.Reason)
	if err != nil {
		respondError(c, bc.log, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, view)
}

// PATCH /api/business/bookings/:id/payment
func (bc *BookingController) UpdatePayment(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	var req UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload: "+err.Error())
		return
	}

	actor, _ := middleware.ActorFrom(c)
	view, err := bc.bookings.UpdatePaymentStatus(c.Request.Context(), actor, id, req.PaymentStatus)
	if err != nil {
		respondError(c, bc.log, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, view)
}

// POST /api/business/bookings/expire runs one sweep immediately.
func (bc *BookingController) ExpireNow(c *gin.Context) {
	result, err := bc.sweeper.ExpirePendingBookings(c.Request.Context())
	if err != nil {
		respondError(c, bc.log, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, result)
}

func bookingID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "booking id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
