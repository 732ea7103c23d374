package controllers

import (
	"errors"
	"net/http"
	"time"

	"hotel-booking-engine/services"
	"hotel-booking-engine/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type errorMapping struct {
	target error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{services.ErrInvalidDateRange, http.StatusBadRequest, "error.invalid_date_range"},
	{services.ErrInvalidItems, http.StatusBadRequest, "error.invalid_items"},
	{services.ErrInvalidQuantity, http.StatusBadRequest, "error.invalid_quantity"},
	{services.ErrStayTooLong, http.StatusBadRequest, "error.stay_too_long"},
	{services.ErrInvalidGuestCount, http.StatusBadRequest, "error.invalid_guest_count"},
	{services.ErrInvalidStatus, http.StatusBadRequest, "error.invalid_status"},
	{services.ErrInvalidPaymentStatus, http.StatusBadRequest, "error.invalid_payment_status"},
	{services.ErrForbidden, http.StatusForbidden, "error.forbidden"},
	{services.ErrMixedBusiness, http.StatusForbidden, "error.mixed_business"},
	{services.ErrUserNotFound, http.StatusNotFound, "error.user_not_found"},
	{services.ErrRoomNotFound, http.StatusNotFound, "error.room_not_found"},
	{services.ErrLodgingNotFound, http.StatusNotFound, "error.lodging_not_found"},
	{services.ErrBookingNotFound, http.StatusNotFound, "error.booking_not_found"},
	{services.ErrNoRoomsFound, http.StatusNotFound, "error.no_rooms_found"},
	{services.ErrRoomNotAvailable, http.StatusConflict, "error.room_not_available"},
	{services.ErrInvalidTransition, http.StatusConflict, "error.invalid_transition"},
	{services.ErrConcurrentUpdate, http.StatusConflict, "error.concurrent_update"},
}

// respondError translates a service error into the failure envelope.
// Anything unrecognised is logged and reported as a 500 without detail.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		var details any
		var unavailable *services.RoomUnavailableError
		if errors.As(err, &unavailable) {
			details = gin.H{
				"roomId": unavailable.RoomID,
				"date":   unavailable.Date.Format(time.DateOnly),
			}
		}
		utils.JSONError(c, m.status, m.code, err.Error(), details)
		return
	}

	log.Error("request failed",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	_ = c.Error(err)
	utils.JSONError(c, http.StatusInternalServerError, "error.internal", "internal server error", nil)
}

func badRequest(c *gin.Context, message string) {
	utils.JSONError(c, http.StatusBadRequest, "error.validation", message, nil)
}

// parseDay accepts a calendar date or an RFC 3339 timestamp.
func parseDay(raw string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
