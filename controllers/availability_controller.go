package controllers

import (
	"net/http"

	"hotel-booking-engine/middleware"
	"hotel-booking-engine/services"
	"hotel-booking-engine/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AvailabilityController struct {
	inventory *services.InventoryService
	log       *zap.Logger
}

func NewAvailabilityController(inventory *services.InventoryService, log *zap.Logger) *AvailabilityController {
	if log == nil {
		log = zap.NewNop()
	}
	return &AvailabilityController{inventory: inventory, log: log}
}

// GET /api/business/availability?lodgingId=&date=
func (ac *AvailabilityController) GetByDay(c *gin.Context) {
	lodgingID, err := uuid.Parse(c.Query("lodgingId"))
	if err != nil {
		badRequest(c, "lodgingId must be a UUID")
		return
	}
	day, err := parseDay(c.Query("date"))
	if err != nil {
		badRequest(c, "date must be a date (YYYY-MM-DD)")
		return
	}

	actor, _ := middleware.ActorFrom(c)
	out, err := ac.inventory.GetAvailabilityByDay(c.Request.Context(), actor, lodgingID, day)
	if err != nil {
		respondError(c, ac.log, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, out)
}
