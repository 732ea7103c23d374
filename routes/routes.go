package routes

import (
	"net/http"
	"strings"
	"time"

	"hotel-booking-engine/controllers"
	"hotel-booking-engine/middleware"
	"hotel-booking-engine/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func parseCorsOrigins(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{"*"}
	}

	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

type Options struct {
	JWTSecret   string
	CORSOrigins string
	// Metrics serves /metrics; defaults to the global Prometheus registry.
	Metrics http.Handler
	Log     *zap.Logger
}

func SetupRouter(bc *controllers.BookingController, ac *controllers.AvailabilityController, opts Options) *gin.Engine {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	metricsHandler := opts.Metrics
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(log))

	origins := parseCorsOrigins(opts.CORSOrigins)
	allowCredentials := !(len(origins) == 1 && origins[0] == "*")
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: allowCredentials,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metricsHandler))

	api := r.Group("/api", middleware.Auth(opts.JWTSecret))
	{
		bookings := api.Group("/bookings")
		{
			bookings.POST("", bc.CreateBooking)
			bookings.GET("/:id", bc.GetBooking)
		}

		business := api.Group("/business", middleware.RequireRole(services.RoleBusiness))
		{
			business.GET("/bookings", bc.ListBookings)
			business.POST("/bookings/expire", bc.ExpireNow)
			business.PATCH("/bookings/:id/status", bc.UpdateStatus)
			business.PATCH("/bookings/:id/payment", bc.UpdatePayment)
			business.GET("/availability", ac.GetByDay)
		}
	}

	return r
}
