package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hotel-booking-engine/config"
	"hotel-booking-engine/controllers"
	"hotel-booking-engine/metrics"
	"hotel-booking-engine/queue"
	"hotel-booking-engine/repository"
	"hotel-booking-engine/routes"
	"hotel-booking-engine/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := config.NewLogger(cfg.App.Env)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if cfg.Auth.JWTSecret == "" {
		log.Fatal("JWT_SECRET is not set")
	}
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.ConnectDatabase(cfg.DB, log)
	if err != nil {
		log.Fatal("database connect failed", zap.Error(err))
	}
	log.Info("database connection established")

	repo := repository.New(db)
	m := metrics.New(prometheus.DefaultRegisterer)

	var publisher services.EventPublisher = services.NoopPublisher{}
	if cfg.Events.Enabled {
		p := queue.NewPublisher(cfg.Events.RabbitMQURL, cfg.Events.Queue, log.Named("events"))
		defer func() { _ = p.Close() }()
		publisher = p
		log.Info("booking events enabled", zap.String("queue", cfg.Events.Queue))
	}

	opts := []services.Option{
		services.WithMetrics(m),
		services.WithEventPublisher(publisher),
		services.WithPendingExpiry(cfg.Booking.PendingExpiry),
		services.WithSweepBatchSize(cfg.Booking.SweepBatchSize),
	}
	bookingService := services.NewBookingService(repo, log.Named("booking"), opts...)
	expiryService := services.NewExpiryService(repo, log.Named("expiry"), opts...)
	inventoryService := services.NewInventoryService(repo, log.Named("inventory"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var scheduler *services.Scheduler
	if cfg.Booking.SweepEnabled {
		var locker services.SweepLocker
		if rdb := config.NewRedisClient(cfg.Redis, log); rdb != nil {
			defer func() { _ = rdb.Close() }()
			host, _ := os.Hostname()
			locker = services.NewRedisSweepLock(rdb, services.DefaultSweepLockKey, host)
		}
		scheduler = services.NewScheduler(expiryService, log.Named("sweeper"), cfg.Booking.SweepInterval, locker)
		scheduler.Start(ctx)
	}

	router := routes.SetupRouter(
		controllers.NewBookingController(bookingService, expiryService, log),
		controllers.NewAvailabilityController(inventoryService, log),
		routes.Options{
			JWTSecret:   cfg.Auth.JWTSecret,
			CORSOrigins: cfg.CORS.Origins,
			Log:         log.Named("http"),
		},
	)

	addr := ":" + cfg.App.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("shutdown signal received")

	if scheduler != nil {
		scheduler.Stop()
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("server stopped")
}
