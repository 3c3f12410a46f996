package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"schedulesync/core/cache"
	"schedulesync/core/config"
	"schedulesync/core/database"
	"schedulesync/core/logger"
	"schedulesync/core/middleware"
	"schedulesync/core/worker"
	"schedulesync/migrations"
	"schedulesync/modules/auth"
	"schedulesync/modules/availability"
	"schedulesync/modules/booking"
	"schedulesync/modules/calendar"
	"schedulesync/modules/notification"
)

// Run boots the HTTP server, the background worker and the reconcile
// scheduler, and blocks until SIGINT/SIGTERM.
func Run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.LogLevel)

	db, err := database.InitDB(database.DatabaseConfig{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		return err
	}
	dbh := &db

	if err := migrations.Up(dbh.SQLx().DB); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	redisCache, err := cache.NewCache(cache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer redisCache.Close()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.Logger())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
	}))

	mw := middleware.NewMiddleware(redisCache)

	workerClient := worker.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer workerClient.Close()

	calendarSvc := calendar.Init(e, dbh, mw)
	authSvc := auth.Init(e, dbh, redisCache, mw, calendarSvc)
	slotStore := availability.Init(e, dbh, mw, calendarSvc, authSvc)
	notifSvc := notification.Init(e, dbh, mw)

	reconcileGrace := time.Duration(cfg.Booking.ReconcileGraceMinute) * time.Minute
	reconciler := booking.Init(e, dbh, mw, slotStore, authSvc, calendarSvc, notifSvc, workerClient, reconcileGrace)

	workerServer := worker.NewServer(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	workerServer.Handle(worker.TypeBookingConfirmedEmail, handleBookingConfirmedEmail)
	workerServer.Handle(worker.TypeBookingReconcile, func(ctx context.Context, _ *asynq.Task) error {
		return reconciler.Run(ctx)
	})
	if err := workerServer.Schedule(cfg.Booking.ReconcileCron, worker.TypeBookingReconcile); err != nil {
		return fmt.Errorf("schedule reconcile: %w", err)
	}
	workerServer.Start()

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Error("Server:Start:Error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Server:Shutdown:Begin")
	workerServer.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	logger.Info("Server:Shutdown:Done")
	return nil
}
