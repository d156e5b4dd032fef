package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/servio-app/servio-backend/api/routes"
	"github.com/servio-app/servio-backend/internal/assignments"
	"github.com/servio-app/servio-backend/internal/bookings"
	"github.com/servio-app/servio-backend/internal/catalog"
	"github.com/servio-app/servio-backend/internal/notifications"
	"github.com/servio-app/servio-backend/internal/vendors"
	"github.com/servio-app/servio-backend/pkg/config"
	"github.com/servio-app/servio-backend/pkg/db"
	"github.com/servio-app/servio-backend/pkg/logger"
	"github.com/servio-app/servio-backend/pkg/metrics"
	"github.com/servio-app/servio-backend/pkg/migrate"
	"github.com/servio-app/servio-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)
	dispatchMetrics := metrics.NewDispatchMetrics(registry)

	notificationsRepo := notifications.NewRepository(dbClient.DB())
	var senders []notifications.Sender
	if push := notifications.NewPushSender(cfg.Notify); push != nil {
		senders = append(senders, push)
	}
	if email := notifications.NewEmailSender(cfg.Notify); email != nil {
		senders = append(senders, email)
	}
	dispatcher, err := notifications.NewDispatcher(notificationsRepo, logg, dispatchMetrics, cfg.Notify.DispatchTimeout, senders...)
	if err != nil {
		logg.Error(context.Background(), "failed to create dispatcher", err)
		os.Exit(1)
	}

	vendorsRepo := vendors.NewRepository(dbClient.DB())
	catalogRepo := catalog.NewRepository(dbClient.DB())

	catalogService, err := catalog.NewService(catalogRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	vendorsService, err := vendors.NewService(vendorsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create vendors service", err)
		os.Exit(1)
	}

	assignmentsService, err := assignments.NewService(
		assignments.NewRepository(dbClient.DB()),
		vendorsRepo,
		catalogRepo,
		dbClient,
		dispatcher,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create assignments service", err)
		os.Exit(1)
	}

	bookingsService, err := bookings.NewService(
		bookings.NewRepository(dbClient.DB()),
		vendorsRepo,
		dbClient,
		dispatcher,
		cfg.Booking.StartWindow,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create bookings service", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notificationsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.New(routes.Deps{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			Idempotency:   redisClient,
			HTTPMetrics:   httpMetrics,
			Registry:      registry,
			Catalog:       catalogService,
			Vendors:       vendorsService,
			Assignments:   assignmentsService,
			Bookings:      bookingsService,
			Notifications: notificationsService,
		}),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
		// let in-flight notification fan-out finish before the process exits
		dispatcher.Wait()
	}
}
