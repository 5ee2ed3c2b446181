package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/victusstore/backend/api/routes"
	"github.com/victusstore/backend/internal/accounts"
	"github.com/victusstore/backend/internal/cart"
	"github.com/victusstore/backend/internal/checkout"
	"github.com/victusstore/backend/internal/idempotency"
	"github.com/victusstore/backend/internal/orders"
	"github.com/victusstore/backend/pkg/config"
	"github.com/victusstore/backend/pkg/db"
	"github.com/victusstore/backend/pkg/logger"
	"github.com/victusstore/backend/pkg/metrics"
	"github.com/victusstore/backend/pkg/migrate"
	"github.com/victusstore/backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		_ = dbClient.Close()
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		_ = dbClient.Close()
		os.Exit(1)
	}
	// os.Exit skips defers, so failure paths below call this explicitly.
	closeResources := func() {
		if err := multierr.Combine(redisClient.Close(), dbClient.Close()); err != nil {
			logg.Error(context.Background(), "error closing resources", err)
		}
	}
	defer closeResources()

	registry := prometheus.NewRegistry()
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	idemService := idempotency.NewService(
		dbClient.DB(),
		idempotency.NewRepository(dbClient.DB()),
		cfg.Idempotency.TTL,
		logg,
	)
	guard, err := idempotency.NewGuard(
		redisClient,
		cfg.Idempotency.LockTTL,
		cfg.Idempotency.LockWait,
		cfg.Idempotency.LockWaitStep,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create idempotency guard", err)
		closeResources()
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(
		dbClient,
		cart.NewRepository(dbClient.DB()),
		accounts.NewRepository(dbClient.DB()),
		orders.NewRepository(dbClient.DB()),
		idemService,
		guard,
		checkoutMetrics,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		closeResources()
		os.Exit(1)
	}
	ordersService := orders.NewService(orders.NewRepository(dbClient.DB()))

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
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, registry, checkoutService, ordersService),
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			closeResources()
			os.Exit(1)
		}
	case <-runCtx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
	}

	logg.Info(ctx, "api server stopped")
}
