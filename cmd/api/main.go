package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/bolekahq/boleka-backend/api/routes"
	"github.com/bolekahq/boleka-backend/internal/orders"
	"github.com/bolekahq/boleka-backend/internal/payments"
	"github.com/bolekahq/boleka-backend/internal/profiles"
	"github.com/bolekahq/boleka-backend/internal/users"
	"github.com/bolekahq/boleka-backend/internal/wallet"
	"github.com/bolekahq/boleka-backend/pkg/config"
	"github.com/bolekahq/boleka-backend/pkg/db"
	"github.com/bolekahq/boleka-backend/pkg/logger"
	"github.com/bolekahq/boleka-backend/pkg/metrics"
	"github.com/bolekahq/boleka-backend/pkg/migrate"
	"github.com/bolekahq/boleka-backend/pkg/redis"
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
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	walletMetrics := metrics.NewWalletMetrics(prometheus.DefaultRegisterer)

	walletService, err := wallet.NewService(wallet.ServiceDeps{
		Tx:       dbClient,
		Ledger:   wallet.NewRepository(dbClient.DB()),
		Payments: payments.NewRepository(dbClient.DB()),
		Orders:   orders.NewRepository(dbClient.DB()),
		Profiles: profiles.NewRepository(dbClient.DB()),
		Users:    users.NewRepository(dbClient.DB()),
		Config:   cfg.Wallet,
		Logger:   logg,
		Metrics:  walletMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create wallet service", err)
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
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, walletService),
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var closeErr error
		closeErr = multierr.Append(closeErr, server.Shutdown(shutdownCtx))
		closeErr = multierr.Append(closeErr, redisClient.Close())
		closeErr = multierr.Append(closeErr, dbClient.Close())
		if closeErr != nil {
			logg.Error(ctx, "shutdown completed with errors", closeErr)
			os.Exit(1)
		}
		logg.Info(ctx, "shutdown complete")
	}
}
