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
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/sajidhasan/fieldorder/api/routes"
	"github.com/sajidhasan/fieldorder/internal/auth"
	"github.com/sajidhasan/fieldorder/internal/cart"
	"github.com/sajidhasan/fieldorder/internal/customers"
	"github.com/sajidhasan/fieldorder/internal/orderqueue"
	"github.com/sajidhasan/fieldorder/pkg/config"
	"github.com/sajidhasan/fieldorder/pkg/db"
	"github.com/sajidhasan/fieldorder/pkg/db/models"
	"github.com/sajidhasan/fieldorder/pkg/kv"
	"github.com/sajidhasan/fieldorder/pkg/logger"
	"github.com/sajidhasan/fieldorder/pkg/metrics"
	"github.com/sajidhasan/fieldorder/pkg/remote"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "fieldorder"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "fieldorder",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to open customer cache database", err)
		os.Exit(1)
	}
	if cfg.DB.AutoMigrate {
		if err := dbClient.AutoMigrate(&models.CustomerRecord{}); err != nil {
			logg.Error(ctx, "failed to migrate customer cache", err)
			os.Exit(1)
		}
	}

	kvStore, err := kv.New(ctx, cfg.KV, logg)
	if err != nil {
		logg.Error(ctx, "failed to open key-value store", err)
		os.Exit(1)
	}

	remoteClient, err := remote.NewClient(cfg.Remote, logg)
	if err != nil {
		logg.Error(ctx, "failed to build remote client", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		KV:       kvStore,
		Remote:   remoteClient,
		Password: cfg.Password,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create session manager", err)
		os.Exit(1)
	}
	remoteClient.UseTokenSource(authService)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	coreMetrics := metrics.NewCoreMetrics(registry)

	queueService, err := orderqueue.NewService(orderqueue.ServiceParams{
		KV:      kvStore,
		Sender:  remoteClient,
		Metrics: coreMetrics,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create order queue", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(ctx, cart.ServiceParams{
		KV:     kvStore,
		Queue:  queueService,
		Logger: logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create cart manager", err)
		os.Exit(1)
	}

	customerService, err := customers.NewService(customers.ServiceParams{
		Repo:     customers.NewRepository(dbClient.DB()),
		Tx:       dbClient,
		Remote:   remoteClient,
		PageSize: cfg.Sync.PageSize,
		Metrics:  coreMetrics,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create customer sync engine", err)
		os.Exit(1)
	}

	router := routes.NewRouter(routes.Deps{
		Config:        cfg,
		Logger:        logg,
		Registry:      registry,
		DB:            dbClient,
		KV:            kvStore,
		Remote:        remoteClient,
		Session:       authService,
		Cart:          cartService,
		Queue:         queueService,
		CustomerCache: customerService,
		Customers:     remoteClient,
		Items:         remoteClient,
		Who:           authService,
		SearchLimit:   cfg.Remote.SearchLimit,
	})

	// The daemon only serves the shell on the same device.
	addr := "127.0.0.1:" + cfg.App.Port
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	lctx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(lctx, "starting fieldorder daemon")

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(lctx, "daemon stopped unexpectedly", err)
		}
	case <-ctx.Done():
		logg.Info(lctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(lctx, "graceful shutdown failed", err)
		}
	}

	closeErr := multierr.Combine(
		kvStore.Close(),
		dbClient.Close(),
	)
	if closeErr != nil {
		logg.Error(lctx, "error closing local stores", closeErr)
		os.Exit(1)
	}
	logg.Info(lctx, "daemon stopped")
}
