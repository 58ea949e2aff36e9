package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/spec-kit/lead-router/internal/config"
	"github.com/spec-kit/lead-router/internal/observability"
	"github.com/spec-kit/lead-router/internal/persistence"
	"github.com/spec-kit/lead-router/internal/repository"
	"github.com/spec-kit/lead-router/internal/scheduler"
	"github.com/spec-kit/lead-router/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	store := repository.NewStore(pg.PoolHandle())
	escalationService := service.NewEscalationService(service.EscalationDependencies{
		Store:        store,
		Logger:       logger,
		StoreTimeout: cfg.Postgres.StoreTimeout(),
		MaxTier:      cfg.Scheduler.MaxTier,
	})

	client := scheduler.NewClient(cfg.Redis, cfg.Scheduler.Queue)
	defer client.Close() //nolint:errcheck

	enqueuer := scheduler.NewEnqueuer(client, store.Organizations(), cfg.Scheduler.ScanInterval, logger)
	go enqueuer.Run(ctx)

	metrics := observability.NewMetrics()
	schedWorker := scheduler.NewWorker(cfg.Scheduler, cfg.Redis, store, escalationService, logger, metrics)
	go schedWorker.Run(ctx)

	logger.Info("scheduler started",
		zap.Duration("scan_interval", cfg.Scheduler.ScanInterval),
		zap.Int("max_tier", cfg.Scheduler.MaxTier),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
	cancel()
}
