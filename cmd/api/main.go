package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/lead-router/internal/api/http"
	"github.com/spec-kit/lead-router/internal/api/http/handlers"
	"github.com/spec-kit/lead-router/internal/auth"
	"github.com/spec-kit/lead-router/internal/config"
	"github.com/spec-kit/lead-router/internal/events"
	"github.com/spec-kit/lead-router/internal/observability"
	"github.com/spec-kit/lead-router/internal/persistence"
	"github.com/spec-kit/lead-router/internal/repository"
	"github.com/spec-kit/lead-router/internal/service"
	"github.com/spec-kit/lead-router/internal/worker"
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

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	store := repository.NewStore(pg.PoolHandle())
	clock := service.NewSLAClock(cfg.SLA)
	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()
	storeTimeout := cfg.Postgres.StoreTimeout()

	leadService := service.NewLeadService(service.LeadDependencies{
		Store:        store,
		Clock:        clock,
		Dispatcher:   dispatcher,
		Logger:       logger,
		StoreTimeout: storeTimeout,
	})
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		Store:        store,
		Clock:        clock,
		Dispatcher:   dispatcher,
		Logger:       logger,
		StoreTimeout: storeTimeout,
	})
	escalationService := service.NewEscalationService(service.EscalationDependencies{
		Store:        store,
		Dispatcher:   dispatcher,
		Logger:       logger,
		StoreTimeout: storeTimeout,
		MaxTier:      cfg.Scheduler.MaxTier,
	})
	statsService := service.NewStatsService(store, storeTimeout)
	agentService := service.NewAgentService(store, storeTimeout, cfg.Assignment.DefaultAgentCapacity)

	notificationService := service.NewNotificationService(dispatcher, redis.Client, logger, metrics, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokens, store.Organizations())

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Leads:          handlers.NewLeadsHandler(leadService, assignmentService, escalationService, statsService),
		Agents:         handlers.NewAgentsHandler(agentService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
