package scheduler

import (
	"context"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/lead-router/internal/config"
	"github.com/spec-kit/lead-router/internal/observability"
	"github.com/spec-kit/lead-router/internal/repository"
	"github.com/spec-kit/lead-router/internal/service"
	apperrors "github.com/spec-kit/lead-router/pkg/util"
)

// Worker consumes overdue scan tasks and escalates breached leads. Each task
// covers one organization; leads within a task are escalated in parallel up to
// the configured limit.
type Worker struct {
	server      *asynq.Server
	mux         *asynq.ServeMux
	store       repository.Store
	escalations *service.EscalationService
	logger      *zap.Logger
	metrics     *observability.Metrics
	parallelism int
}

// NewWorker builds the consumer side of the scheduler.
func NewWorker(cfg config.SchedulerConfig, redisCfg config.RedisConfig, store repository.Store, escalations *service.EscalationService, logger *zap.Logger, metrics *observability.Metrics) *Worker {
	queue := cfg.Queue
	if queue == "" {
		queue = "default"
	}
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 10
	}
	parallelism := cfg.ScanParallelism
	if parallelism < 1 {
		parallelism = 1
	}

	server := asynq.NewServer(redisClientOpt(redisCfg), asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:      server,
		mux:         mux,
		store:       store,
		escalations: escalations,
		logger:      logger,
		metrics:     metrics,
		parallelism: parallelism,
	}
	mux.HandleFunc(TaskOverdueScan, w.handleOverdueScan)
	return w
}

// Run blocks until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.logger.Error("scheduler worker stopped", zap.Error(err))
	}
}

// handleOverdueScan escalates every breached lead in the organization by one
// tier. Races with operators and other scans surface as Conflict or
// InvalidTier; both mean someone else already acted, so the lead is skipped
// rather than retried.
func (w *Worker) handleOverdueScan(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseOverdueScanPayload(task)
	if err != nil {
		return err
	}

	leads, err := w.escalations.ListOverdue(ctx, payload.OrganizationID)
	if err != nil {
		return err
	}
	if len(leads) == 0 {
		return nil
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(w.parallelism)
	for _, lead := range leads {
		lead := lead
		group.Go(func() error {
			return w.escalateLead(groupCtx, lead.ID)
		})
	}
	if err := group.Wait(); err != nil {
		w.metrics.RecordOperation("overdue_scan", false)
		return err
	}
	w.metrics.RecordOperation("overdue_scan", true)

	w.logger.Info("overdue scan complete",
		zap.String("organization_id", payload.OrganizationID),
		zap.Int("overdue_leads", len(leads)),
	)
	return nil
}

func (w *Worker) escalateLead(ctx context.Context, leadID string) error {
	currentTier, err := w.store.Escalations().MaxTierByLead(ctx, leadID)
	if err != nil {
		return err
	}
	if currentTier >= w.escalations.MaxTier() {
		w.logger.Debug("lead at top tier; leaving for operators",
			zap.String("lead_id", leadID),
			zap.Int("tier", currentTier),
		)
		return nil
	}

	_, err = w.escalations.Escalate(ctx, leadID, currentTier+1, "sla deadline breached")
	switch {
	case err == nil:
		w.metrics.RecordOperation("auto_escalation", true)
		return nil
	case apperrors.IsCode(err, "CONFLICT"),
		apperrors.IsCode(err, "INVALID_TIER"),
		apperrors.IsCode(err, "INVALID_TRANSITION"),
		apperrors.IsCode(err, "NOT_FOUND"):
		// Another scan or an operator got there first.
		w.logger.Debug("skipping lead during scan", zap.String("lead_id", leadID), zap.Error(err))
		return nil
	default:
		w.metrics.RecordOperation("auto_escalation", false)
		return err
	}
}
