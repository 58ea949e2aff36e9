package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/lead-router/internal/repository"
)

// Enqueuer periodically fans an overdue scan task out per organization. It is
// the produce side of the scheduler; the Worker consumes.
type Enqueuer struct {
	client   *Client
	orgs     repository.OrganizationRepository
	interval time.Duration
	logger   *zap.Logger
}

// NewEnqueuer builds the periodic producer.
func NewEnqueuer(client *Client, orgs repository.OrganizationRepository, interval time.Duration, logger *zap.Logger) *Enqueuer {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Enqueuer{client: client, orgs: orgs, interval: interval, logger: logger}
}

// Run blocks until the context is cancelled, enqueuing one scan task per
// organization every interval. A failed tick is logged and retried on the
// next tick; scans are idempotent so missed or doubled ticks are harmless.
func (e *Enqueuer) Run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.tick(ctx)
		}
	}
}

func (e *Enqueuer) tick(ctx context.Context) {
	orgs, err := e.orgs.List(ctx)
	if err != nil {
		e.logger.Error("listing organizations for scan", zap.Error(err))
		return
	}

	for _, org := range orgs {
		payload := OverdueScanPayload{OrganizationID: org.ID}
		if err := e.client.EnqueueOverdueScan(ctx, payload); err != nil {
			e.logger.Error("enqueuing overdue scan",
				zap.String("organization_id", org.ID),
				zap.Error(err),
			)
		}
	}
}
