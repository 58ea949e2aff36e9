package service

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/lead-router/internal/config"
	"github.com/spec-kit/lead-router/internal/events"
	"github.com/spec-kit/lead-router/internal/observability"
)

// NotificationService turns domain events into notification jobs on a redis
// list. The physical channel (SMS, call, email) is a downstream consumer's
// concern; the engine only decides who and when.
type NotificationService struct {
	dispatcher events.Dispatcher
	client     *redis.Client
	logger     *zap.Logger
	metrics    *observability.Metrics
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, client *redis.Client, logger *zap.Logger, metrics *observability.Metrics, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		client:     client,
		logger:     logger,
		metrics:    metrics,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventLeadAssigned, n.handleLeadAssigned)
	n.dispatcher.Subscribe(events.EventLeadEscalated, n.handleLeadEscalated)
	n.dispatcher.Subscribe(events.EventLeadContacted, n.handleLeadContacted)
}

func (n *NotificationService) handleLeadAssigned(ctx context.Context, event events.Event) error {
	n.logger.Info("LeadAssigned", zap.String("lead_id", event.LeadID), zap.Any("payload", event.Payload))
	return n.enqueue(ctx, event)
}

func (n *NotificationService) handleLeadEscalated(ctx context.Context, event events.Event) error {
	n.logger.Info("LeadEscalated", zap.String("lead_id", event.LeadID), zap.Any("payload", event.Payload))
	return n.enqueue(ctx, event)
}

func (n *NotificationService) handleLeadContacted(ctx context.Context, event events.Event) error {
	n.logger.Info("LeadContacted", zap.String("lead_id", event.LeadID))
	return nil
}

func (n *NotificationService) enqueue(ctx context.Context, event events.Event) error {
	if n.client == nil || n.cfg.QueueKey == "" {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.Error("marshal notification", zap.Error(err))
		return err
	}
	if err := n.client.LPush(ctx, n.cfg.QueueKey, payload).Err(); err != nil {
		n.logger.Warn("enqueue notification", zap.Error(err), zap.String("lead_id", event.LeadID))
		n.metrics.RecordOperation("notification_enqueue", false)
		return err
	}
	n.metrics.RecordOperation("notification_enqueue", true)
	return nil
}
