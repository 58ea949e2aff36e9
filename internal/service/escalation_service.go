package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/lead-router/internal/domain"
	"github.com/spec-kit/lead-router/internal/events"
	"github.com/spec-kit/lead-router/internal/repository"
	apperrors "github.com/spec-kit/lead-router/pkg/util"
)

// EscalationService detects breached leads and advances them through the
// organization's escalation ladder. It never reassigns by itself; reassignment
// is a separate, explicit Assign call.
type EscalationService struct {
	store      repository.Store
	dispatcher events.Dispatcher
	logger     *zap.Logger
	timeout    time.Duration
	maxTier    int
}

// EscalationDependencies bundles collaborators.
type EscalationDependencies struct {
	Store        repository.Store
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	StoreTimeout time.Duration
	MaxTier      int
}

// NewEscalationService creates the service.
func NewEscalationService(deps EscalationDependencies) *EscalationService {
	maxTier := deps.MaxTier
	if maxTier < 1 {
		maxTier = 1
	}
	return &EscalationService{
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		timeout:    deps.StoreTimeout,
		maxTier:    maxTier,
	}
}

// MaxTier is the top of the configured ladder.
func (s *EscalationService) MaxTier() int {
	return s.maxTier
}

// Escalate records an escalation at the given tier. The tier must be exactly
// one above the lead's current maximum; skipping or repeating a tier fails
// with InvalidTier, as does climbing past the configured maximum.
func (s *EscalationService) Escalate(ctx context.Context, leadID string, tier int, reason string) (*domain.Escalation, error) {
	ctx, cancel := opContext(ctx, s.timeout)
	defer cancel()

	var escalation *domain.Escalation
	var lead *domain.Lead
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		lead, err = tx.Leads().GetByID(ctx, leadID)
		if err != nil {
			return notFoundOr(err, "lead", map[string]any{"lead_id": leadID})
		}

		next, ok := domain.NextStatus(lead.Status, domain.EventEscalate)
		if !ok {
			return apperrors.NewInvalidTransition("lead cannot be escalated", map[string]any{
				"lead_id": leadID,
				"status":  lead.Status,
			})
		}

		currentMax, err := tx.Escalations().MaxTierByLead(ctx, leadID)
		if err != nil {
			return err
		}
		if tier != currentMax+1 {
			return apperrors.NewInvalidTier("tier must increase by exactly one", map[string]any{
				"lead_id":      leadID,
				"tier":         tier,
				"current_tier": currentMax,
			})
		}
		if tier > s.maxTier {
			return apperrors.NewInvalidTier("tier exceeds configured maximum", map[string]any{
				"lead_id":  leadID,
				"tier":     tier,
				"max_tier": s.maxTier,
			})
		}

		// Bump the lead first: a concurrent escalation then loses the
		// version check and surfaces as a conflict before it can trip
		// the unique (lead_id, tier) index.
		lead.Status = next
		if err := tx.Leads().Update(ctx, lead); err != nil {
			return leadWriteErr(err, lead.ID)
		}

		escalation = &domain.Escalation{
			LeadID: leadID,
			Tier:   tier,
			Reason: reason,
		}
		if err := tx.Escalations().Create(ctx, escalation); err != nil {
			return err
		}

		return tx.Events().Create(ctx, &domain.LeadEvent{
			LeadID:         lead.ID,
			OrganizationID: lead.OrganizationID,
			Type:           domain.LeadEventEscalated,
			Data: map[string]any{
				"tier":   tier,
				"reason": reason,
			},
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:             uuid.NewString(),
			Type:           events.EventLeadEscalated,
			LeadID:         lead.ID,
			OrganizationID: lead.OrganizationID,
			Timestamp:      time.Now(),
			Payload: events.LeadEscalatedPayload{
				Tier:   escalation.Tier,
				Reason: escalation.Reason,
			},
		})
	}
	return escalation, nil
}

// ListOverdue returns assigned/escalated leads in the organization whose SLA
// deadline has passed, most overdue first. Read-only; one consistent snapshot.
func (s *EscalationService) ListOverdue(ctx context.Context, orgID string) ([]domain.Lead, error) {
	if orgID == "" {
		return nil, apperrors.NewValidationError("organization id required", nil)
	}

	ctx, cancel := opContext(ctx, s.timeout)
	defer cancel()

	leads, err := s.store.Leads().ListOverdue(ctx, orgID, time.Now().UTC())
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return leads, nil
}
