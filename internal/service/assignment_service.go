package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/lead-router/internal/domain"
	"github.com/spec-kit/lead-router/internal/events"
	"github.com/spec-kit/lead-router/internal/repository"
	apperrors "github.com/spec-kit/lead-router/pkg/util"
)

// SelectionPolicy ranks eligible agents by assignment preference, most
// preferred first. Policies must not mutate agent state; the claim loop
// handles contention.
type SelectionPolicy func(candidates []domain.Agent) []domain.Agent

// LeastLoaded prefers the agent with the fewest open assignments, ties broken
// by longest time since last assignment (never-assigned first), then by id.
func LeastLoaded(candidates []domain.Agent) []domain.Agent {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.OpenAssignments != b.OpenAssignments {
			return a.OpenAssignments < b.OpenAssignments
		}
		switch {
		case a.LastAssignedAt == nil && b.LastAssignedAt != nil:
			return true
		case a.LastAssignedAt != nil && b.LastAssignedAt == nil:
			return false
		case a.LastAssignedAt != nil && b.LastAssignedAt != nil && !a.LastAssignedAt.Equal(*b.LastAssignedAt):
			return a.LastAssignedAt.Before(*b.LastAssignedAt)
		}
		return a.ID < b.ID
	})
	return candidates
}

// AssignmentService selects an agent for a lead and owns everything that has
// to happen atomically around that choice: the assignment row, the agent
// counter, the SLA deadline, the lifecycle transition, and the audit event.
type AssignmentService struct {
	store      repository.Store
	clock      *SLAClock
	dispatcher events.Dispatcher
	logger     *zap.Logger
	timeout    time.Duration
	policy     SelectionPolicy
}

// AssignmentDependencies bundles collaborators.
type AssignmentDependencies struct {
	Store        repository.Store
	Clock        *SLAClock
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	StoreTimeout time.Duration
	// Policy overrides candidate ranking; nil means LeastLoaded.
	Policy SelectionPolicy
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	policy := deps.Policy
	if policy == nil {
		policy = LeastLoaded
	}
	return &AssignmentService{
		store:      deps.Store,
		clock:      deps.Clock,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		timeout:    deps.StoreTimeout,
		policy:     policy,
	}
}

// AssignResult is the outcome of a successful assignment.
type AssignResult struct {
	Lead       *domain.Lead
	Agent      *domain.Agent
	Assignment *domain.Assignment
}

// Assign picks the least-loaded eligible agent in the lead's organization,
// ties broken by the longest time since that agent's last assignment, then by
// agent id. An empty candidate pool is a legitimate NotFound outcome, not an
// error; the lead is left untouched so callers can retry later.
func (s *AssignmentService) Assign(ctx context.Context, leadID string) (*AssignResult, error) {
	ctx, cancel := opContext(ctx, s.timeout)
	defer cancel()

	var result AssignResult
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		lead, err := tx.Leads().GetByID(ctx, leadID)
		if err != nil {
			return notFoundOr(err, "lead", map[string]any{"lead_id": leadID})
		}

		next, ok := domain.NextStatus(lead.Status, domain.EventAssign)
		if !ok {
			if lead.Status == domain.LeadStatusAssigned {
				return apperrors.NewConflict("lead already assigned", map[string]any{"lead_id": leadID})
			}
			return apperrors.NewInvalidTransition("lead cannot be assigned", map[string]any{
				"lead_id": leadID,
				"status":  lead.Status,
			})
		}

		candidates, err := tx.Agents().ListEligible(ctx, lead.OrganizationID)
		if err != nil {
			return err
		}
		if len(candidates) == 0 {
			return apperrors.NewNotFound("available agent", map[string]any{"organization_id": lead.OrganizationID})
		}

		now := time.Now().UTC()
		candidates = s.policy(candidates)

		// The conditional claim guards against another assignment racing us
		// to the same agent.
		var chosen *domain.Agent
		for i := range candidates {
			claimed, err := tx.Agents().ClaimSlot(ctx, candidates[i].ID, now)
			if err != nil {
				return err
			}
			if claimed {
				chosen = &candidates[i]
				break
			}
		}
		if chosen == nil {
			return apperrors.NewNotFound("available agent", map[string]any{"organization_id": lead.OrganizationID})
		}
		chosen.OpenAssignments++
		chosen.LastAssignedAt = &now

		reassignment := lead.Status == domain.LeadStatusEscalated
		if reassignment {
			previous, err := tx.Assignments().ActiveByLead(ctx, lead.ID)
			if err != nil && !errors.Is(err, pgx.ErrNoRows) {
				return err
			}
			if err == nil {
				if err := tx.Assignments().Release(ctx, lead.ID, now); err != nil {
					return err
				}
				if err := tx.Agents().ReleaseSlot(ctx, previous.AgentID); err != nil {
					return err
				}
			}
		}

		deadline := s.clock.ComputeDeadline(lead.Temperature, now)
		lead.Status = next
		lead.SLADeadline = &deadline
		if err := tx.Leads().Update(ctx, lead); err != nil {
			return leadWriteErr(err, lead.ID)
		}

		assignment := &domain.Assignment{
			LeadID:      lead.ID,
			AgentID:     chosen.ID,
			AssignedAt:  now,
			SLADeadline: deadline,
		}
		if err := tx.Assignments().Create(ctx, assignment); err != nil {
			return err
		}

		if err := tx.Events().Create(ctx, &domain.LeadEvent{
			LeadID:         lead.ID,
			OrganizationID: lead.OrganizationID,
			Type:           domain.LeadEventAssigned,
			Data: map[string]any{
				"agent_id":     chosen.ID,
				"sla_deadline": deadline.Format(time.RFC3339),
				"reassignment": reassignment,
			},
		}); err != nil {
			return err
		}

		result = AssignResult{Lead: lead, Agent: chosen, Assignment: assignment}
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishAssigned(ctx, &result)
	return &result, nil
}

func (s *AssignmentService) publishAssigned(ctx context.Context, result *AssignResult) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:             uuid.NewString(),
		Type:           events.EventLeadAssigned,
		LeadID:         result.Lead.ID,
		OrganizationID: result.Lead.OrganizationID,
		Timestamp:      time.Now(),
		Payload: events.LeadAssignedPayload{
			AgentID:      result.Agent.ID,
			AgentName:    result.Agent.Name,
			AgentEmail:   result.Agent.Email,
			AgentPhone:   result.Agent.Phone,
			SLADeadline:  result.Assignment.SLADeadline,
			Reassignment: result.Lead.Status == domain.LeadStatusEscalated,
		},
	}
	_ = s.dispatcher.Publish(ctx, event)
}
