package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/nyaruka/phonenumbers"
	"go.uber.org/zap"

	"github.com/spec-kit/lead-router/internal/domain"
	"github.com/spec-kit/lead-router/internal/events"
	"github.com/spec-kit/lead-router/internal/repository"
	apperrors "github.com/spec-kit/lead-router/pkg/util"
)

const phoneDefaultRegion = "US"

// LeadService handles lead intake and the contact/close lifecycle events.
type LeadService struct {
	store      repository.Store
	clock      *SLAClock
	dispatcher events.Dispatcher
	logger     *zap.Logger
	timeout    time.Duration
}

// LeadDependencies bundles collaborators.
type LeadDependencies struct {
	Store        repository.Store
	Clock        *SLAClock
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	StoreTimeout time.Duration
}

// NewLeadService constructs the service.
func NewLeadService(deps LeadDependencies) *LeadService {
	return &LeadService{
		store:      deps.Store,
		clock:      deps.Clock,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		timeout:    deps.StoreTimeout,
	}
}

// IntakeInput describes a new lead arriving from a webhook or operator.
type IntakeInput struct {
	FirstName   string
	LastName    string
	Email       string
	Phone       string
	Source      string
	Temperature domain.Temperature
	CRMRef      string
	RawPayload  map[string]any
}

// Intake validates and persists a new lead in pending_assignment, recording a
// created event in the same transaction.
func (s *LeadService) Intake(ctx context.Context, orgID string, input IntakeInput) (*domain.Lead, error) {
	if strings.TrimSpace(orgID) == "" {
		return nil, apperrors.NewValidationError("organization id required", nil)
	}
	email := strings.TrimSpace(input.Email)
	phone := normalizePhone(input.Phone)
	temperature := input.Temperature
	if temperature == "" {
		temperature = domain.TemperatureWarm
	}
	if !domain.ValidTemperature(temperature) {
		return nil, apperrors.NewValidationError("unknown temperature", map[string]any{"temperature": temperature})
	}

	ctx, cancel := opContext(ctx, s.timeout)
	defer cancel()

	lead := &domain.Lead{
		OrganizationID: orgID,
		FirstName:      strings.TrimSpace(input.FirstName),
		LastName:       strings.TrimSpace(input.LastName),
		Source:         strings.TrimSpace(input.Source),
		Temperature:    temperature,
		RawPayload:     input.RawPayload,
		Status:         domain.InitialStatus(),
	}
	if email != "" {
		lead.Email = &email
	}
	if phone != "" {
		lead.Phone = &phone
	}
	if ref := strings.TrimSpace(input.CRMRef); ref != "" {
		lead.CRMRef = &ref
	}
	if !lead.HasContactChannel() {
		return nil, apperrors.NewValidationError("at least one of email or phone required", nil)
	}

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Organizations().GetByID(ctx, orgID); err != nil {
			return notFoundOr(err, "organization", map[string]any{"organization_id": orgID})
		}
		if err := tx.Leads().Create(ctx, lead); err != nil {
			return err
		}
		return tx.Events().Create(ctx, &domain.LeadEvent{
			LeadID:         lead.ID,
			OrganizationID: lead.OrganizationID,
			Type:           domain.LeadEventCreated,
			Data: map[string]any{
				"source":      lead.Source,
				"temperature": lead.Temperature,
			},
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.EventLeadCreated, lead, events.LeadCreatedPayload{
		Source:      lead.Source,
		Temperature: lead.Temperature,
	})
	return lead, nil
}

// ContactResult is the outcome of marking a lead contacted.
type ContactResult struct {
	Lead        *domain.Lead
	ContactedAt time.Time
}

// MarkContacted transitions an assigned or escalated lead to contacted,
// derives the response time, releases the active assignment, and frees the
// agent's slot. A negative response time fails closed: null is stored and a
// warning logged.
func (s *LeadService) MarkContacted(ctx context.Context, leadID string) (*ContactResult, error) {
	ctx, cancel := opContext(ctx, s.timeout)
	defer cancel()

	now := time.Now().UTC()
	var result ContactResult
	var payload events.LeadContactedPayload
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		lead, err := tx.Leads().GetByID(ctx, leadID)
		if err != nil {
			return notFoundOr(err, "lead", map[string]any{"lead_id": leadID})
		}

		next, ok := domain.NextStatus(lead.Status, domain.EventContact)
		if !ok {
			return apperrors.NewInvalidTransition("lead cannot be marked contacted", map[string]any{
				"lead_id": leadID,
				"status":  lead.Status,
			})
		}

		assignment, err := tx.Assignments().ActiveByLead(ctx, lead.ID)
		if err != nil {
			return notFoundOr(err, "active assignment", map[string]any{"lead_id": leadID})
		}

		if seconds, ok := s.clock.ResponseSeconds(assignment.AssignedAt, now); ok {
			lead.ResponseTimeSeconds = &seconds
		} else {
			lead.ResponseTimeSeconds = nil
			s.logger.Warn("negative response time; recording null",
				zap.String("lead_id", lead.ID),
				zap.Time("assigned_at", assignment.AssignedAt),
				zap.Time("contacted_at", now),
			)
		}

		lead.Status = next
		if err := tx.Leads().Update(ctx, lead); err != nil {
			return leadWriteErr(err, lead.ID)
		}
		if err := tx.Assignments().Release(ctx, lead.ID, now); err != nil {
			return err
		}
		if err := tx.Agents().ReleaseSlot(ctx, assignment.AgentID); err != nil {
			return err
		}

		data := map[string]any{"agent_id": assignment.AgentID}
		if lead.ResponseTimeSeconds != nil {
			data["response_time_seconds"] = *lead.ResponseTimeSeconds
		}
		if err := tx.Events().Create(ctx, &domain.LeadEvent{
			LeadID:         lead.ID,
			OrganizationID: lead.OrganizationID,
			Type:           domain.LeadEventContacted,
			Data:           data,
		}); err != nil {
			return err
		}

		payload = events.LeadContactedPayload{
			AgentID:             assignment.AgentID,
			ResponseTimeSeconds: lead.ResponseTimeSeconds,
		}
		result = ContactResult{Lead: lead, ContactedAt: now}
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.EventLeadContacted, result.Lead, payload)
	return &result, nil
}

// Close moves a non-terminal lead to closed. The close action is driven from
// outside the engine; the state machine still has to accept it.
func (s *LeadService) Close(ctx context.Context, leadID string) (*domain.Lead, error) {
	ctx, cancel := opContext(ctx, s.timeout)
	defer cancel()

	now := time.Now().UTC()
	var closed *domain.Lead
	var payload events.LeadClosedPayload
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		lead, err := tx.Leads().GetByID(ctx, leadID)
		if err != nil {
			return notFoundOr(err, "lead", map[string]any{"lead_id": leadID})
		}

		next, ok := domain.NextStatus(lead.Status, domain.EventClose)
		if !ok {
			return apperrors.NewInvalidTransition("lead cannot be closed", map[string]any{
				"lead_id": leadID,
				"status":  lead.Status,
			})
		}
		previous := lead.Status

		assignment, err := tx.Assignments().ActiveByLead(ctx, lead.ID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		if err == nil {
			if err := tx.Assignments().Release(ctx, lead.ID, now); err != nil {
				return err
			}
			if err := tx.Agents().ReleaseSlot(ctx, assignment.AgentID); err != nil {
				return err
			}
		}

		lead.Status = next
		if err := tx.Leads().Update(ctx, lead); err != nil {
			return leadWriteErr(err, lead.ID)
		}
		if err := tx.Events().Create(ctx, &domain.LeadEvent{
			LeadID:         lead.ID,
			OrganizationID: lead.OrganizationID,
			Type:           domain.LeadEventClosed,
			Data:           map[string]any{"previous_status": previous},
		}); err != nil {
			return err
		}

		payload = events.LeadClosedPayload{PreviousStatus: previous}
		closed = lead
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.EventLeadClosed, closed, payload)
	return closed, nil
}

// ListInput narrows a lead listing.
type ListInput struct {
	Statuses []domain.LeadStatus
	Limit    int
	Offset   int
}

// List returns an organization's leads, optionally filtered by status.
func (s *LeadService) List(ctx context.Context, orgID string, input ListInput) ([]domain.Lead, error) {
	if strings.TrimSpace(orgID) == "" {
		return nil, apperrors.NewValidationError("organization id required", nil)
	}
	for _, status := range input.Statuses {
		if !domain.ValidStatus(status) {
			return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": status})
		}
	}
	if input.Limit < 0 || input.Offset < 0 {
		return nil, apperrors.NewValidationError("limit and offset must be non-negative", nil)
	}

	ctx, cancel := opContext(ctx, s.timeout)
	defer cancel()

	leads, err := s.store.Leads().ListWithFilter(ctx, repository.LeadFilter{
		OrganizationID: &orgID,
		Statuses:       input.Statuses,
		Limit:          input.Limit,
		Offset:         input.Offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return leads, nil
}

// TimelineResult is a lead's full history: the audit trail plus every
// assignment and escalation, each oldest first.
type TimelineResult struct {
	Events      []domain.LeadEvent
	Assignments []domain.Assignment
	Escalations []domain.Escalation
}

// Timeline returns the history for a lead.
func (s *LeadService) Timeline(ctx context.Context, leadID string) (*TimelineResult, error) {
	ctx, cancel := opContext(ctx, s.timeout)
	defer cancel()

	if _, err := s.store.Leads().GetByID(ctx, leadID); err != nil {
		return nil, apperrors.MapError(notFoundOr(err, "lead", map[string]any{"lead_id": leadID}))
	}
	var result TimelineResult
	var err error
	if result.Events, err = s.store.Events().ListByLead(ctx, leadID); err != nil {
		return nil, apperrors.MapError(err)
	}
	if result.Assignments, err = s.store.Assignments().ListByLead(ctx, leadID); err != nil {
		return nil, apperrors.MapError(err)
	}
	if result.Escalations, err = s.store.Escalations().ListByLead(ctx, leadID); err != nil {
		return nil, apperrors.MapError(err)
	}
	return &result, nil
}

func (s *LeadService) publish(ctx context.Context, eventType events.EventType, lead *domain.Lead, payload any) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:             uuid.NewString(),
		Type:           eventType,
		LeadID:         lead.ID,
		OrganizationID: lead.OrganizationID,
		Timestamp:      time.Now(),
		Payload:        payload,
	})
}

// normalizePhone formats a phone number to E.164 when it parses; otherwise the
// trimmed input is kept verbatim.
func normalizePhone(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}
	number, err := phonenumbers.Parse(trimmed, phoneDefaultRegion)
	if err != nil {
		return trimmed
	}
	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}
