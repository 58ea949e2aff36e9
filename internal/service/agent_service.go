package service

import (
	"context"
	"strings"
	"time"

	"github.com/spec-kit/lead-router/internal/domain"
	"github.com/spec-kit/lead-router/internal/repository"
	apperrors "github.com/spec-kit/lead-router/pkg/util"
)

// AgentService exposes the agent surface around the engine: provisioning,
// listing, and the external availability toggle.
type AgentService struct {
	store           repository.Store
	timeout         time.Duration
	defaultCapacity int
}

// NewAgentService constructs the service.
func NewAgentService(store repository.Store, storeTimeout time.Duration, defaultCapacity int) *AgentService {
	if defaultCapacity < 1 {
		defaultCapacity = 1
	}
	return &AgentService{store: store, timeout: storeTimeout, defaultCapacity: defaultCapacity}
}

// AgentCreateInput describes a new agent to provision.
type AgentCreateInput struct {
	Name     string
	Email    string
	Phone    string
	Capacity *int
}

// Create provisions an agent in the organization. Capacity falls back to the
// operator-configured default when not supplied. New agents start available
// with zero open assignments.
func (s *AgentService) Create(ctx context.Context, orgID string, input AgentCreateInput) (*domain.Agent, error) {
	if orgID == "" {
		return nil, apperrors.NewValidationError("organization id required", nil)
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("agent name required", nil)
	}
	capacity := s.defaultCapacity
	if input.Capacity != nil {
		if *input.Capacity < 1 {
			return nil, apperrors.NewValidationError("capacity must be at least 1", map[string]any{"capacity": *input.Capacity})
		}
		capacity = *input.Capacity
	}

	ctx, cancel := opContext(ctx, s.timeout)
	defer cancel()

	agent := &domain.Agent{
		OrganizationID: orgID,
		Name:           name,
		Available:      true,
		Capacity:       capacity,
	}
	if email := strings.TrimSpace(input.Email); email != "" {
		agent.Email = &email
	}
	if phone := normalizePhone(input.Phone); phone != "" {
		agent.Phone = &phone
	}

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Organizations().GetByID(ctx, orgID); err != nil {
			return notFoundOr(err, "organization", map[string]any{"organization_id": orgID})
		}
		return tx.Agents().Create(ctx, agent)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return agent, nil
}

// ListByOrganization returns all agents in the organization.
func (s *AgentService) ListByOrganization(ctx context.Context, orgID string) ([]domain.Agent, error) {
	if orgID == "" {
		return nil, apperrors.NewValidationError("organization id required", nil)
	}

	ctx, cancel := opContext(ctx, s.timeout)
	defer cancel()

	agents, err := s.store.Agents().ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return agents, nil
}

// SetAvailability flips an agent's availability flag.
func (s *AgentService) SetAvailability(ctx context.Context, agentID string, available bool) (*domain.Agent, error) {
	ctx, cancel := opContext(ctx, s.timeout)
	defer cancel()

	if err := s.store.Agents().SetAvailability(ctx, agentID, available); err != nil {
		return nil, apperrors.MapError(notFoundOr(err, "agent", map[string]any{"agent_id": agentID}))
	}
	agent, err := s.store.Agents().GetByID(ctx, agentID)
	if err != nil {
		return nil, apperrors.MapError(notFoundOr(err, "agent", map[string]any{"agent_id": agentID}))
	}
	return agent, nil
}
