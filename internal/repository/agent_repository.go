package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/lead-router/internal/domain"
)

// AgentRepository handles persistence for agents. The open-assignment counter
// is only ever moved through ClaimSlot/ReleaseSlot so the read-modify-write
// stays inside a single conditional statement.
type AgentRepository interface {
	Create(ctx context.Context, agent *domain.Agent) error
	GetByID(ctx context.Context, id string) (*domain.Agent, error)
	ListByOrganization(ctx context.Context, orgID string) ([]domain.Agent, error)
	// ListEligible returns available agents with spare capacity, ordered
	// least-loaded first, then by oldest last assignment, then by id.
	ListEligible(ctx context.Context, orgID string) ([]domain.Agent, error)
	// ClaimSlot atomically increments the open-assignment counter when the
	// agent is still available and under capacity. Returns false when the
	// claim lost a race or the agent no longer qualifies.
	ClaimSlot(ctx context.Context, agentID string, at time.Time) (bool, error)
	// ReleaseSlot decrements the open-assignment counter.
	ReleaseSlot(ctx context.Context, agentID string) error
	SetAvailability(ctx context.Context, agentID string, available bool) error
}

type agentRepository struct {
	db Querier
}

// NewAgentRepository instantiates the repository.
func NewAgentRepository(db Querier) AgentRepository {
	return &agentRepository{db: db}
}

func (r *agentRepository) Create(ctx context.Context, agent *domain.Agent) error {
	const query = `
        INSERT INTO agents (organization_id, name, email, phone, available_flag, capacity)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at`

	return r.db.QueryRow(ctx, query,
		agent.OrganizationID,
		agent.Name,
		agent.Email,
		agent.Phone,
		agent.Available,
		agent.Capacity,
	).Scan(&agent.ID, &agent.CreatedAt, &agent.UpdatedAt)
}

func (r *agentRepository) GetByID(ctx context.Context, id string) (*domain.Agent, error) {
	const query = `
        SELECT id, organization_id, name, email, phone, available_flag,
               open_assignments, capacity, last_assigned_at, created_at, updated_at
        FROM agents WHERE id=$1`

	var agent domain.Agent
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&agent.ID,
		&agent.OrganizationID,
		&agent.Name,
		&agent.Email,
		&agent.Phone,
		&agent.Available,
		&agent.OpenAssignments,
		&agent.Capacity,
		&agent.LastAssignedAt,
		&agent.CreatedAt,
		&agent.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &agent, nil
}

func (r *agentRepository) ListByOrganization(ctx context.Context, orgID string) ([]domain.Agent, error) {
	const query = `
        SELECT id, organization_id, name, email, phone, available_flag,
               open_assignments, capacity, last_assigned_at, created_at, updated_at
        FROM agents WHERE organization_id=$1 ORDER BY name ASC`

	rows, err := r.db.Query(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAgents(rows)
}

func (r *agentRepository) ListEligible(ctx context.Context, orgID string) ([]domain.Agent, error) {
	const query = `
        SELECT id, organization_id, name, email, phone, available_flag,
               open_assignments, capacity, last_assigned_at, created_at, updated_at
        FROM agents
        WHERE organization_id=$1 AND available_flag AND open_assignments < capacity
        ORDER BY open_assignments ASC, last_assigned_at ASC NULLS FIRST, id ASC`

	rows, err := r.db.Query(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAgents(rows)
}

func (r *agentRepository) ClaimSlot(ctx context.Context, agentID string, at time.Time) (bool, error) {
	const query = `
        UPDATE agents
        SET open_assignments = open_assignments + 1, last_assigned_at=$2, updated_at=NOW()
        WHERE id=$1 AND available_flag AND open_assignments < capacity`

	cmd, err := r.db.Exec(ctx, query, agentID, at)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *agentRepository) ReleaseSlot(ctx context.Context, agentID string) error {
	const query = `
        UPDATE agents
        SET open_assignments = GREATEST(open_assignments - 1, 0), updated_at=NOW()
        WHERE id=$1`

	cmd, err := r.db.Exec(ctx, query, agentID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *agentRepository) SetAvailability(ctx context.Context, agentID string, available bool) error {
	const query = `
        UPDATE agents SET available_flag=$2, updated_at=NOW() WHERE id=$1`

	cmd, err := r.db.Exec(ctx, query, agentID, available)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanAgents(rows pgx.Rows) ([]domain.Agent, error) {
	var result []domain.Agent
	for rows.Next() {
		var agent domain.Agent
		if err := rows.Scan(
			&agent.ID,
			&agent.OrganizationID,
			&agent.Name,
			&agent.Email,
			&agent.Phone,
			&agent.Available,
			&agent.OpenAssignments,
			&agent.Capacity,
			&agent.LastAssignedAt,
			&agent.CreatedAt,
			&agent.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, agent)
	}
	return result, rows.Err()
}
