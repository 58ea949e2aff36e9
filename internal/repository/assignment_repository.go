package repository

import (
	"context"
	"time"

	"github.com/spec-kit/lead-router/internal/domain"
)

// AssignmentRepository stores the lead-to-agent assignment history. Rows are
// never overwritten; a reassignment releases the active row and inserts a new
// one.
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *domain.Assignment) error
	ActiveByLead(ctx context.Context, leadID string) (*domain.Assignment, error)
	Release(ctx context.Context, leadID string, at time.Time) error
	ListByLead(ctx context.Context, leadID string) ([]domain.Assignment, error)
}

type assignmentRepository struct {
	db Querier
}

// NewAssignmentRepository builds repository.
func NewAssignmentRepository(db Querier) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *domain.Assignment) error {
	const query = `
        INSERT INTO assignments (lead_id, agent_id, assigned_at, sla_deadline)
        VALUES ($1,$2,$3,$4)
        RETURNING id`
	return r.db.QueryRow(ctx, query,
		assignment.LeadID,
		assignment.AgentID,
		assignment.AssignedAt,
		assignment.SLADeadline,
	).Scan(&assignment.ID)
}

func (r *assignmentRepository) ActiveByLead(ctx context.Context, leadID string) (*domain.Assignment, error) {
	const query = `
        SELECT id, lead_id, agent_id, assigned_at, sla_deadline, released_at
        FROM assignments WHERE lead_id=$1 AND released_at IS NULL`

	var assignment domain.Assignment
	if err := r.db.QueryRow(ctx, query, leadID).Scan(
		&assignment.ID,
		&assignment.LeadID,
		&assignment.AgentID,
		&assignment.AssignedAt,
		&assignment.SLADeadline,
		&assignment.ReleasedAt,
	); err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *assignmentRepository) Release(ctx context.Context, leadID string, at time.Time) error {
	const query = `
        UPDATE assignments SET released_at=$2 WHERE lead_id=$1 AND released_at IS NULL`

	_, err := r.db.Exec(ctx, query, leadID, at)
	return err
}

func (r *assignmentRepository) ListByLead(ctx context.Context, leadID string) ([]domain.Assignment, error) {
	const query = `
        SELECT id, lead_id, agent_id, assigned_at, sla_deadline, released_at
        FROM assignments WHERE lead_id=$1 ORDER BY assigned_at ASC`

	rows, err := r.db.Query(ctx, query, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Assignment
	for rows.Next() {
		var assignment domain.Assignment
		if err := rows.Scan(
			&assignment.ID,
			&assignment.LeadID,
			&assignment.AgentID,
			&assignment.AssignedAt,
			&assignment.SLADeadline,
			&assignment.ReleasedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, assignment)
	}
	return result, rows.Err()
}
