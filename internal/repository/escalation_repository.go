package repository

import (
	"context"

	"github.com/spec-kit/lead-router/internal/domain"
)

// EscalationRepository stores the escalation ladder per lead.
type EscalationRepository interface {
	Create(ctx context.Context, escalation *domain.Escalation) error
	// MaxTierByLead returns the highest tier recorded for the lead, zero when
	// the lead has never been escalated.
	MaxTierByLead(ctx context.Context, leadID string) (int, error)
	ListByLead(ctx context.Context, leadID string) ([]domain.Escalation, error)
}

type escalationRepository struct {
	db Querier
}

// NewEscalationRepository builds repository.
func NewEscalationRepository(db Querier) EscalationRepository {
	return &escalationRepository{db: db}
}

func (r *escalationRepository) Create(ctx context.Context, escalation *domain.Escalation) error {
	const query = `
        INSERT INTO escalations (lead_id, tier, reason)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		escalation.LeadID,
		escalation.Tier,
		escalation.Reason,
	).Scan(&escalation.ID, &escalation.CreatedAt)
}

func (r *escalationRepository) MaxTierByLead(ctx context.Context, leadID string) (int, error) {
	const query = `SELECT COALESCE(MAX(tier), 0) FROM escalations WHERE lead_id=$1`

	var maxTier int
	if err := r.db.QueryRow(ctx, query, leadID).Scan(&maxTier); err != nil {
		return 0, err
	}
	return maxTier, nil
}

func (r *escalationRepository) ListByLead(ctx context.Context, leadID string) ([]domain.Escalation, error) {
	const query = `
        SELECT id, lead_id, tier, reason, created_at
        FROM escalations WHERE lead_id=$1 ORDER BY tier ASC`

	rows, err := r.db.Query(ctx, query, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Escalation
	for rows.Next() {
		var escalation domain.Escalation
		if err := rows.Scan(
			&escalation.ID,
			&escalation.LeadID,
			&escalation.Tier,
			&escalation.Reason,
			&escalation.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, escalation)
	}
	return result, rows.Err()
}
