package repository

import (
	"context"

	"github.com/spec-kit/lead-router/internal/domain"
)

// EventRepository stores the append-only audit trail. There is deliberately no
// update or delete.
type EventRepository interface {
	Create(ctx context.Context, event *domain.LeadEvent) error
	ListByLead(ctx context.Context, leadID string) ([]domain.LeadEvent, error)
}

type eventRepository struct {
	db Querier
}

// NewEventRepository builds repository.
func NewEventRepository(db Querier) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Create(ctx context.Context, event *domain.LeadEvent) error {
	const query = `
        INSERT INTO lead_events (lead_id, organization_id, event_type, event_data)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		event.LeadID,
		event.OrganizationID,
		event.Type,
		event.Data,
	).Scan(&event.ID, &event.CreatedAt)
}

func (r *eventRepository) ListByLead(ctx context.Context, leadID string) ([]domain.LeadEvent, error) {
	const query = `
        SELECT id, lead_id, organization_id, event_type, event_data, created_at
        FROM lead_events WHERE lead_id=$1 ORDER BY created_at ASC`
	rows, err := r.db.Query(ctx, query, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.LeadEvent
	for rows.Next() {
		var event domain.LeadEvent
		if err := rows.Scan(
			&event.ID,
			&event.LeadID,
			&event.OrganizationID,
			&event.Type,
			&event.Data,
			&event.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, event)
	}
	return result, rows.Err()
}
