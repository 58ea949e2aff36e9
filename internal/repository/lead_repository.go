package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/lead-router/internal/domain"
)

// LeadFilter captures lead search parameters.
type LeadFilter struct {
	OrganizationID *string
	Statuses       []domain.LeadStatus
	Temperatures   []domain.Temperature
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
	Limit          int
	Offset         int
}

// StatusCount is one row of the per-status rollup.
type StatusCount struct {
	Status domain.LeadStatus
	Count  int64
}

// LeadRepository encapsulates lead persistence. Update performs an optimistic
// version check: it fails with ErrVersionConflict when a concurrent writer got
// there first.
type LeadRepository interface {
	Create(ctx context.Context, lead *domain.Lead) error
	Update(ctx context.Context, lead *domain.Lead) error
	GetByID(ctx context.Context, id string) (*domain.Lead, error)
	ListWithFilter(ctx context.Context, filter LeadFilter) ([]domain.Lead, error)
	// ListOverdue returns assigned/escalated leads whose deadline passed,
	// most overdue first. Single statement, so callers see one snapshot.
	ListOverdue(ctx context.Context, orgID string, now time.Time) ([]domain.Lead, error)
	CountByStatus(ctx context.Context, orgID string) ([]StatusCount, error)
	// AvgResponseSeconds averages response_time_seconds over leads contacted
	// since the given time. Returns nil when no lead qualifies.
	AvgResponseSeconds(ctx context.Context, orgID string, since time.Time) (*float64, error)
}

type leadRepository struct {
	db Querier
}

// NewLeadRepository instantiates repository.
func NewLeadRepository(db Querier) LeadRepository {
	return &leadRepository{db: db}
}

const leadColumns = `id, organization_id, first_name, last_name, email, phone, source,
               temperature, crm_ref, raw_payload, status, sla_deadline,
               response_time_seconds, version, created_at, updated_at`

func (r *leadRepository) Create(ctx context.Context, lead *domain.Lead) error {
	const query = `
        INSERT INTO leads (organization_id, first_name, last_name, email, phone, source, temperature, crm_ref, raw_payload, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, version, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		lead.OrganizationID,
		lead.FirstName,
		lead.LastName,
		lead.Email,
		lead.Phone,
		lead.Source,
		lead.Temperature,
		lead.CRMRef,
		lead.RawPayload,
		lead.Status,
	).Scan(&lead.ID, &lead.Version, &lead.CreatedAt, &lead.UpdatedAt)
}

func (r *leadRepository) Update(ctx context.Context, lead *domain.Lead) error {
	const query = `
        UPDATE leads SET status=$1, sla_deadline=$2, response_time_seconds=$3,
            temperature=$4, version=version+1, updated_at=NOW()
        WHERE id=$5 AND version=$6`
	cmd, err := r.db.Exec(ctx, query,
		lead.Status,
		lead.SLADeadline,
		lead.ResponseTimeSeconds,
		lead.Temperature,
		lead.ID,
		lead.Version,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		// Row missing versus version mismatch: distinguish so callers can
		// report NotFound or Conflict.
		var exists bool
		if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM leads WHERE id=$1)`, lead.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return pgx.ErrNoRows
		}
		return ErrVersionConflict
	}
	lead.Version++
	return nil
}

func (r *leadRepository) GetByID(ctx context.Context, id string) (*domain.Lead, error) {
	query := fmt.Sprintf(`SELECT %s FROM leads WHERE id=$1`, leadColumns)

	var lead domain.Lead
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&lead.ID,
		&lead.OrganizationID,
		&lead.FirstName,
		&lead.LastName,
		&lead.Email,
		&lead.Phone,
		&lead.Source,
		&lead.Temperature,
		&lead.CRMRef,
		&lead.RawPayload,
		&lead.Status,
		&lead.SLADeadline,
		&lead.ResponseTimeSeconds,
		&lead.Version,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &lead, nil
}

func (r *leadRepository) ListWithFilter(ctx context.Context, filter LeadFilter) ([]domain.Lead, error) {
	base := fmt.Sprintf(`SELECT %s FROM leads`, leadColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if filter.OrganizationID != nil {
		args = append(args, *filter.OrganizationID)
		clauses = append(clauses, fmt.Sprintf("organization_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Temperatures) > 0 {
		placeholders := make([]string, len(filter.Temperatures))
		for i, temp := range filter.Temperatures {
			args = append(args, temp)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("temperature IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLeads(rows)
}

func (r *leadRepository) ListOverdue(ctx context.Context, orgID string, now time.Time) ([]domain.Lead, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM leads
        WHERE organization_id=$1 AND status IN ('assigned','escalated')
              AND sla_deadline IS NOT NULL AND sla_deadline < $2
        ORDER BY sla_deadline ASC`, leadColumns)

	rows, err := r.db.Query(ctx, query, orgID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLeads(rows)
}

func (r *leadRepository) CountByStatus(ctx context.Context, orgID string) ([]StatusCount, error) {
	const query = `
        SELECT status, COUNT(*) FROM leads WHERE organization_id=$1 GROUP BY status`

	rows, err := r.db.Query(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []StatusCount
	for rows.Next() {
		var sc StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, err
		}
		result = append(result, sc)
	}
	return result, rows.Err()
}

func (r *leadRepository) AvgResponseSeconds(ctx context.Context, orgID string, since time.Time) (*float64, error) {
	const query = `
        SELECT AVG(response_time_seconds)
        FROM leads
        WHERE organization_id=$1 AND status='contacted'
              AND response_time_seconds IS NOT NULL AND updated_at >= $2`

	var avg *float64
	if err := r.db.QueryRow(ctx, query, orgID, since).Scan(&avg); err != nil {
		return nil, err
	}
	return avg, nil
}

func scanLeads(rows pgx.Rows) ([]domain.Lead, error) {
	var result []domain.Lead
	for rows.Next() {
		var lead domain.Lead
		if err := rows.Scan(
			&lead.ID,
			&lead.OrganizationID,
			&lead.FirstName,
			&lead.LastName,
			&lead.Email,
			&lead.Phone,
			&lead.Source,
			&lead.Temperature,
			&lead.CRMRef,
			&lead.RawPayload,
			&lead.Status,
			&lead.SLADeadline,
			&lead.ResponseTimeSeconds,
			&lead.Version,
			&lead.CreatedAt,
			&lead.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, lead)
	}
	return result, rows.Err()
}
