// Package repository contains the persistence contracts used by the engine.
// The Store owns transaction discipline so service logic stays free of
// storage-specific control flow.
package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrVersionConflict is returned when an optimistic version check fails,
// meaning a concurrent writer updated the row first.
var ErrVersionConflict = errors.New("concurrent update detected")

// Querier is satisfied by both *pgxpool.Pool and pgx.Tx, letting the same
// repositories run inside or outside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store bundles the repositories behind a single transactional boundary.
// WithinTx runs fn against a Store bound to one transaction: either every
// write in fn commits, or none do.
type Store interface {
	Organizations() OrganizationRepository
	Agents() AgentRepository
	Leads() LeadRepository
	Assignments() AssignmentRepository
	Escalations() EscalationRepository
	Events() EventRepository
	WithinTx(ctx context.Context, fn func(Store) error) error
}

type pgStore struct {
	db   Querier
	pool *pgxpool.Pool
}

// NewStore builds the postgres-backed store.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{db: pool, pool: pool}
}

func (s *pgStore) Organizations() OrganizationRepository { return NewOrganizationRepository(s.db) }
func (s *pgStore) Agents() AgentRepository               { return NewAgentRepository(s.db) }
func (s *pgStore) Leads() LeadRepository                 { return NewLeadRepository(s.db) }
func (s *pgStore) Assignments() AssignmentRepository     { return NewAssignmentRepository(s.db) }
func (s *pgStore) Escalations() EscalationRepository     { return NewEscalationRepository(s.db) }
func (s *pgStore) Events() EventRepository               { return NewEventRepository(s.db) }

func (s *pgStore) WithinTx(ctx context.Context, fn func(Store) error) error {
	if s.pool == nil {
		// Already transaction-bound; nested units join the outer transaction.
		return fn(s)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(&pgStore{db: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
