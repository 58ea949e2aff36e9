package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/lead-router/internal/repository"
	apperrors "github.com/spec-kit/lead-router/pkg/util"
)

// opContext bounds a store-backed operation. Operations run to completion or
// fail atomically; there is no mid-flight cancellation beyond this bound.
func opContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// notFoundOr maps row-absence to NotFound and leaves other errors untouched.
func notFoundOr(err error, resource string, details map[string]any) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(resource, details)
	}
	return err
}

// leadWriteErr maps the outcomes of a versioned lead update.
func leadWriteErr(err error, leadID string) error {
	if errors.Is(err, repository.ErrVersionConflict) {
		return apperrors.NewConflict("lead was updated concurrently", map[string]any{"lead_id": leadID})
	}
	return notFoundOr(err, "lead", map[string]any{"lead_id": leadID})
}
