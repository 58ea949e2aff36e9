package service

import (
	"context"
	"math"
	"time"

	"github.com/spec-kit/lead-router/internal/domain"
	"github.com/spec-kit/lead-router/internal/repository"
	apperrors "github.com/spec-kit/lead-router/pkg/util"
)

const statsTrailingWindow = 30 * 24 * time.Hour

// StatsService produces read-only rollups over an organization's leads.
type StatsService struct {
	store   repository.Store
	timeout time.Duration
}

// NewStatsService constructs the service.
func NewStatsService(store repository.Store, storeTimeout time.Duration) *StatsService {
	return &StatsService{store: store, timeout: storeTimeout}
}

// OrgStats is the rollup returned to callers.
type OrgStats struct {
	TotalLeads             int64
	ByStatus               map[domain.LeadStatus]int64
	AvgResponseTimeMinutes *int64
}

// GetStats counts leads by status and averages response time over leads
// contacted within the trailing 30-day window, in minutes rounded to the
// nearest integer.
func (s *StatsService) GetStats(ctx context.Context, orgID string) (*OrgStats, error) {
	if orgID == "" {
		return nil, apperrors.NewValidationError("organization id required", nil)
	}

	ctx, cancel := opContext(ctx, s.timeout)
	defer cancel()

	counts, err := s.store.Leads().CountByStatus(ctx, orgID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	stats := &OrgStats{ByStatus: make(map[domain.LeadStatus]int64, len(counts))}
	for _, sc := range counts {
		stats.ByStatus[sc.Status] = sc.Count
		stats.TotalLeads += sc.Count
	}

	since := time.Now().UTC().Add(-statsTrailingWindow)
	avg, err := s.store.Leads().AvgResponseSeconds(ctx, orgID, since)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if avg != nil {
		minutes := int64(math.Round(*avg / 60))
		stats.AvgResponseTimeMinutes = &minutes
	}
	return stats, nil
}
