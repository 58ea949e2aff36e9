package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/lead-router/internal/domain"
	apperrors "github.com/spec-kit/lead-router/pkg/util"
)

func newEscalationService(store *memStore, maxTier int) *EscalationService {
	return NewEscalationService(EscalationDependencies{
		Store:   store,
		Logger:  zap.NewNop(),
		MaxTier: maxTier,
	})
}

func TestEscalateFirstTier(t *testing.T) {
	store := newMemStore()
	seedOrg(store, "org-1")
	seedLead(store, "lead-1", "org-1", domain.LeadStatusAssigned, domain.TemperatureHot)

	escalation, err := newEscalationService(store, 3).Escalate(context.Background(), "lead-1", 1, "sla breached")
	if err != nil {
		t.Fatalf("Escalate returned error: %v", err)
	}
	if escalation.Tier != 1 {
		t.Errorf("tier = %d, want 1", escalation.Tier)
	}
	if got := store.data.leads["lead-1"].Status; got != domain.LeadStatusEscalated {
		t.Errorf("lead status = %s, want escalated", got)
	}
	if countEvents(store, "lead-1", domain.LeadEventEscalated) != 1 {
		t.Error("expected one escalated audit event")
	}
}

func TestEscalateClimbsOneTierAtATime(t *testing.T) {
	store := newMemStore()
	seedOrg(store, "org-1")
	seedLead(store, "lead-1", "org-1", domain.LeadStatusAssigned, domain.TemperatureHot)

	svc := newEscalationService(store, 3)
	ctx := context.Background()
	for tier := 1; tier <= 3; tier++ {
		if _, err := svc.Escalate(ctx, "lead-1", tier, "still unattended"); err != nil {
			t.Fatalf("Escalate tier %d returned error: %v", tier, err)
		}
	}

	maxTier, err := store.Escalations().MaxTierByLead(ctx, "lead-1")
	if err != nil {
		t.Fatalf("MaxTierByLead returned error: %v", err)
	}
	if maxTier != 3 {
		t.Errorf("max tier = %d, want 3", maxTier)
	}
}

func TestEscalateRejectsSkippedTier(t *testing.T) {
	store := newMemStore()
	seedOrg(store, "org-1")
	seedLead(store, "lead-1", "org-1", domain.LeadStatusAssigned, domain.TemperatureHot)

	_, err := newEscalationService(store, 3).Escalate(context.Background(), "lead-1", 2, "skip")
	if !apperrors.IsCode(err, "INVALID_TIER") {
		t.Fatalf("err = %v, want INVALID_TIER", err)
	}
	if len(store.data.escalations) != 0 {
		t.Error("no escalation should have been recorded")
	}
	if got := store.data.leads["lead-1"].Status; got != domain.LeadStatusAssigned {
		t.Errorf("lead status = %s, want unchanged assigned", got)
	}
}

func TestEscalateRejectsRepeatedTier(t *testing.T) {
	store := newMemStore()
	seedOrg(store, "org-1")
	seedLead(store, "lead-1", "org-1", domain.LeadStatusAssigned, domain.TemperatureHot)

	svc := newEscalationService(store, 3)
	ctx := context.Background()
	if _, err := svc.Escalate(ctx, "lead-1", 1, "first"); err != nil {
		t.Fatalf("Escalate tier 1 returned error: %v", err)
	}
	_, err := svc.Escalate(ctx, "lead-1", 1, "again")
	if !apperrors.IsCode(err, "INVALID_TIER") {
		t.Fatalf("err = %v, want INVALID_TIER", err)
	}
}

func TestEscalateRejectsTierAboveMaximum(t *testing.T) {
	store := newMemStore()
	seedOrg(store, "org-1")
	seedLead(store, "lead-1", "org-1", domain.LeadStatusAssigned, domain.TemperatureHot)

	svc := newEscalationService(store, 1)
	ctx := context.Background()
	if _, err := svc.Escalate(ctx, "lead-1", 1, "first"); err != nil {
		t.Fatalf("Escalate tier 1 returned error: %v", err)
	}
	_, err := svc.Escalate(ctx, "lead-1", 2, "too far")
	if !apperrors.IsCode(err, "INVALID_TIER") {
		t.Fatalf("err = %v, want INVALID_TIER", err)
	}
}

func TestEscalatePendingLeadRejected(t *testing.T) {
	store := newMemStore()
	seedOrg(store, "org-1")
	seedLead(store, "lead-1", "org-1", domain.LeadStatusPendingAssignment, domain.TemperatureHot)

	_, err := newEscalationService(store, 3).Escalate(context.Background(), "lead-1", 1, "premature")
	if !apperrors.IsCode(err, "INVALID_TRANSITION") {
		t.Fatalf("err = %v, want INVALID_TRANSITION", err)
	}
}

func TestEscalateUnknownLead(t *testing.T) {
	store := newMemStore()

	_, err := newEscalationService(store, 3).Escalate(context.Background(), "missing", 1, "x")
	if !apperrors.IsCode(err, "NOT_FOUND") {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
}

func TestListOverdueOrdersByDeadline(t *testing.T) {
	now := time.Now().UTC()
	store := newMemStore()
	seedOrg(store, "org-1")
	seedOrg(store, "org-2")

	setDeadline := func(id string, deadline time.Time) {
		lead := store.data.leads[id]
		lead.SLADeadline = &deadline
		store.data.leads[id] = lead
	}

	seedLead(store, "lead-late", "org-1", domain.LeadStatusAssigned, domain.TemperatureHot)
	setDeadline("lead-late", now.Add(-10*time.Minute))
	seedLead(store, "lead-later", "org-1", domain.LeadStatusEscalated, domain.TemperatureHot)
	setDeadline("lead-later", now.Add(-time.Hour))
	seedLead(store, "lead-ontrack", "org-1", domain.LeadStatusAssigned, domain.TemperatureHot)
	setDeadline("lead-ontrack", now.Add(time.Hour))
	seedLead(store, "lead-contacted", "org-1", domain.LeadStatusContacted, domain.TemperatureHot)
	setDeadline("lead-contacted", now.Add(-time.Hour))
	seedLead(store, "lead-other-org", "org-2", domain.LeadStatusAssigned, domain.TemperatureHot)
	setDeadline("lead-other-org", now.Add(-time.Hour))

	leads, err := newEscalationService(store, 3).ListOverdue(context.Background(), "org-1")
	if err != nil {
		t.Fatalf("ListOverdue returned error: %v", err)
	}
	if len(leads) != 2 {
		t.Fatalf("got %d overdue leads, want 2", len(leads))
	}
	if leads[0].ID != "lead-later" || leads[1].ID != "lead-late" {
		t.Errorf("order = [%s %s], want most overdue first [lead-later lead-late]", leads[0].ID, leads[1].ID)
	}
}

func TestListOverdueRequiresOrganization(t *testing.T) {
	_, err := newEscalationService(newMemStore(), 3).ListOverdue(context.Background(), "")
	if !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("err = %v, want VALIDATION_FAILED", err)
	}
}

func TestEscalateConcurrentSameTier(t *testing.T) {
	store := newMemStore()
	seedOrg(store, "org-1")
	seedLead(store, "lead-1", "org-1", domain.LeadStatusAssigned, domain.TemperatureHot)

	svc := newEscalationService(store, 3)
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Escalate(context.Background(), "lead-1", 1, "sla breached")
		}(i)
	}
	wg.Wait()

	var successes int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case apperrors.IsCode(err, "CONFLICT") || apperrors.IsCode(err, "INVALID_TIER"):
			// the loser must surface as a client error, never a store failure
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Errorf("got %d successes, want exactly one", successes)
	}
	if tiers := len(store.data.escalations); tiers != 1 {
		t.Errorf("escalation rows = %d, want 1", tiers)
	}
}
