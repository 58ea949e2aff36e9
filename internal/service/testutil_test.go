package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/lead-router/internal/domain"
	"github.com/spec-kit/lead-router/internal/repository"
)

// memStore is an in-memory repository.Store. WithinTx takes a snapshot before
// running fn and restores it on error, mirroring transactional rollback, and
// serializes units of work the way row locking does.
type memStore struct {
	mu   sync.Mutex
	data *memData
	seq  int
}

type memData struct {
	orgs        map[string]domain.Organization
	agents      map[string]domain.Agent
	leads       map[string]domain.Lead
	assignments []domain.Assignment
	escalations []domain.Escalation
	events      []domain.LeadEvent
}

func newMemStore() *memStore {
	return &memStore{data: &memData{
		orgs:   make(map[string]domain.Organization),
		agents: make(map[string]domain.Agent),
		leads:  make(map[string]domain.Lead),
	}}
}

func (d *memData) clone() *memData {
	out := &memData{
		orgs:        make(map[string]domain.Organization, len(d.orgs)),
		agents:      make(map[string]domain.Agent, len(d.agents)),
		leads:       make(map[string]domain.Lead, len(d.leads)),
		assignments: append([]domain.Assignment(nil), d.assignments...),
		escalations: append([]domain.Escalation(nil), d.escalations...),
		events:      append([]domain.LeadEvent(nil), d.events...),
	}
	for k, v := range d.orgs {
		out.orgs[k] = v
	}
	for k, v := range d.agents {
		out.agents[k] = v
	}
	for k, v := range d.leads {
		out.leads[k] = v
	}
	return out
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *memStore) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := m.data.clone()
	if err := fn(&txStore{m: m}); err != nil {
		m.data = snapshot
		return err
	}
	return nil
}

func (m *memStore) Organizations() repository.OrganizationRepository {
	return &memOrgRepo{memRepo{m: m, locking: true}}
}
func (m *memStore) Agents() repository.AgentRepository {
	return &memAgentRepo{memRepo{m: m, locking: true}}
}
func (m *memStore) Leads() repository.LeadRepository {
	return &memLeadRepo{memRepo{m: m, locking: true}}
}
func (m *memStore) Assignments() repository.AssignmentRepository {
	return &memAssignmentRepo{memRepo{m: m, locking: true}}
}
func (m *memStore) Escalations() repository.EscalationRepository {
	return &memEscalationRepo{memRepo{m: m, locking: true}}
}
func (m *memStore) Events() repository.EventRepository {
	return &memEventRepo{memRepo{m: m, locking: true}}
}

// txStore is the transaction-bound view; the store mutex is already held.
type txStore struct {
	m *memStore
}

func (t *txStore) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	return fn(t)
}
func (t *txStore) Organizations() repository.OrganizationRepository {
	return &memOrgRepo{memRepo{m: t.m}}
}
func (t *txStore) Agents() repository.AgentRepository {
	return &memAgentRepo{memRepo{m: t.m}}
}
func (t *txStore) Leads() repository.LeadRepository {
	return &memLeadRepo{memRepo{m: t.m}}
}
func (t *txStore) Assignments() repository.AssignmentRepository {
	return &memAssignmentRepo{memRepo{m: t.m}}
}
func (t *txStore) Escalations() repository.EscalationRepository {
	return &memEscalationRepo{memRepo{m: t.m}}
}
func (t *txStore) Events() repository.EventRepository {
	return &memEventRepo{memRepo{m: t.m}}
}

type memRepo struct {
	m       *memStore
	locking bool
}

func (r *memRepo) acquire() func() {
	if !r.locking {
		return func() {}
	}
	r.m.mu.Lock()
	return r.m.mu.Unlock
}

type memOrgRepo struct{ memRepo }

func (r *memOrgRepo) GetByID(ctx context.Context, id string) (*domain.Organization, error) {
	defer r.acquire()()
	org, ok := r.m.data.orgs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := org
	return &out, nil
}

func (r *memOrgRepo) List(ctx context.Context) ([]domain.Organization, error) {
	defer r.acquire()()
	var result []domain.Organization
	for _, org := range r.m.data.orgs {
		result = append(result, org)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

type memAgentRepo struct{ memRepo }

func (r *memAgentRepo) Create(ctx context.Context, agent *domain.Agent) error {
	defer r.acquire()()
	agent.ID = r.m.nextID("agent")
	agent.CreatedAt = time.Now().UTC()
	agent.UpdatedAt = agent.CreatedAt
	r.m.data.agents[agent.ID] = *agent
	return nil
}

func (r *memAgentRepo) GetByID(ctx context.Context, id string) (*domain.Agent, error) {
	defer r.acquire()()
	agent, ok := r.m.data.agents[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := agent
	return &out, nil
}

func (r *memAgentRepo) ListByOrganization(ctx context.Context, orgID string) ([]domain.Agent, error) {
	defer r.acquire()()
	var result []domain.Agent
	for _, agent := range r.m.data.agents {
		if agent.OrganizationID == orgID {
			result = append(result, agent)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *memAgentRepo) ListEligible(ctx context.Context, orgID string) ([]domain.Agent, error) {
	defer r.acquire()()
	var result []domain.Agent
	for _, agent := range r.m.data.agents {
		if agent.OrganizationID == orgID && agent.Available && agent.OpenAssignments < agent.Capacity {
			result = append(result, agent)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.OpenAssignments != b.OpenAssignments {
			return a.OpenAssignments < b.OpenAssignments
		}
		switch {
		case a.LastAssignedAt == nil && b.LastAssignedAt != nil:
			return true
		case a.LastAssignedAt != nil && b.LastAssignedAt == nil:
			return false
		case a.LastAssignedAt != nil && b.LastAssignedAt != nil && !a.LastAssignedAt.Equal(*b.LastAssignedAt):
			return a.LastAssignedAt.Before(*b.LastAssignedAt)
		}
		return strings.Compare(a.ID, b.ID) < 0
	})
	return result, nil
}

func (r *memAgentRepo) ClaimSlot(ctx context.Context, agentID string, at time.Time) (bool, error) {
	defer r.acquire()()
	agent, ok := r.m.data.agents[agentID]
	if !ok {
		return false, nil
	}
	if !agent.Available || agent.OpenAssignments >= agent.Capacity {
		return false, nil
	}
	agent.OpenAssignments++
	t := at
	agent.LastAssignedAt = &t
	r.m.data.agents[agentID] = agent
	return true, nil
}

func (r *memAgentRepo) ReleaseSlot(ctx context.Context, agentID string) error {
	defer r.acquire()()
	agent, ok := r.m.data.agents[agentID]
	if !ok {
		return pgx.ErrNoRows
	}
	if agent.OpenAssignments > 0 {
		agent.OpenAssignments--
	}
	r.m.data.agents[agentID] = agent
	return nil
}

func (r *memAgentRepo) SetAvailability(ctx context.Context, agentID string, available bool) error {
	defer r.acquire()()
	agent, ok := r.m.data.agents[agentID]
	if !ok {
		return pgx.ErrNoRows
	}
	agent.Available = available
	r.m.data.agents[agentID] = agent
	return nil
}

type memLeadRepo struct{ memRepo }

func (r *memLeadRepo) Create(ctx context.Context, lead *domain.Lead) error {
	defer r.acquire()()
	lead.ID = r.m.nextID("lead")
	lead.Version = 1
	lead.CreatedAt = time.Now().UTC()
	lead.UpdatedAt = lead.CreatedAt
	r.m.data.leads[lead.ID] = *lead
	return nil
}

func (r *memLeadRepo) Update(ctx context.Context, lead *domain.Lead) error {
	defer r.acquire()()
	stored, ok := r.m.data.leads[lead.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if stored.Version != lead.Version {
		return repository.ErrVersionConflict
	}
	lead.Version++
	lead.UpdatedAt = time.Now().UTC()
	r.m.data.leads[lead.ID] = *lead
	return nil
}

func (r *memLeadRepo) GetByID(ctx context.Context, id string) (*domain.Lead, error) {
	defer r.acquire()()
	lead, ok := r.m.data.leads[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := lead
	return &out, nil
}

func (r *memLeadRepo) ListWithFilter(ctx context.Context, filter repository.LeadFilter) ([]domain.Lead, error) {
	defer r.acquire()()
	var result []domain.Lead
	for _, lead := range r.m.data.leads {
		if filter.OrganizationID != nil && lead.OrganizationID != *filter.OrganizationID {
			continue
		}
		if len(filter.Statuses) > 0 {
			match := false
			for _, status := range filter.Statuses {
				if lead.Status == status {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		result = append(result, lead)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if filter.Offset >= len(result) {
		return nil, nil
	}
	result = result[filter.Offset:]
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *memLeadRepo) ListOverdue(ctx context.Context, orgID string, now time.Time) ([]domain.Lead, error) {
	defer r.acquire()()
	var result []domain.Lead
	for _, lead := range r.m.data.leads {
		if lead.OrganizationID != orgID {
			continue
		}
		if lead.Status != domain.LeadStatusAssigned && lead.Status != domain.LeadStatusEscalated {
			continue
		}
		if lead.SLADeadline == nil || !lead.SLADeadline.Before(now) {
			continue
		}
		result = append(result, lead)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SLADeadline.Before(*result[j].SLADeadline) })
	return result, nil
}

func (r *memLeadRepo) CountByStatus(ctx context.Context, orgID string) ([]repository.StatusCount, error) {
	defer r.acquire()()
	counts := make(map[domain.LeadStatus]int64)
	for _, lead := range r.m.data.leads {
		if lead.OrganizationID == orgID {
			counts[lead.Status]++
		}
	}
	var result []repository.StatusCount
	for status, count := range counts {
		result = append(result, repository.StatusCount{Status: status, Count: count})
	}
	return result, nil
}

func (r *memLeadRepo) AvgResponseSeconds(ctx context.Context, orgID string, since time.Time) (*float64, error) {
	defer r.acquire()()
	var sum float64
	var n int
	for _, lead := range r.m.data.leads {
		if lead.OrganizationID != orgID || lead.Status != domain.LeadStatusContacted {
			continue
		}
		if lead.ResponseTimeSeconds == nil || lead.UpdatedAt.Before(since) {
			continue
		}
		sum += float64(*lead.ResponseTimeSeconds)
		n++
	}
	if n == 0 {
		return nil, nil
	}
	avg := sum / float64(n)
	return &avg, nil
}

type memAssignmentRepo struct{ memRepo }

func (r *memAssignmentRepo) Create(ctx context.Context, assignment *domain.Assignment) error {
	defer r.acquire()()
	assignment.ID = r.m.nextID("assignment")
	r.m.data.assignments = append(r.m.data.assignments, *assignment)
	return nil
}

func (r *memAssignmentRepo) ActiveByLead(ctx context.Context, leadID string) (*domain.Assignment, error) {
	defer r.acquire()()
	for _, assignment := range r.m.data.assignments {
		if assignment.LeadID == leadID && assignment.ReleasedAt == nil {
			out := assignment
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memAssignmentRepo) Release(ctx context.Context, leadID string, at time.Time) error {
	defer r.acquire()()
	for i := range r.m.data.assignments {
		if r.m.data.assignments[i].LeadID == leadID && r.m.data.assignments[i].ReleasedAt == nil {
			t := at
			r.m.data.assignments[i].ReleasedAt = &t
		}
	}
	return nil
}

func (r *memAssignmentRepo) ListByLead(ctx context.Context, leadID string) ([]domain.Assignment, error) {
	defer r.acquire()()
	var result []domain.Assignment
	for _, assignment := range r.m.data.assignments {
		if assignment.LeadID == leadID {
			result = append(result, assignment)
		}
	}
	return result, nil
}

type memEscalationRepo struct{ memRepo }

func (r *memEscalationRepo) Create(ctx context.Context, escalation *domain.Escalation) error {
	defer r.acquire()()
	for _, existing := range r.m.data.escalations {
		if existing.LeadID == escalation.LeadID && existing.Tier == escalation.Tier {
			// same error shape the unique (lead_id, tier) index produces
			return &pgconn.PgError{Code: "23505", ConstraintName: "escalations_lead_id_tier_key"}
		}
	}
	escalation.ID = r.m.nextID("escalation")
	escalation.CreatedAt = time.Now().UTC()
	r.m.data.escalations = append(r.m.data.escalations, *escalation)
	return nil
}

func (r *memEscalationRepo) MaxTierByLead(ctx context.Context, leadID string) (int, error) {
	defer r.acquire()()
	maxTier := 0
	for _, escalation := range r.m.data.escalations {
		if escalation.LeadID == leadID && escalation.Tier > maxTier {
			maxTier = escalation.Tier
		}
	}
	return maxTier, nil
}

func (r *memEscalationRepo) ListByLead(ctx context.Context, leadID string) ([]domain.Escalation, error) {
	defer r.acquire()()
	var result []domain.Escalation
	for _, escalation := range r.m.data.escalations {
		if escalation.LeadID == leadID {
			result = append(result, escalation)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Tier < result[j].Tier })
	return result, nil
}

type memEventRepo struct{ memRepo }

func (r *memEventRepo) Create(ctx context.Context, event *domain.LeadEvent) error {
	defer r.acquire()()
	event.ID = r.m.nextID("event")
	event.CreatedAt = time.Now().UTC()
	r.m.data.events = append(r.m.data.events, *event)
	return nil
}

func (r *memEventRepo) ListByLead(ctx context.Context, leadID string) ([]domain.LeadEvent, error) {
	defer r.acquire()()
	var result []domain.LeadEvent
	for _, event := range r.m.data.events {
		if event.LeadID == leadID {
			result = append(result, event)
		}
	}
	return result, nil
}

// seed helpers

func seedOrg(m *memStore, id string) domain.Organization {
	org := domain.Organization{ID: id, Name: id, WebhookSecret: "secret-" + id, CreatedAt: time.Now().UTC()}
	m.data.orgs[id] = org
	return org
}

func seedAgent(m *memStore, id, orgID string, open, capacity int, available bool, lastAssigned *time.Time) domain.Agent {
	agent := domain.Agent{
		ID:              id,
		OrganizationID:  orgID,
		Name:            "Agent " + id,
		Available:       available,
		OpenAssignments: open,
		Capacity:        capacity,
		LastAssignedAt:  lastAssigned,
		CreatedAt:       time.Now().UTC(),
	}
	m.data.agents[id] = agent
	return agent
}

func seedLead(m *memStore, id, orgID string, status domain.LeadStatus, temperature domain.Temperature) domain.Lead {
	email := id + "@example.com"
	lead := domain.Lead{
		ID:             id,
		OrganizationID: orgID,
		Email:          &email,
		Temperature:    temperature,
		Status:         status,
		Version:        1,
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}
	m.data.leads[id] = lead
	return lead
}

func countEvents(m *memStore, leadID string, eventType domain.LeadEventType) int {
	n := 0
	for _, event := range m.data.events {
		if event.LeadID == leadID && event.Type == eventType {
			n++
		}
	}
	return n
}
