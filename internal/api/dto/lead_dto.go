package dto

import (
	"time"

	"github.com/spec-kit/lead-router/internal/domain"
)

// IntakeLeadRequest names the fields the engine reads from an intake body.
// The body itself is stored verbatim as the lead's raw payload, so senders may
// include anything else alongside these.
type IntakeLeadRequest struct {
	FirstName   string             `json:"first_name"`
	LastName    string             `json:"last_name"`
	Email       string             `json:"email" validate:"omitempty,email"`
	Phone       string             `json:"phone"`
	Source      string             `json:"source"`
	Temperature domain.Temperature `json:"temperature" validate:"omitempty,oneof=hot warm cold"`
	CRMRef      string             `json:"crm_ref"`
}

// EscalateLeadRequest payload.
type EscalateLeadRequest struct {
	Tier   int    `json:"tier" validate:"required,min=1"`
	Reason string `json:"reason" validate:"required"`
}

// LeadResponse is the wire form of a lead.
type LeadResponse struct {
	ID                  string             `json:"id"`
	OrganizationID      string             `json:"organization_id"`
	FirstName           string             `json:"first_name"`
	LastName            string             `json:"last_name"`
	Email               *string            `json:"email"`
	Phone               *string            `json:"phone"`
	Source              string             `json:"source"`
	Temperature         domain.Temperature `json:"temperature"`
	Status              domain.LeadStatus  `json:"status"`
	SLADeadline         *time.Time         `json:"sla_deadline"`
	ResponseTimeSeconds *int64             `json:"response_time_seconds"`
	CRMRef              *string            `json:"crm_ref"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

// AssignmentResponse is the wire form of an assignment.
type AssignmentResponse struct {
	ID          string     `json:"id"`
	LeadID      string     `json:"lead_id"`
	AgentID     string     `json:"agent_id"`
	AssignedAt  time.Time  `json:"assigned_at"`
	SLADeadline time.Time  `json:"sla_deadline"`
	ReleasedAt  *time.Time `json:"released_at,omitempty"`
}

// AssignLeadResponse bundles the outcome of an assignment.
type AssignLeadResponse struct {
	Lead       LeadResponse       `json:"lead"`
	Agent      AgentResponse      `json:"agent"`
	Assignment AssignmentResponse `json:"assignment"`
}

// ContactLeadResponse reports the contact outcome.
type ContactLeadResponse struct {
	Lead        LeadResponse `json:"lead"`
	ContactedAt time.Time    `json:"contacted_at"`
}

// EscalationResponse is the wire form of an escalation.
type EscalationResponse struct {
	ID        string    `json:"id"`
	LeadID    string    `json:"lead_id"`
	Tier      int       `json:"tier"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// TimelineEntry is one audit trail event.
type TimelineEntry struct {
	ID        string               `json:"id"`
	Type      domain.LeadEventType `json:"type"`
	Data      map[string]any       `json:"data,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
}

// TimelineResponse is a lead's full history.
type TimelineResponse struct {
	Events      []TimelineEntry      `json:"events"`
	Assignments []AssignmentResponse `json:"assignments"`
	Escalations []EscalationResponse `json:"escalations"`
}

// OrgStatsResponse is the per-organization rollup.
type OrgStatsResponse struct {
	TotalLeads             int64                       `json:"total_leads"`
	ByStatus               map[domain.LeadStatus]int64 `json:"by_status"`
	AvgResponseTimeMinutes *int64                      `json:"avg_response_time_minutes"`
}
