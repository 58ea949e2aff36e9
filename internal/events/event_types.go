package events

import (
	"time"

	"github.com/spec-kit/lead-router/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventLeadCreated   EventType = "lead_created"
	EventLeadAssigned  EventType = "lead_assigned"
	EventLeadContacted EventType = "lead_contacted"
	EventLeadEscalated EventType = "lead_escalated"
	EventLeadClosed    EventType = "lead_closed"
)

// Event represents a domain event emitted by services. These feed the
// notification fan-out and are distinct from the durable audit trail rows.
type Event struct {
	ID             string    `json:"id"`
	Type           EventType `json:"type"`
	LeadID         string    `json:"lead_id"`
	OrganizationID string    `json:"organization_id"`
	Timestamp      time.Time `json:"timestamp"`
	Payload        any       `json:"payload"`
}

// LeadCreatedPayload payload.
type LeadCreatedPayload struct {
	Source      string             `json:"source"`
	Temperature domain.Temperature `json:"temperature"`
}

// LeadAssignedPayload payload.
type LeadAssignedPayload struct {
	AgentID      string    `json:"agent_id"`
	AgentName    string    `json:"agent_name"`
	AgentEmail   *string   `json:"agent_email,omitempty"`
	AgentPhone   *string   `json:"agent_phone,omitempty"`
	SLADeadline  time.Time `json:"sla_deadline"`
	Reassignment bool      `json:"reassignment"`
}

// LeadContactedPayload payload.
type LeadContactedPayload struct {
	AgentID             string `json:"agent_id"`
	ResponseTimeSeconds *int64 `json:"response_time_seconds,omitempty"`
}

// LeadEscalatedPayload payload.
type LeadEscalatedPayload struct {
	Tier   int    `json:"tier"`
	Reason string `json:"reason"`
}

// LeadClosedPayload payload.
type LeadClosedPayload struct {
	PreviousStatus domain.LeadStatus `json:"previous_status"`
}
