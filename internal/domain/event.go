package domain

import "time"

// LeadEventType captures what happened in an audit trail entry.
type LeadEventType string

const (
	LeadEventCreated   LeadEventType = "created"
	LeadEventAssigned  LeadEventType = "assigned"
	LeadEventContacted LeadEventType = "contacted"
	LeadEventEscalated LeadEventType = "escalated"
	LeadEventClosed    LeadEventType = "closed"
)

// LeadEvent is an immutable audit trail entry. Entries are written in the same
// transaction as the state change they document and are never updated or
// deleted.
type LeadEvent struct {
	ID             string
	LeadID         string
	OrganizationID string
	Type           LeadEventType
	Data           map[string]any
	CreatedAt      time.Time
}
