package dto

import "time"

// CreateAgentRequest payload.
type CreateAgentRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone"`
	Capacity *int   `json:"capacity" validate:"omitempty,min=1"`
}

// SetAvailabilityRequest payload.
type SetAvailabilityRequest struct {
	Available *bool `json:"available" validate:"required"`
}

// AgentResponse is the wire form of an agent.
type AgentResponse struct {
	ID              string     `json:"id"`
	OrganizationID  string     `json:"organization_id"`
	Name            string     `json:"name"`
	Email           *string    `json:"email"`
	Phone           *string    `json:"phone"`
	Available       bool       `json:"available"`
	OpenAssignments int        `json:"open_assignments"`
	Capacity        int        `json:"capacity"`
	HasCapacity     bool       `json:"has_capacity"`
	LastAssignedAt  *time.Time `json:"last_assigned_at"`
}
