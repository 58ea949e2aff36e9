package domain

import "time"

// Agent models a human responder within one organization. Provisioning is
// external; the engine only reads agents and maintains the open-assignment
// counter.
type Agent struct {
	ID              string
	OrganizationID  string
	Name            string
	Email           *string
	Phone           *string
	Available       bool
	OpenAssignments int
	Capacity        int
	LastAssignedAt  *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasCapacity reports whether the agent can take one more assignment.
func (a *Agent) HasCapacity() bool {
	return a.Available && a.OpenAssignments < a.Capacity
}
