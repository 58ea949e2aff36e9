package domain

import "time"

// Assignment relates one lead to one agent at a point in time. A lead has at
// most one active assignment (ReleasedAt nil); prior assignments are kept as
// history and never overwritten.
type Assignment struct {
	ID          string
	LeadID      string
	AgentID     string
	AssignedAt  time.Time
	SLADeadline time.Time
	ReleasedAt  *time.Time
}
