// Package domain contains the engine's entities and the pure lead lifecycle
// rules. No I/O happens here.
package domain

// LeadStatus enumerates lifecycle states for leads.
type LeadStatus string

const (
	LeadStatusPendingAssignment LeadStatus = "pending_assignment"
	LeadStatusAssigned          LeadStatus = "assigned"
	LeadStatusContacted         LeadStatus = "contacted"
	LeadStatusEscalated         LeadStatus = "escalated"
	LeadStatusClosed            LeadStatus = "closed"
)

// LifecycleEvent names the actions that move a lead between states.
type LifecycleEvent string

const (
	EventAssign   LifecycleEvent = "assign"
	EventContact  LifecycleEvent = "contact"
	EventEscalate LifecycleEvent = "escalate"
	EventClose    LifecycleEvent = "close"
)

// transitions is the authoritative table. A reassignment while escalated keeps
// the lead in escalated; the escalation ladder is not reset by handing the lead
// to a fresh agent.
var transitions = map[LeadStatus]map[LifecycleEvent]LeadStatus{
	LeadStatusPendingAssignment: {
		EventAssign: LeadStatusAssigned,
		EventClose:  LeadStatusClosed,
	},
	LeadStatusAssigned: {
		EventContact:  LeadStatusContacted,
		EventEscalate: LeadStatusEscalated,
		EventClose:    LeadStatusClosed,
	},
	LeadStatusEscalated: {
		EventAssign:   LeadStatusEscalated,
		EventContact:  LeadStatusContacted,
		EventEscalate: LeadStatusEscalated,
		EventClose:    LeadStatusClosed,
	},
}

// NextStatus returns the state reached by applying event to from, and whether
// the transition is legal.
func NextStatus(from LeadStatus, event LifecycleEvent) (LeadStatus, bool) {
	row, ok := transitions[from]
	if !ok {
		return "", false
	}
	next, ok := row[event]
	return next, ok
}

// IsTerminal reports whether no further lifecycle events apply.
func IsTerminal(s LeadStatus) bool {
	return s == LeadStatusContacted || s == LeadStatusClosed
}

// ValidStatus reports whether the value is one of the defined states.
func ValidStatus(s LeadStatus) bool {
	switch s {
	case LeadStatusPendingAssignment, LeadStatusAssigned, LeadStatusContacted,
		LeadStatusEscalated, LeadStatusClosed:
		return true
	}
	return false
}

// InitialStatus is the state every new lead starts in.
func InitialStatus() LeadStatus {
	return LeadStatusPendingAssignment
}
