package domain

import "time"

// Escalation records one step up the organization's escalation ladder for a
// lead. Tiers are strictly increasing per lead; the highest tier reached is the
// lead's current escalation level.
type Escalation struct {
	ID        string
	LeadID    string
	Tier      int
	Reason    string
	CreatedAt time.Time
}
