package domain

import "time"

// Organization is the tenant boundary. Every lead, agent, assignment, and
// event belongs to exactly one organization.
type Organization struct {
	ID            string
	Name          string
	WebhookSecret string
	CreatedAt     time.Time
}
