package domain

import "time"

// Temperature classifies lead urgency and drives the SLA window.
type Temperature string

const (
	TemperatureHot  Temperature = "hot"
	TemperatureWarm Temperature = "warm"
	TemperatureCold Temperature = "cold"
)

// ValidTemperature reports whether the value is a known temperature.
func ValidTemperature(t Temperature) bool {
	switch t {
	case TemperatureHot, TemperatureWarm, TemperatureCold:
		return true
	}
	return false
}

// Lead is the aggregate for inbound sales/service contacts.
type Lead struct {
	ID                  string
	OrganizationID      string
	FirstName           string
	LastName            string
	Email               *string
	Phone               *string
	Source              string
	Temperature         Temperature
	CRMRef              *string
	RawPayload          map[string]any
	Status              LeadStatus
	SLADeadline         *time.Time
	ResponseTimeSeconds *int64
	Version             int64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// HasContactChannel reports whether at least one of email/phone is present.
func (l *Lead) HasContactChannel() bool {
	return (l.Email != nil && *l.Email != "") || (l.Phone != nil && *l.Phone != "")
}
