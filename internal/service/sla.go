package service

import (
	"time"

	"github.com/spec-kit/lead-router/internal/config"
	"github.com/spec-kit/lead-router/internal/domain"
)

// SLAClock computes deadlines and response times from operator-supplied
// response windows.
type SLAClock struct {
	windows map[domain.Temperature]time.Duration
}

// NewSLAClock builds the clock. The config is validated at load time, so the
// relative ordering hot <= warm <= cold already holds here.
func NewSLAClock(cfg config.SLAConfig) *SLAClock {
	return &SLAClock{
		windows: map[domain.Temperature]time.Duration{
			domain.TemperatureHot:  cfg.HotWindow,
			domain.TemperatureWarm: cfg.WarmWindow,
			domain.TemperatureCold: cfg.ColdWindow,
		},
	}
}

// Window returns the response window for the temperature, falling back to the
// warm window for unknown values.
func (c *SLAClock) Window(temperature domain.Temperature) time.Duration {
	if window, ok := c.windows[temperature]; ok {
		return window
	}
	return c.windows[domain.TemperatureWarm]
}

// ComputeDeadline returns the timestamp by which the lead must be contacted.
func (c *SLAClock) ComputeDeadline(temperature domain.Temperature, assignedAt time.Time) time.Time {
	return assignedAt.Add(c.Window(temperature))
}

// ResponseSeconds derives the response time when a lead is contacted. A
// negative duration indicates a clock or data error: ok is false and the
// caller must record null rather than a negative value.
func (c *SLAClock) ResponseSeconds(assignedAt, contactedAt time.Time) (int64, bool) {
	seconds := int64(contactedAt.Sub(assignedAt) / time.Second)
	if seconds < 0 {
		return 0, false
	}
	return seconds, true
}
