package service

import (
	"testing"
	"time"

	"github.com/spec-kit/lead-router/internal/config"
	"github.com/spec-kit/lead-router/internal/domain"
)

func testSLAConfig() config.SLAConfig {
	return config.SLAConfig{
		HotWindow:  5 * time.Minute,
		WarmWindow: 30 * time.Minute,
		ColdWindow: 4 * time.Hour,
	}
}

func TestComputeDeadline(t *testing.T) {
	clock := NewSLAClock(testSLAConfig())
	assignedAt := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		temperature domain.Temperature
		want        time.Time
	}{
		{domain.TemperatureHot, assignedAt.Add(5 * time.Minute)},
		{domain.TemperatureWarm, assignedAt.Add(30 * time.Minute)},
		{domain.TemperatureCold, assignedAt.Add(4 * time.Hour)},
		// unknown values fall back to the warm window
		{"tepid", assignedAt.Add(30 * time.Minute)},
	}

	for _, tt := range tests {
		if got := clock.ComputeDeadline(tt.temperature, assignedAt); !got.Equal(tt.want) {
			t.Errorf("ComputeDeadline(%q) = %v, want %v", tt.temperature, got, tt.want)
		}
	}
}

func TestWindowOrdering(t *testing.T) {
	clock := NewSLAClock(testSLAConfig())
	hot := clock.Window(domain.TemperatureHot)
	warm := clock.Window(domain.TemperatureWarm)
	cold := clock.Window(domain.TemperatureCold)

	if hot > warm || warm > cold {
		t.Errorf("window ordering violated: hot=%v warm=%v cold=%v", hot, warm, cold)
	}
}

func TestResponseSeconds(t *testing.T) {
	clock := NewSLAClock(testSLAConfig())
	assignedAt := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		contactedAt time.Time
		want        int64
		wantOK      bool
	}{
		{
			name:        "normal response",
			contactedAt: assignedAt.Add(12 * time.Minute),
			want:        720,
			wantOK:      true,
		},
		{
			name:        "instant response",
			contactedAt: assignedAt,
			want:        0,
			wantOK:      true,
		},
		{
			name:        "clock skew fails closed",
			contactedAt: assignedAt.Add(-time.Minute),
			wantOK:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := clock.ResponseSeconds(assignedAt, tt.contactedAt)
			if ok != tt.wantOK {
				t.Fatalf("ResponseSeconds() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ResponseSeconds() = %d, want %d", got, tt.want)
			}
		})
	}
}
