package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.SLA.HotWindow != 5*time.Minute {
		t.Errorf("HotWindow = %v, want 5m", cfg.SLA.HotWindow)
	}
	if cfg.SLA.WarmWindow != 30*time.Minute {
		t.Errorf("WarmWindow = %v, want 30m", cfg.SLA.WarmWindow)
	}
	if cfg.SLA.ColdWindow != 4*time.Hour {
		t.Errorf("ColdWindow = %v, want 4h", cfg.SLA.ColdWindow)
	}
	if cfg.Scheduler.ScanInterval != time.Minute {
		t.Errorf("ScanInterval = %v, want 1m", cfg.Scheduler.ScanInterval)
	}
	if cfg.Scheduler.MaxTier != 3 {
		t.Errorf("MaxTier = %d, want 3", cfg.Scheduler.MaxTier)
	}
	if cfg.Assignment.DefaultAgentCapacity != 10 {
		t.Errorf("DefaultAgentCapacity = %d, want 10", cfg.Assignment.DefaultAgentCapacity)
	}
	if cfg.Postgres.StoreTimeout() != 5*time.Second {
		t.Errorf("StoreTimeout() = %v, want 5s", cfg.Postgres.StoreTimeout())
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SLA_HOT_WINDOW", "2m")
	t.Setenv("SLA_WARM_WINDOW", "10m")
	t.Setenv("SLA_COLD_WINDOW", "1h")
	t.Setenv("ESCALATION_MAX_TIER", "5")
	t.Setenv("OVERDUE_SCAN_INTERVAL", "30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SLA.HotWindow != 2*time.Minute {
		t.Errorf("HotWindow = %v, want 2m", cfg.SLA.HotWindow)
	}
	if cfg.Scheduler.MaxTier != 5 {
		t.Errorf("MaxTier = %d, want 5", cfg.Scheduler.MaxTier)
	}
	if cfg.Scheduler.ScanInterval != 30*time.Second {
		t.Errorf("ScanInterval = %v, want 30s", cfg.Scheduler.ScanInterval)
	}
}

func TestSLAConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     SLAConfig
		wantErr bool
	}{
		{
			name: "ordered windows",
			cfg:  SLAConfig{HotWindow: time.Minute, WarmWindow: 10 * time.Minute, ColdWindow: time.Hour},
		},
		{
			name: "equal windows allowed",
			cfg:  SLAConfig{HotWindow: time.Minute, WarmWindow: time.Minute, ColdWindow: time.Minute},
		},
		{
			name:    "hot slower than warm",
			cfg:     SLAConfig{HotWindow: time.Hour, WarmWindow: 10 * time.Minute, ColdWindow: 2 * time.Hour},
			wantErr: true,
		},
		{
			name:    "warm slower than cold",
			cfg:     SLAConfig{HotWindow: time.Minute, WarmWindow: 2 * time.Hour, ColdWindow: time.Hour},
			wantErr: true,
		},
		{
			name:    "zero window",
			cfg:     SLAConfig{HotWindow: 0, WarmWindow: time.Minute, ColdWindow: time.Hour},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadRejectsUnorderedWindows(t *testing.T) {
	t.Setenv("SLA_HOT_WINDOW", "2h")
	t.Setenv("SLA_WARM_WINDOW", "30m")
	t.Setenv("SLA_COLD_WINDOW", "4h")

	if _, err := Load(); err == nil {
		t.Fatal("Load() error = nil, want window ordering error")
	}
}
