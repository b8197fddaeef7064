package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != 8084 {
		t.Errorf("default port = %d, want 8084", cfg.Server.Port)
	}
	if cfg.Address() != "localhost:8084" {
		t.Errorf("Address() = %q, want localhost:8084", cfg.Address())
	}

	wantStart := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	if !cfg.Dataset.StartDate.Equal(wantStart) {
		t.Errorf("default start date = %v, want %v", cfg.Dataset.StartDate, wantStart)
	}
	if len(cfg.Dataset.Categories) != 3 {
		t.Errorf("default categories = %v, want 3 entries", cfg.Dataset.Categories)
	}
	if cfg.Dataset.States != nil {
		t.Errorf("default states should be nil (full roster), got %v", cfg.Dataset.States)
	}
	if cfg.Dataset.Seed != nil {
		t.Error("default seed should be nil (fresh dataset per process)")
	}
	if cfg.Dataset.RollingWindow != 3 {
		t.Errorf("default rolling window = %d, want 3", cfg.Dataset.RollingWindow)
	}
	if cfg.Logger.Level != "info" || cfg.Logger.Format != "json" {
		t.Errorf("unexpected logger defaults: %+v", cfg.Logger)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("DATASET_START_DATE", "2021-06-01")
	t.Setenv("DATASET_END_DATE", "2023-06-01")
	t.Setenv("DATASET_CATEGORIES", "TwoWheeler, Commercial")
	t.Setenv("DATASET_STATES", "Delhi,Punjab")
	t.Setenv("DATASET_SEED", "42")
	t.Setenv("DATASET_ROLLING_WINDOW", "6")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Server.Port)
	}
	if got := cfg.Dataset.StartDate.Format("2006-01-02"); got != "2021-06-01" {
		t.Errorf("start date = %s, want 2021-06-01", got)
	}
	if len(cfg.Dataset.Categories) != 2 || cfg.Dataset.Categories[1] != "Commercial" {
		t.Errorf("categories = %v, want [TwoWheeler Commercial]", cfg.Dataset.Categories)
	}
	if len(cfg.Dataset.States) != 2 || cfg.Dataset.States[0] != "Delhi" {
		t.Errorf("states = %v, want [Delhi Punjab]", cfg.Dataset.States)
	}
	if cfg.Dataset.Seed == nil || *cfg.Dataset.Seed != 42 {
		t.Errorf("seed = %v, want 42", cfg.Dataset.Seed)
	}
	if cfg.Dataset.RollingWindow != 6 {
		t.Errorf("rolling window = %d, want 6", cfg.Dataset.RollingWindow)
	}
	if cfg.Logger.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Logger.Level)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{"bad port", "SERVER_PORT", "70000", "server port"},
		{"malformed start date", "DATASET_START_DATE", "June 2021", "expected YYYY-MM-DD"},
		{"start after end", "DATASET_START_DATE", "2025-06-01", "after end date"},
		{"unknown category", "DATASET_CATEGORIES", "Boats", "unknown vehicle category"},
		{"unknown state", "DATASET_STATES", "Atlantis", "unknown state"},
		{"bad window", "DATASET_ROLLING_WINDOW", "0", "rolling window"},
		{"bad log level", "LOG_LEVEL", "verbose", "invalid log level"},
		{"bad log format", "LOG_FORMAT", "xml", "invalid log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			if err == nil {
				t.Fatalf("Load() should fail with %s=%s", tt.key, tt.value)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_DirectConstruction(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	cfg.Security.RateLimitRPS = 0
	if err := cfg.validate(); err == nil {
		t.Error("validate() should reject zero rate limit RPS")
	}

	cfg.Security.RateLimitRPS = 100
	cfg.Security.RateLimitBurst = -1
	if err := cfg.validate(); err == nil {
		t.Error("validate() should reject negative rate limit burst")
	}
}
