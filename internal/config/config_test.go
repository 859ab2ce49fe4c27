package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv(EnvDataDir, t.TempDir())
	cfg, err := New()
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if cfg.Port != DefaultPort {
		t.Errorf("port = %d, want %d", cfg.Port, DefaultPort)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("log level = %q", cfg.LogLevel)
	}
	if cfg.BackendURL != DefaultBackendURL {
		t.Errorf("backend url = %q", cfg.BackendURL)
	}
	if cfg.SettleDelay() != 1500*time.Millisecond {
		t.Errorf("settle delay = %v", cfg.SettleDelay())
	}
	limits := cfg.ParamLimits()
	if limits.FPSMin != 0.5 || limits.FPSMax != 15 || limits.BatchMax != 128 {
		t.Errorf("limits = %+v", limits)
	}
}

func TestNew_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
port: 9100
backend_url: http://media-host:8000
process_limits:
  fps_min: 1
  fps_max: 10
  threshold_min: 0.2
  threshold_max: 0.8
  batch_min: 8
  batch_max: 64
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvConfigFile, path)

	cfg, err := New()
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if cfg.Port != 9100 {
		t.Errorf("port = %d, want 9100", cfg.Port)
	}
	if cfg.BackendURL != "http://media-host:8000" {
		t.Errorf("backend url = %q", cfg.BackendURL)
	}
	if cfg.Limits.BatchMin != 8 {
		t.Errorf("batch min = %d, want 8", cfg.Limits.BatchMin)
	}
	// Unset file keys keep their defaults.
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("log level = %q, want default", cfg.LogLevel)
	}
}

func TestNew_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("port: 9100\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvConfigFile, path)
	t.Setenv(EnvPort, "9200")
	t.Setenv(EnvSettleDelayMs, "250")

	cfg, err := New()
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if cfg.Port != 9200 {
		t.Errorf("port = %d, want env override 9200", cfg.Port)
	}
	if cfg.SettleDelay() != 250*time.Millisecond {
		t.Errorf("settle delay = %v", cfg.SettleDelay())
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		env   string
		value string
	}{
		{"non-numeric port", EnvPort, "eighty"},
		{"port out of range", EnvPort, "70000"},
		{"negative settle delay", EnvSettleDelayMs, "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.env, tt.value)
			if _, err := New(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNew_MissingExplicitFile(t *testing.T) {
	t.Setenv(EnvConfigFile, filepath.Join(t.TempDir(), "nope.yaml"))
	if _, err := New(); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}
