// Package config loads the daemon configuration: built-in defaults, then an
// optional YAML file, then environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/scenedeck/scenedeck/internal/backend"
)

const (
	DefaultPort          = 8799
	DefaultLogLevel      = "info"
	DefaultDataDir       = ".scenedeck"
	DefaultBackendURL    = "http://localhost:8000"
	DefaultSettleDelayMs = 1500

	EnvPort          = "SCENEDECK_PORT"
	EnvLogLevel      = "SCENEDECK_LOG_LEVEL"
	EnvDataDir       = "SCENEDECK_DATA_DIR"
	EnvBackendURL    = "SCENEDECK_BACKEND_URL"
	EnvConfigFile    = "SCENEDECK_CONFIG"
	EnvSettleDelayMs = "SCENEDECK_SETTLE_DELAY_MS"

	DBFilename = "scenedeck.db"
)

// Limits is the allowed range for each processing parameter, as exposed to
// the display for slider bounds.
type Limits struct {
	FPSMin       float64 `yaml:"fps_min"`
	FPSMax       float64 `yaml:"fps_max"`
	ThresholdMin float64 `yaml:"threshold_min"`
	ThresholdMax float64 `yaml:"threshold_max"`
	BatchMin     int     `yaml:"batch_min"`
	BatchMax     int     `yaml:"batch_max"`
}

type Config struct {
	Port          int    `yaml:"port"`
	LogLevel      string `yaml:"log_level"`
	DataDir       string `yaml:"data_dir"`
	BackendURL    string `yaml:"backend_url"`
	SettleDelayMs int    `yaml:"settle_delay_ms"`
	Limits        Limits `yaml:"process_limits"`
}

// New builds the configuration. The YAML file named by SCENEDECK_CONFIG is
// optional; a missing default file is not an error, a named-but-unreadable
// one is.
func New() (*Config, error) {
	cfg := &Config{
		Port:          DefaultPort,
		LogLevel:      DefaultLogLevel,
		DataDir:       defaultDataDir(),
		BackendURL:    DefaultBackendURL,
		SettleDelayMs: DefaultSettleDelayMs,
		Limits: Limits{
			FPSMin: 0.5, FPSMax: 15,
			ThresholdMin: 0.1, ThresholdMax: 0.9,
			BatchMin: 4, BatchMax: 128,
		},
	}

	path := os.Getenv(EnvConfigFile)
	explicit := path != ""
	if !explicit {
		dataDir := cfg.DataDir
		if dd := os.Getenv(EnvDataDir); dd != "" {
			dataDir = dd
		}
		path = filepath.Join(dataDir, "config.yaml")
	}
	if raw, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Port)
	}
	if cfg.SettleDelayMs < 0 {
		return nil, fmt.Errorf("settle_delay_ms must not be negative, got %d", cfg.SettleDelayMs)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		cfg.Port = port
	}
	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.LogLevel = ll
	}
	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.DataDir = dd
	}
	if bu := os.Getenv(EnvBackendURL); bu != "" {
		cfg.BackendURL = bu
	}
	if sd := os.Getenv(EnvSettleDelayMs); sd != "" {
		ms, err := strconv.Atoi(sd)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvSettleDelayMs, err)
		}
		cfg.SettleDelayMs = ms
	}
	return nil
}

// DBPath is the full path to the SQLite database file.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, DBFilename)
}

// ThumbnailDir is where fetched thumbnails are cached.
func (c *Config) ThumbnailDir() string {
	return filepath.Join(c.DataDir, "thumbnails")
}

func (c *Config) SettleDelay() time.Duration {
	return time.Duration(c.SettleDelayMs) * time.Millisecond
}

// ParamLimits converts the configured ranges to the backend client's form.
func (c *Config) ParamLimits() backend.ParamLimits {
	return backend.ParamLimits{
		FPSMin: c.Limits.FPSMin, FPSMax: c.Limits.FPSMax,
		ThresholdMin: c.Limits.ThresholdMin, ThresholdMax: c.Limits.ThresholdMax,
		BatchMin: c.Limits.BatchMin, BatchMax: c.Limits.BatchMax,
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}
