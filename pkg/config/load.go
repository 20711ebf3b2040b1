package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any
// errors. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg := NewDefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}
	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// applies environment variable overrides. Environment variables follow the
// naming convention SATURN_SECTION_FIELD (e.g., SATURN_QUEUE_WORKERS) and
// always take precedence over file-based configuration.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	// Server
	if val := os.Getenv("SATURN_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv("SATURN_SERVER_READ_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if val := os.Getenv("SATURN_SERVER_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}

	// Rules
	if val := os.Getenv("SATURN_RULES_FILE_PATH"); val != "" {
		cfg.Rules.FilePath = val
	}
	if val := os.Getenv("SATURN_RULES_WATCH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Rules.Watch = b
		}
	}

	// Documents
	if val := os.Getenv("SATURN_DOCUMENTS_BACKEND"); val != "" {
		cfg.Documents.Backend = val
	}
	if val := os.Getenv("SATURN_DOCUMENTS_SQLITE_PATH"); val != "" {
		cfg.Documents.SQLitePath = val
	}

	// Queue
	if val := os.Getenv("SATURN_QUEUE_BACKEND"); val != "" {
		cfg.Queue.Backend = val
	}
	if val := os.Getenv("SATURN_QUEUE_SQLITE_PATH"); val != "" {
		cfg.Queue.SQLitePath = val
	}
	if val := os.Getenv("SATURN_QUEUE_WORKERS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Queue.Workers = i
		}
	}
	if val := os.Getenv("SATURN_QUEUE_LEASE"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Queue.Lease = d
		}
	}
	if val := os.Getenv("SATURN_QUEUE_POLL_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Queue.PollInterval = d
		}
	}

	// Sweep
	if val := os.Getenv("SATURN_SWEEP_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Sweep.Enabled = b
		}
	}
	if val := os.Getenv("SATURN_SWEEP_SCHEDULE"); val != "" {
		cfg.Sweep.Schedule = val
	}

	// Audit
	if val := os.Getenv("SATURN_AUDIT_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Audit.Enabled = b
		}
	}
	if val := os.Getenv("SATURN_AUDIT_SQLITE_PATH"); val != "" {
		cfg.Audit.SQLitePath = val
	}

	// Vocabulary
	if val := os.Getenv("SATURN_VOCABULARY_SQLITE_PATH"); val != "" {
		cfg.Vocabulary.SQLitePath = val
	}

	// Telemetry
	if val := os.Getenv("SATURN_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("SATURN_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("SATURN_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
}
