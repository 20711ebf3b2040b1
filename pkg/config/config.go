package config

import "time"

// Config is the root configuration structure for Saturn. It contains all
// configuration sections for the admin server, rule source, document store,
// work queue, expiration sweep, audit trail, event vocabulary, and telemetry.
type Config struct {
	// Server contains the admin HTTP server configuration. The server
	// exposes the metrics and health endpoints.
	Server ServerConfig `yaml:"server"`

	// Rules contains configuration for the retention rule source including
	// the rule file location and watch mode.
	Rules RulesConfig `yaml:"rules"`

	// Documents contains configuration for the document store backend.
	Documents DocumentsConfig `yaml:"documents"`

	// Queue contains configuration for the asynchronous evaluation queue
	// and its worker pool.
	Queue QueueConfig `yaml:"queue"`

	// Sweep contains configuration for the scheduled expiration sweep.
	Sweep SweepConfig `yaml:"sweep"`

	// Audit contains configuration for the retention audit trail.
	Audit AuditConfig `yaml:"audit"`

	// Vocabulary contains configuration for the accepted-events directory.
	Vocabulary VocabularyConfig `yaml:"vocabulary"`

	// Telemetry contains configuration for logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the admin HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: "127.0.0.1:8484"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading a request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration for writing a response.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful
	// shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// RulesConfig contains configuration for the rule source.
type RulesConfig struct {
	// FilePath is the YAML file holding rule definitions.
	// Default: "./rules.yaml"
	FilePath string `yaml:"file_path"`

	// Watch enables hot-reloading of the rule file on change.
	// Default: false
	Watch bool `yaml:"watch"`
}

// DocumentsConfig contains configuration for the document store.
type DocumentsConfig struct {
	// Backend selects the store implementation.
	// Options: "memory", "sqlite"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLitePath is the database file path for the sqlite backend.
	// Default: "data/documents.db"
	SQLitePath string `yaml:"sqlite_path"`

	// BusyTimeout is how long SQLite waits for locks before failing.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// QueueConfig contains configuration for the evaluation work queue.
type QueueConfig struct {
	// Backend selects the queue implementation.
	// Options: "memory", "sqlite"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLitePath is the database file path for the sqlite backend.
	// Default: "data/queue.db"
	SQLitePath string `yaml:"sqlite_path"`

	// Lease is how long a claimed task stays invisible before it is
	// handed out again.
	// Default: 5m
	Lease time.Duration `yaml:"lease"`

	// Workers is the number of concurrent queue consumers.
	// Default: 4
	Workers int `yaml:"workers"`

	// PollInterval is how often idle workers poll for new tasks.
	// Default: 1s
	PollInterval time.Duration `yaml:"poll_interval"`
}

// SweepConfig contains configuration for the scheduled expiration sweep.
type SweepConfig struct {
	// Enabled controls whether the sweep runs.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Schedule is a cron expression for sweep runs.
	// Default: "@every 1m"
	Schedule string `yaml:"schedule"`

	// Timeout bounds a single sweep cycle.
	// Default: 5m
	Timeout time.Duration `yaml:"timeout"`
}

// AuditConfig contains configuration for the retention audit trail.
type AuditConfig struct {
	// Enabled controls whether retention operations are audited.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Backend selects the audit store implementation.
	// Options: "memory", "sqlite"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLitePath is the database file path for the sqlite backend.
	// Default: "data/audit.db"
	SQLitePath string `yaml:"sqlite_path"`
}

// VocabularyConfig contains configuration for the accepted-events directory.
type VocabularyConfig struct {
	// Backend selects the directory implementation.
	// Options: "memory", "sqlite"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLitePath is the database file path for the sqlite backend.
	// Default: "data/vocabulary.db"
	SQLitePath string `yaml:"sqlite_path"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "custodia"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "saturn"
	Subsystem string `yaml:"subsystem"`
}
