package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8484"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Rules defaults
	DefaultRulesFilePath = "./rules.yaml"
	DefaultRulesWatch    = false

	// Documents defaults
	DefaultDocumentsBackend    = "sqlite"
	DefaultDocumentsSQLitePath = "data/documents.db"
	DefaultBusyTimeout         = 5 * time.Second

	// Queue defaults
	DefaultQueueBackend      = "sqlite"
	DefaultQueueSQLitePath   = "data/queue.db"
	DefaultQueueLease        = 5 * time.Minute
	DefaultQueueWorkers      = 4
	DefaultQueuePollInterval = time.Second

	// Sweep defaults
	DefaultSweepEnabled  = true
	DefaultSweepSchedule = "@every 1m"
	DefaultSweepTimeout  = 5 * time.Minute

	// Audit defaults
	DefaultAuditEnabled    = true
	DefaultAuditBackend    = "sqlite"
	DefaultAuditSQLitePath = "data/audit.db"

	// Vocabulary defaults
	DefaultVocabularyBackend    = "sqlite"
	DefaultVocabularySQLitePath = "data/vocabulary.db"

	// Telemetry defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "json"
	DefaultMetricsEnabled   = true
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "custodia"
	DefaultMetricsSubsystem = "saturn"
)

// ApplyDefaults fills in default values for any configuration fields that
// were not explicitly set. Boolean fields with a true default cannot be
// distinguished from an explicit false after unmarshaling, so they are set
// by NewDefaultConfig instead.
func ApplyDefaults(cfg *Config) {
	// Server
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	// Rules
	if cfg.Rules.FilePath == "" {
		cfg.Rules.FilePath = DefaultRulesFilePath
	}

	// Documents
	if cfg.Documents.Backend == "" {
		cfg.Documents.Backend = DefaultDocumentsBackend
	}
	if cfg.Documents.SQLitePath == "" {
		cfg.Documents.SQLitePath = DefaultDocumentsSQLitePath
	}
	if cfg.Documents.BusyTimeout == 0 {
		cfg.Documents.BusyTimeout = DefaultBusyTimeout
	}

	// Queue
	if cfg.Queue.Backend == "" {
		cfg.Queue.Backend = DefaultQueueBackend
	}
	if cfg.Queue.SQLitePath == "" {
		cfg.Queue.SQLitePath = DefaultQueueSQLitePath
	}
	if cfg.Queue.Lease == 0 {
		cfg.Queue.Lease = DefaultQueueLease
	}
	if cfg.Queue.Workers == 0 {
		cfg.Queue.Workers = DefaultQueueWorkers
	}
	if cfg.Queue.PollInterval == 0 {
		cfg.Queue.PollInterval = DefaultQueuePollInterval
	}

	// Sweep
	if cfg.Sweep.Schedule == "" {
		cfg.Sweep.Schedule = DefaultSweepSchedule
	}
	if cfg.Sweep.Timeout == 0 {
		cfg.Sweep.Timeout = DefaultSweepTimeout
	}

	// Audit
	if cfg.Audit.Backend == "" {
		cfg.Audit.Backend = DefaultAuditBackend
	}
	if cfg.Audit.SQLitePath == "" {
		cfg.Audit.SQLitePath = DefaultAuditSQLitePath
	}

	// Vocabulary
	if cfg.Vocabulary.Backend == "" {
		cfg.Vocabulary.Backend = DefaultVocabularyBackend
	}
	if cfg.Vocabulary.SQLitePath == "" {
		cfg.Vocabulary.SQLitePath = DefaultVocabularySQLitePath
	}

	// Telemetry
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
}

// NewDefaultConfig returns a configuration with every field set to its
// default value, including the booleans that default to true.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	cfg.Rules.Watch = DefaultRulesWatch
	cfg.Sweep.Enabled = DefaultSweepEnabled
	cfg.Audit.Enabled = DefaultAuditEnabled
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	ApplyDefaults(cfg)
	return cfg
}
