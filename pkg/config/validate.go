package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field
	// (e.g., "queue.workers").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a
// configuration. All field errors are collected and returned together.
type ValidationError struct {
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

var validBackends = map[string]bool{"memory": true, "sqlite": true}

// Validate validates the entire configuration and returns a ValidationError
// if any rules fail. It returns nil if the configuration is valid.
func Validate(cfg *Config) error {
	var errs []FieldError

	if cfg.Server.ListenAddress == "" {
		errs = append(errs, FieldError{"server.listen_address", "must not be empty"})
	}
	if cfg.Server.ReadTimeout < 0 {
		errs = append(errs, FieldError{"server.read_timeout", "must not be negative"})
	}
	if cfg.Server.WriteTimeout < 0 {
		errs = append(errs, FieldError{"server.write_timeout", "must not be negative"})
	}

	if cfg.Rules.FilePath == "" {
		errs = append(errs, FieldError{"rules.file_path", "must not be empty"})
	}

	if !validBackends[cfg.Documents.Backend] {
		errs = append(errs, FieldError{"documents.backend",
			fmt.Sprintf("unknown backend %q, must be \"memory\" or \"sqlite\"", cfg.Documents.Backend)})
	}
	if cfg.Documents.Backend == "sqlite" && cfg.Documents.SQLitePath == "" {
		errs = append(errs, FieldError{"documents.sqlite_path", "must not be empty for the sqlite backend"})
	}

	if !validBackends[cfg.Queue.Backend] {
		errs = append(errs, FieldError{"queue.backend",
			fmt.Sprintf("unknown backend %q, must be \"memory\" or \"sqlite\"", cfg.Queue.Backend)})
	}
	if cfg.Queue.Backend == "sqlite" && cfg.Queue.SQLitePath == "" {
		errs = append(errs, FieldError{"queue.sqlite_path", "must not be empty for the sqlite backend"})
	}
	if cfg.Queue.Workers < 1 {
		errs = append(errs, FieldError{"queue.workers", "must be at least 1"})
	}
	if cfg.Queue.Lease <= 0 {
		errs = append(errs, FieldError{"queue.lease", "must be positive"})
	}
	if cfg.Queue.PollInterval <= 0 {
		errs = append(errs, FieldError{"queue.poll_interval", "must be positive"})
	}

	if cfg.Sweep.Enabled {
		parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		if _, err := parser.Parse(cfg.Sweep.Schedule); err != nil {
			errs = append(errs, FieldError{"sweep.schedule",
				fmt.Sprintf("invalid cron expression %q: %v", cfg.Sweep.Schedule, err)})
		}
		if cfg.Sweep.Timeout <= 0 {
			errs = append(errs, FieldError{"sweep.timeout", "must be positive"})
		}
	}

	if !validBackends[cfg.Audit.Backend] {
		errs = append(errs, FieldError{"audit.backend",
			fmt.Sprintf("unknown backend %q, must be \"memory\" or \"sqlite\"", cfg.Audit.Backend)})
	}
	if !validBackends[cfg.Vocabulary.Backend] {
		errs = append(errs, FieldError{"vocabulary.backend",
			fmt.Sprintf("unknown backend %q, must be \"memory\" or \"sqlite\"", cfg.Vocabulary.Backend)})
	}

	switch cfg.Telemetry.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{"telemetry.logging.level",
			fmt.Sprintf("unknown level %q, must be one of debug, info, warn, error", cfg.Telemetry.Logging.Level)})
	}
	switch cfg.Telemetry.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{"telemetry.logging.format",
			fmt.Sprintf("unknown format %q, must be \"json\" or \"text\"", cfg.Telemetry.Logging.Format)})
	}
	if cfg.Telemetry.Metrics.Enabled && !strings.HasPrefix(cfg.Telemetry.Metrics.Path, "/") {
		errs = append(errs, FieldError{"telemetry.metrics.path", "must start with /"})
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}
