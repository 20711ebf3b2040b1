// Package logging configures the process-wide structured logger.
//
// Saturn logs through log/slog. Setup builds a handler from the logging
// configuration and installs it as the slog default, so components obtain
// loggers with slog.Default().With("component", name).
package logging
