// Package config defines the Saturn configuration model and its loading
// pipeline.
//
// Configuration is read from a YAML file, filled with defaults, overridden
// by SATURN_* environment variables, and validated before use. A process
// normally loads configuration once at startup through Initialize and reads
// it through GetConfig; tests construct Config values directly.
package config
