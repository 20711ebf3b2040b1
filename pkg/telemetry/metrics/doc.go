// Package metrics implements Prometheus metrics collection for Saturn.
//
// The Collector owns a registry and the per-concern metric groups:
// retention lifecycle counters, rule evaluation outcomes, and queue depth.
// It exposes everything through a standard promhttp handler.
package metrics
