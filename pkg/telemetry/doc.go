// Package telemetry provides observability for Saturn.
//
// # Components
//
//   - logging: structured logging built on log/slog
//   - metrics: Prometheus metrics collection
//   - health: liveness and readiness endpoints
//
// # Usage
//
//	logger, err := logging.Setup(&cfg.Telemetry.Logging)
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	collector.Retention.RecordAttachment("contracts-10y", "immediate")
//	http.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
package telemetry
