package metrics

import (
	"time"

	"custodia-hq/saturn/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// RetentionMetrics tracks the retention lifecycle.
//
// Metrics:
//   - custodia_saturn_rule_attachments_total: rule attachments by rule and starting point
//   - custodia_saturn_attachment_failures_total: refused attachments by reason
//   - custodia_saturn_rule_evaluations_total: event-based evaluations by rule and outcome
//   - custodia_saturn_retention_expirations_total: records whose retention expired
//   - custodia_saturn_events_fired_total: retention events fired by name
//   - custodia_saturn_sweep_duration_seconds: duration of one expiration sweep cycle
type RetentionMetrics struct {
	attachmentsTotal *prometheus.CounterVec
	failuresTotal    *prometheus.CounterVec
	evaluationsTotal *prometheus.CounterVec
	expirationsTotal prometheus.Counter
	eventsFiredTotal *prometheus.CounterVec
	sweepDuration    prometheus.Histogram
}

// NewRetentionMetrics creates and registers retention metrics with the
// provided registry.
func NewRetentionMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RetentionMetrics {
	rm := &RetentionMetrics{
		attachmentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "rule_attachments_total",
				Help:      "Total number of retention rule attachments",
			},
			[]string{"rule_id", "starting_point"},
		),

		failuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "attachment_failures_total",
				Help:      "Total number of refused rule attachments",
			},
			[]string{"reason"},
		),

		evaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "rule_evaluations_total",
				Help:      "Total number of event-based rule evaluations",
			},
			[]string{"rule_id", "outcome"},
		),

		expirationsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "retention_expirations_total",
				Help:      "Total number of records whose retention expired",
			},
		),

		eventsFiredTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "events_fired_total",
				Help:      "Total number of retention events fired",
			},
			[]string{"event"},
		),

		sweepDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "sweep_duration_seconds",
				Help:      "Duration of one expiration sweep cycle in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms to ~4m
			},
		),
	}

	registry.MustRegister(
		rm.attachmentsTotal,
		rm.failuresTotal,
		rm.evaluationsTotal,
		rm.expirationsTotal,
		rm.eventsFiredTotal,
		rm.sweepDuration,
	)

	return rm
}

// RecordAttachment records a successful rule attachment.
func (rm *RetentionMetrics) RecordAttachment(ruleID, startingPoint string) {
	rm.attachmentsTotal.WithLabelValues(ruleID, startingPoint).Inc()
}

// RecordAttachmentFailure records a refused attachment with its reason
// ("unauthorized", "disabled", "doc-type", "metadata", "already-retained",
// "kind-conflict").
func (rm *RetentionMetrics) RecordAttachmentFailure(reason string) {
	rm.failuresTotal.WithLabelValues(reason).Inc()
}

// RecordEvaluation records one event-based rule evaluation with its outcome
// ("matched", "unmatched", "error").
func (rm *RetentionMetrics) RecordEvaluation(ruleID, outcome string) {
	rm.evaluationsTotal.WithLabelValues(ruleID, outcome).Inc()
}

// RecordExpiration records one record whose retention expired.
func (rm *RetentionMetrics) RecordExpiration() {
	rm.expirationsTotal.Inc()
}

// RecordEventFired records a fired retention event.
func (rm *RetentionMetrics) RecordEventFired(event string) {
	rm.eventsFiredTotal.WithLabelValues(event).Inc()
}

// RecordSweepDuration records the duration of one sweep cycle.
func (rm *RetentionMetrics) RecordSweepDuration(d time.Duration) {
	rm.sweepDuration.Observe(d.Seconds())
}
