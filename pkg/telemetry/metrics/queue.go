package metrics

import (
	"time"

	"custodia-hq/saturn/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// QueueMetrics tracks the asynchronous evaluation queue.
//
// Metrics:
//   - custodia_saturn_queue_depth: tasks currently enqueued or claimed
//   - custodia_saturn_queue_tasks_total: processed tasks by kind and result
//   - custodia_saturn_queue_task_duration_seconds: task processing duration by kind
type QueueMetrics struct {
	depth        prometheus.Gauge
	tasksTotal   *prometheus.CounterVec
	taskDuration *prometheus.HistogramVec
}

// NewQueueMetrics creates and registers queue metrics with the provided
// registry.
func NewQueueMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *QueueMetrics {
	qm := &QueueMetrics{
		depth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "queue_depth",
				Help:      "Number of tasks currently enqueued or claimed",
			},
		),

		tasksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "queue_tasks_total",
				Help:      "Total number of processed queue tasks",
			},
			[]string{"kind", "result"},
		),

		taskDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "queue_task_duration_seconds",
				Help:      "Duration of queue task processing in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{"kind"},
		),
	}

	registry.MustRegister(qm.depth, qm.tasksTotal, qm.taskDuration)
	return qm
}

// SetDepth sets the current queue depth gauge.
func (qm *QueueMetrics) SetDepth(n int) {
	qm.depth.Set(float64(n))
}

// RecordTask records one processed task with its result ("ok" or "error").
func (qm *QueueMetrics) RecordTask(kind, result string, d time.Duration) {
	qm.tasksTotal.WithLabelValues(kind, result).Inc()
	qm.taskDuration.WithLabelValues(kind).Observe(d.Seconds())
}
