package metrics

import (
	"net/http"

	"custodia-hq/saturn/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns the Prometheus registry and all Saturn metric groups.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	// Retention holds the retention lifecycle metrics.
	Retention *RetentionMetrics

	// Queue holds the evaluation queue metrics.
	Queue *QueueMetrics
}

// NewCollector creates a collector with the specified configuration and
// registry. If registry is nil, a fresh one is created.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	return &Collector{
		config:    cfg,
		registry:  registry,
		Retention: NewRetentionMetrics(cfg, registry),
		Queue:     NewQueueMetrics(cfg, registry),
	}
}

// Registry returns the underlying Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns the HTTP handler for the metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(
		c.registry,
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
			ErrorHandling:     promhttp.ContinueOnError,
		},
	)
}
