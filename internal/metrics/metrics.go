// Package metrics collects pipeline counters on a private registry and writes
// them in the Prometheus text format for a node-exporter textfile collector.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result label values for PagesBuilt
const (
	ResultBuilt   = "built"
	ResultCached  = "cached"
	ResultSkipped = "skipped"
	ResultFailed  = "failed"
)

// Metrics groups the pipeline's collectors
type Metrics struct {
	registry *prometheus.Registry

	PolylinesDecoded prometheus.Counter
	PagesBuilt       *prometheus.CounterVec
	CacheHits        prometheus.Counter
	PageBuildSeconds prometheus.Histogram
}

// New registers the pipeline collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		PolylinesDecoded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "routebook",
			Name:      "polylines_decoded_total",
			Help:      "Total activity polylines decoded",
		}),

		PagesBuilt: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "routebook",
			Name:      "pages_built_total",
			Help:      "Pages processed by outcome",
		}, []string{"result"}),

		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "routebook",
			Name:      "cache_hits_total",
			Help:      "Pages served from the page cache",
		}),

		PageBuildSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "routebook",
			Name:      "page_build_seconds",
			Help:      "Time spent merging a group and building its profile",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
	}
}

// Registry exposes the underlying registry, e.g. for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes all collected metrics to path atomically
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
