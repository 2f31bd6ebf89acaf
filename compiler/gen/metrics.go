package gen

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the generation metrics.
type Metrics struct {
	// Files counts written files by builder type.
	Files *prometheus.CounterVec
	// Bytes counts written source bytes.
	Bytes prometheus.Counter
	// Duration observes whole Generate runs.
	Duration prometheus.Histogram
	// Entities counts built entities.
	Entities prometheus.Counter
}

// NewMetrics creates the metrics and registers them on reg. A nil reg leaves
// them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Files: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "propel_generated_files_total",
				Help: "Total number of generated files",
			},
			[]string{"builder"},
		),
		Bytes: f.NewCounter(
			prometheus.CounterOpts{
				Name: "propel_generated_bytes_total",
				Help: "Total size of generated source",
			},
		),
		Duration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "propel_generate_duration_seconds",
				Help:    "Duration of code generation runs in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		Entities: f.NewCounter(
			prometheus.CounterOpts{
				Name: "propel_built_entities_total",
				Help: "Total number of entities run through the builders",
			},
		),
	}
}
