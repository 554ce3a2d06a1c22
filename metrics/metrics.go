// Package metrics records mapping run statistics in a private Prometheus
// registry. Batch runs export them through the node exporter textfile
// collector instead of serving an endpoint.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/teranos/ontomap/errors"
)

const namespace = "ontomap"

// Recorder holds the ontomap metrics
type Recorder struct {
	registry *prometheus.Registry

	TermsMapped     *prometheus.CounterVec
	TermsUnmapped   *prometheus.CounterVec
	MappingDuration *prometheus.HistogramVec
	OntologyTerms   *prometheus.GaugeVec
	CacheOperations *prometheus.CounterVec
}

// New creates a Recorder with its metrics registered on a fresh registry
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),

		TermsMapped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "mapping",
				Name:      "terms_mapped_total",
				Help:      "Source terms with at least one mapping",
			},
			[]string{"mapper"},
		),

		TermsUnmapped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "mapping",
				Name:      "terms_unmapped_total",
				Help:      "Source terms without any mapping above the minimum score",
			},
			[]string{"mapper"},
		),

		MappingDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "mapping",
				Name:      "duration_seconds",
				Help:      "Wall time of a mapping run",
				Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
			},
			[]string{"mapper"},
		),

		OntologyTerms: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "ontology",
				Name:      "terms",
				Help:      "Terms in the last collection loaded for an ontology",
			},
			[]string{"ontology", "source"},
		),

		CacheOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "operations_total",
				Help:      "Cache operations by kind and outcome",
			},
			[]string{"operation", "status"},
		),
	}

	r.registry.MustRegister(
		r.TermsMapped,
		r.TermsUnmapped,
		r.MappingDuration,
		r.OntologyTerms,
		r.CacheOperations,
	)
	return r
}

// Registry exposes the underlying registry for gathering
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// RecordMapping adds the outcome of one mapping run
func (r *Recorder) RecordMapping(mapper string, mapped, unmapped int, elapsed time.Duration) {
	r.TermsMapped.WithLabelValues(mapper).Add(float64(mapped))
	r.TermsUnmapped.WithLabelValues(mapper).Add(float64(unmapped))
	r.MappingDuration.WithLabelValues(mapper).Observe(elapsed.Seconds())
}

// RecordOntologyTerms sets the term count of a loaded collection.
// source is "cache" or "load".
func (r *Recorder) RecordOntologyTerms(ontology, source string, count int) {
	r.OntologyTerms.WithLabelValues(ontology, source).Set(float64(count))
}

// RecordCacheOperation counts a cache operation, labelled by whether err is nil
func (r *Recorder) RecordCacheOperation(operation string, err error) {
	status := "success"
	switch {
	case errors.IsCacheMiss(err):
		status = "miss"
	case err != nil:
		status = "error"
	}
	r.CacheOperations.WithLabelValues(operation, status).Inc()
}

// WriteTextfile writes every metric to path in the text exposition format.
// The file is replaced atomically so the node exporter never reads a partial write.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return errors.Wrapf(err, "write metrics to %s", path)
	}
	return nil
}
