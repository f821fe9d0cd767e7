// Package metrics holds the Prometheus collectors for the cache layer and the core protocols.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the service collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	cacheLookups       *prometheus.CounterVec
	cacheErrors        *prometheus.CounterVec
	assignments        *prometheus.CounterVec
	assignmentAttempts prometheus.Histogram
	codeCollisions     prometheus.Counter
	resolutions        *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Cache lookups partitioned by index (code, hash, claim) and result (hit, miss, error)
		cacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shortlink_cache_lookups_total",
				Help: "Cache lookups by index and result",
			},
			[]string{"index", "result"},
		),
		cacheErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shortlink_cache_errors_total",
				Help: "Cache backend failures absorbed as misses",
			},
			[]string{"op"},
		),
		assignments: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shortlink_assignments_total",
				Help: "Short code assignments by outcome",
			},
			[]string{"outcome"},
		),
		assignmentAttempts: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "shortlink_assignment_attempts",
				Help:    "Candidate codes tried per created record",
				Buckets: []float64{1, 2, 3, 4, 5, 7, 10},
			},
		),
		codeCollisions: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "shortlink_code_collisions_total",
				Help: "Candidate codes rejected because another record owns them",
			},
		),
		resolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shortlink_resolutions_total",
				Help: "Short code resolutions by result",
			},
			[]string{"result"},
		),
	}
}

// CacheLookup records a lookup against one cache index.
func (m *Metrics) CacheLookup(index, result string) {
	if m == nil {
		return
	}

	m.cacheLookups.WithLabelValues(index, result).Inc()
}

// CacheError records a cache backend failure.
func (m *Metrics) CacheError(op string) {
	if m == nil {
		return
	}

	m.cacheErrors.WithLabelValues(op).Inc()
}

// Assignment records a finished assignment.
func (m *Metrics) Assignment(outcome string) {
	if m == nil {
		return
	}

	m.assignments.WithLabelValues(outcome).Inc()
}

// AssignmentAttempts records how many candidates a creation needed.
func (m *Metrics) AssignmentAttempts(n int) {
	if m == nil {
		return
	}

	m.assignmentAttempts.Observe(float64(n))
}

// CodeCollision records a candidate lost to another record.
func (m *Metrics) CodeCollision() {
	if m == nil {
		return
	}

	m.codeCollisions.Inc()
}

// Resolution records a finished redirect lookup.
func (m *Metrics) Resolution(result string) {
	if m == nil {
		return
	}

	m.resolutions.WithLabelValues(result).Inc()
}
