// Package metrics exposes Prometheus instrumentation for compiler builds.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "vizintent"

// Build holds the collectors updated once per build. A nil *Build is
// valid and records nothing.
type Build struct {
	Builds   *prometheus.CounterVec
	Options  prometheus.Counter
	Skipped  *prometheus.CounterVec
	Vis      prometheus.Counter
	Duration prometheus.Histogram
}

// NewBuild creates the collectors and registers them with reg.
// A nil reg skips registration.
func NewBuild(reg prometheus.Registerer) *Build {
	m := &Build{
		Builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "builds_total",
			Help:      "Builds by outcome (ok, invalid, error).",
		}, []string{"outcome"}),
		Options: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "options_total",
			Help:      "Intent options produced by wildcard expansion.",
		}),
		Skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "options_skipped_total",
			Help:      "Options dropped during compilation, by reason.",
		}, []string{"reason"}),
		Vis: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "vis_total",
			Help:      "Visualizations returned after deduplication.",
		}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "build_duration_seconds",
			Help:      "Wall time of a full build.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Builds, m.Options, m.Skipped, m.Vis, m.Duration)
	}
	return m
}

// Outcome labels for Builds.
const (
	OutcomeOK      = "ok"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// ObserveBuild records one finished build.
func (m *Build) ObserveBuild(outcome string, options, vis int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Builds.WithLabelValues(outcome).Inc()
	m.Options.Add(float64(options))
	m.Vis.Add(float64(vis))
	m.Duration.Observe(elapsed.Seconds())
}

// ObserveSkip records one skipped option.
func (m *Build) ObserveSkip(reason string) {
	if m == nil {
		return
	}
	m.Skipped.WithLabelValues(reason).Inc()
}
