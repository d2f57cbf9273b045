package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Option configures a Manager. Zero values leave the default in place.
type Option func(*Manager)

// WithNamespace replaces the "stylist" namespace.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithSubsystem replaces the "engine" subsystem.
func WithSubsystem(subsystem string) Option {
	return func(m *Manager) {
		if subsystem != "" {
			m.subsystem = subsystem
		}
	}
}

// WithHistogramBuckets sets the buckets of the latency histograms. Score
// and batch size histograms keep their own buckets.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.histogramBuckets = append([]float64(nil), buckets...)
		}
	}
}

// WithMetricsEnabled switches compatibility recording off when false.
// Manager.Enabled reports the setting.
func WithMetricsEnabled(enabled bool) Option {
	return func(m *Manager) { m.enabled = enabled }
}

// WithCustomLabels adds constant labels, e.g. the deployment region.
func WithCustomLabels(labels map[string]string) Option {
	return func(m *Manager) {
		for k, v := range labels {
			m.customLabels[k] = v
		}
	}
}

// WithMetricPrefix prepends prefix and an underscore to every metric name.
func WithMetricPrefix(prefix string) Option {
	return func(m *Manager) {
		if prefix != "" {
			m.metricPrefix = prefix
		}
	}
}

// WithPrometheusRegistry registers collectors with reg instead of the
// default registerer.
func WithPrometheusRegistry(reg prometheus.Registerer) Option {
	return func(m *Manager) {
		if reg != nil {
			m.registry = reg
		}
	}
}
