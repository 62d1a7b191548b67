package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the registration loop.
type Metrics struct {
	config MetricsConfig

	flowsRegistered      *prometheus.CounterVec
	runsCreated          prometheus.Counter
	hooksRegistered      prometheus.Counter
	registrationErrors   *prometheus.CounterVec
	registrationDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

// NewMetrics creates a metrics collector. With metrics disabled a no-op
// instance is returned.
func NewMetrics(cfg MetricsConfig) *Metrics {
	m := &Metrics{config: cfg}
	if !cfg.Enabled {
		return m
	}

	namespace := cfg.Namespace
	m.registry = prometheus.NewRegistry()

	m.flowsRegistered = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "flows_registered_total",
		Help:      "Flows registered with the workflow engine, by bakery.",
	}, []string{"bakery"})

	m.runsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "flow_runs_created_total",
		Help:      "Immediate flow runs triggered after registration.",
	})

	m.hooksRegistered = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "automation_hooks_registered_total",
		Help:      "Follow-up automation hooks registered.",
	})

	m.registrationErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registration_errors_total",
		Help:      "Registration failures, by error kind.",
	}, []string{"kind"})

	m.registrationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "registration_duration_seconds",
		Help:      "Time to resolve and register one recipe.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"bakery"})

	m.registry.MustRegister(
		m.flowsRegistered,
		m.runsCreated,
		m.hooksRegistered,
		m.registrationErrors,
		m.registrationDuration,
	)
	return m
}

// FlowRegistered records a successful flow registration.
func (m *Metrics) FlowRegistered(bakeryID string) {
	if m.flowsRegistered != nil {
		m.flowsRegistered.WithLabelValues(bakeryID).Inc()
	}
}

// RunCreated records an immediate flow run.
func (m *Metrics) RunCreated() {
	if m.runsCreated != nil {
		m.runsCreated.Inc()
	}
}

// HookRegistered records a follow-up automation hook registration.
func (m *Metrics) HookRegistered() {
	if m.hooksRegistered != nil {
		m.hooksRegistered.Inc()
	}
}

// RegistrationError records a failure by error kind.
func (m *Metrics) RegistrationError(kind string) {
	if m.registrationErrors != nil {
		m.registrationErrors.WithLabelValues(kind).Inc()
	}
}

// ObserveRegistration records the duration of one recipe registration.
func (m *Metrics) ObserveRegistration(bakeryID string, seconds float64) {
	if m.registrationDuration != nil {
		m.registrationDuration.WithLabelValues(bakeryID).Observe(seconds)
	}
}

// Handler returns the HTTP handler serving the metrics endpoint, or nil when
// metrics are disabled.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return nil
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
