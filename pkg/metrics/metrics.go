package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Strength evaluation metrics
	Evaluations *prometheus.CounterVec

	// Submission metrics
	Submissions       *prometheus.CounterVec
	SubmissionLatency *prometheus.HistogramVec
	GateRejections    *prometheus.CounterVec

	// Backend circuit breaker
	BreakerState *prometheus.GaugeVec
}

// NewMetrics creates all application metrics and registers them on reg.
// A nil reg registers on the default registry.
func NewMetrics(namespace, subsystem string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		Evaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "password_evaluations_total",
			Help:      "Total number of password strength evaluations by resulting label",
		}, []string{"label"}),

		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "form_submissions_total",
			Help:      "Total number of form submissions by outcome",
		}, []string{"form", "outcome"}),
		SubmissionLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "form_submission_duration_seconds",
			Help:      "Round trip time of form submissions to the backend",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"form"}),
		GateRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "weak_password_rejections_total",
			Help:      "Total number of submissions blocked by the password strength gate",
		}, []string{"form"}),

		BreakerState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "backend_breaker_state",
			Help:      "Backend circuit breaker state (0 closed, 1 half-open, 2 open)",
		}, []string{"name"}),
	}
}

// ObserveEvaluation counts one strength evaluation. An empty label is
// recorded as "none".
func (m *Metrics) ObserveEvaluation(label string) {
	if m == nil {
		return
	}
	if label == "" {
		label = "none"
	}
	m.Evaluations.WithLabelValues(label).Inc()
}

// ObserveSubmission counts one submission outcome.
func (m *Metrics) ObserveSubmission(form, outcome string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(form, outcome).Inc()
}

// ObserveLatency records the backend round trip for form.
func (m *Metrics) ObserveLatency(form string, seconds float64) {
	if m == nil {
		return
	}
	m.SubmissionLatency.WithLabelValues(form).Observe(seconds)
}

// ObserveGateRejection counts a submission blocked before any request.
func (m *Metrics) ObserveGateRejection(form string) {
	if m == nil {
		return
	}
	m.GateRejections.WithLabelValues(form).Inc()
}

// SetBreakerState publishes a breaker state.
func (m *Metrics) SetBreakerState(name string, state float64) {
	if m == nil {
		return
	}
	m.BreakerState.WithLabelValues(name).Set(state)
}
