package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/deploykit/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var allStates = []domain.DeployState{
	domain.StateReady, domain.StateLoading, domain.StatePaused, domain.StateCancelled,
}

// Metrics holds the deployment collectors.
type Metrics struct {
	registry *prometheus.Registry

	runs         *prometheus.CounterVec
	runDuration  prometheus.Histogram
	stepDuration *prometheus.HistogramVec
	polls        *prometheus.CounterVec
	transitions  *prometheus.CounterVec
	state        *prometheus.GaugeVec
	progress     prometheus.Gauge
}

// NewMetrics registers the collectors on reg, or on a fresh registry when reg is nil.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		registry: reg,
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deploykit_runs_total",
			Help: "Settled deployment runs by outcome and failure kind",
		}, []string{"outcome", "kind"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "deploykit_run_duration_seconds",
			Help:    "Wall-clock duration of settled deployment runs",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1200},
		}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "deploykit_step_duration_seconds",
			Help:    "Duration of pipeline steps",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 12),
		}, []string{"step"}),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deploykit_poll_iterations_total",
			Help: "Status fetches performed by polling loops",
		}, []string{"step"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deploykit_state_transitions_total",
			Help: "Accepted deploy state transitions",
		}, []string{"from", "to"}),
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "deploykit_state",
			Help: "1 for the current deploy state",
		}, []string{"state"}),
		progress: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "deploykit_progress_ratio",
			Help: "Progress of the in-flight deployment",
		}),
	}
	reg.MustRegister(m.runs, m.runDuration, m.stepDuration, m.polls, m.transitions, m.state, m.progress)
	m.setState(domain.StateReady)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) setState(s domain.DeployState) {
	for _, st := range allStates {
		v := 0.0
		if st == s {
			v = 1
		}
		m.state.WithLabelValues(string(st)).Set(v)
	}
}

// Hooks records lifecycle events.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStateChange: func(_ context.Context, e *domain.StateEvent) {
			m.progress.Set(e.Progress)
			if e.From == e.To {
				return
			}
			m.transitions.WithLabelValues(string(e.From), string(e.To)).Inc()
			m.setState(e.To)
		},
		OnStep: func(_ context.Context, e *domain.StepEvent) {
			if e.Done {
				m.stepDuration.WithLabelValues(string(e.Step)).Observe(e.Duration.Seconds())
			}
		},
		OnPoll: func(_ context.Context, e *domain.PollEvent) {
			m.polls.WithLabelValues(string(e.Step)).Inc()
		},
		OnSettle: func(_ context.Context, o *domain.Outcome) {
			if o.Status == domain.OutcomeIgnored {
				return
			}
			kind := ""
			if o.Failure != nil {
				kind = string(o.Failure.Kind)
			}
			m.runs.WithLabelValues(string(o.Status), kind).Inc()
			m.runDuration.Observe(o.Elapsed.Seconds())
		},
	}
}
