package observability

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/stepsheet/pkg/domain"
)

// Metrics holds the Prometheus collectors fed by session hooks.
type Metrics struct {
	StepsApplied     *prometheus.CounterVec
	StepFailures     *prometheus.CounterVec
	Replays          *prometheus.CounterVec
	CoercionFailures *prometheus.CounterVec
	StepDuration     *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		StepsApplied: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stepsheet_steps_applied_total",
				Help: "Total number of steps applied",
			},
			[]string{"kind"},
		),
		StepFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stepsheet_step_failures_total",
				Help: "Total number of steps rejected, by phase",
			},
			[]string{"kind", "phase"},
		),
		Replays: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stepsheet_replays_total",
				Help: "Total number of analysis replays, by outcome",
			},
			[]string{"outcome"},
		),
		CoercionFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stepsheet_coercion_failures_total",
				Help: "Values that could not be converted between logical types",
			},
			[]string{"from", "to"},
		),
		StepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stepsheet_step_duration_seconds",
				Help:    "Duration of step executions",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
			[]string{"kind"},
		),
	}
	if reg == nil {
		return m, nil
	}
	var err error
	if m.StepsApplied, err = register(reg, m.StepsApplied); err != nil {
		return nil, err
	}
	if m.StepFailures, err = register(reg, m.StepFailures); err != nil {
		return nil, err
	}
	if m.Replays, err = register(reg, m.Replays); err != nil {
		return nil, err
	}
	if m.CoercionFailures, err = register(reg, m.CoercionFailures); err != nil {
		return nil, err
	}
	if m.StepDuration, err = register(reg, m.StepDuration); err != nil {
		return nil, err
	}
	return m, nil
}

// register adds c to reg, reusing the collector already registered under
// the same name.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(T); ok {
			return existing, nil
		}
	}
	var zero T
	return zero, err
}

// MustNewMetrics is NewMetrics that panics on registration errors.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	m, err := NewMetrics(reg)
	if err != nil {
		panic(err)
	}
	return m
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepApplied: func(_ context.Context, e *domain.StepEvent) {
			kind := string(e.Kind)
			m.StepsApplied.WithLabelValues(kind).Inc()
			m.StepDuration.WithLabelValues(kind).Observe(e.Duration.Seconds())
			if c := e.Coercion; c != nil && c.Failed > 0 {
				m.CoercionFailures.WithLabelValues(string(c.From), string(c.To)).Add(float64(c.Failed))
			}
		},
		OnStepFailed: func(_ context.Context, e *domain.StepEvent) {
			m.StepFailures.WithLabelValues(string(e.Kind), e.Phase).Inc()
		},
		OnReplay: func(_ context.Context, e *domain.ReplayEvent) {
			outcome := "success"
			if e.Err != nil {
				outcome = "rolled_back"
			}
			m.Replays.WithLabelValues(outcome).Inc()
		},
	}
}
