package observability

import (
	"context"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "parley"

// Metrics holds the dialogue collectors.
type Metrics struct {
	Intents      *prometheus.CounterVec
	Actions      *prometheus.CounterVec
	Confidence   prometheus.Histogram
	TurnDuration *prometheus.HistogramVec
	Fallbacks    prometheus.Counter
	Completions  prometheus.Counter
	Failures     *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg skips registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Intents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "intents_total",
			Help:      "Classified intents per turn.",
		}, []string{"intent"}),
		Actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "actions_total",
			Help:      "Selected dialogue actions.",
		}, []string{"action"}),
		Confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "intent_confidence",
			Help:      "Classifier confidence scores.",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
		TurnDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "turn_duration_seconds",
			Help:      "End-to-end latency of committed turns.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action"}),
		Fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "fallbacks_total",
			Help:      "Turns that ended in clarify or escalate.",
		}),
		Completions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "dialogues_completed_total",
			Help:      "Turns that reached the completion state.",
		}),
		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "collaborator_failures_total",
			Help:      "Classifier, extractor and backend failures that were degraded.",
		}, []string{"collaborator"}),
	}

	if reg != nil {
		reg.MustRegister(m.Intents, m.Actions, m.Confidence, m.TurnDuration, m.Fallbacks, m.Completions, m.Failures)
	}
	return m
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnDecision: func(_ context.Context, e *domain.DecisionEvent) {
			m.Intents.WithLabelValues(e.Intent).Inc()
			m.Confidence.Observe(e.Confidence)
			m.Actions.WithLabelValues(string(e.Decision.Kind)).Inc()
			if e.Decision.IsFallback() {
				m.Fallbacks.Inc()
			}
		},
		OnCollaboratorFailure: func(_ context.Context, e *domain.FailureEvent) {
			m.Failures.WithLabelValues(e.Collaborator).Inc()
		},
		OnTurnEnd: func(_ context.Context, e *domain.TurnEvent) {
			m.TurnDuration.WithLabelValues(string(e.Action)).Observe(e.Latency.Seconds())
			if e.State == domain.StateCompletion {
				m.Completions.Inc()
			}
		},
	}
}
