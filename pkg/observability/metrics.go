package observability

import (
	"context"
	"errors"

	"github.com/aretw0/palaver/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors fed by lifecycle hooks.
type Metrics struct {
	Turns        *prometheus.CounterVec
	TurnDuration *prometheus.HistogramVec
	InFlight     prometheus.Gauge
	Resets       prometheus.Counter
	Lookups      *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "palaver_turns_total",
				Help: "Total number of completed turns by outcome class",
			},
			[]string{"class"},
		),
		TurnDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "palaver_turn_duration_seconds",
				Help:    "Duration of chat calls",
				Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
			},
			[]string{"class"},
		),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "palaver_turns_in_flight",
			Help: "Number of turns awaiting a reply",
		}),
		Resets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "palaver_resets_total",
			Help: "Total number of conversation resets",
		}),
		Lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "palaver_agent_lookups_total",
				Help: "Total number of agent directory lookups by outcome",
			},
			[]string{"outcome"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Turns, m.TurnDuration, m.InFlight, m.Resets, m.Lookups)
	}
	return m
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTurnStart: func(ctx context.Context, e *domain.TurnEvent) {
			m.InFlight.Inc()
		},
		OnTurnEnd: func(ctx context.Context, e *domain.TurnEvent) {
			m.InFlight.Dec()
			label := e.Class.Label()
			m.Turns.WithLabelValues(label).Inc()
			m.TurnDuration.WithLabelValues(label).Observe(e.Duration.Seconds())
		},
		OnReset: func(ctx context.Context, e *domain.EventBase) {
			m.Resets.Inc()
		},
		OnLookup: func(ctx context.Context, e *domain.LookupEvent) {
			m.Lookups.WithLabelValues(LookupOutcome(e.Err)).Inc()
		},
	}
}

// LookupOutcome labels a lookup result.
func LookupOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInvalidAgentID):
		return "invalid"
	case errors.Is(err, domain.ErrAgentNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrLookupRejected):
		return "rejected"
	default:
		return "unavailable"
	}
}
