package observability

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/unicorn/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors fed by the engine hooks.
type Metrics struct {
	Actions *prometheus.CounterVec
	Commits prometheus.Counter
	Depth   prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		Actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "unicorn_actions_total",
				Help: "Total number of actions returned to hosts, by type.",
			},
			[]string{"type"},
		),
		Commits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "unicorn_commits_total",
			Help: "Total number of committed texts.",
		}),
		Depth: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "unicorn_composition_depth",
			Help:    "Trie depth reached after each processed key.",
			Buckets: prometheus.LinearBuckets(0, 1, 8),
		}),
	}

	for _, c := range []prometheus.Collector{m.Actions, m.Commits, m.Depth} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnKey: func(_ context.Context, e *domain.KeyEvent) {
			for _, a := range e.Actions {
				m.Actions.WithLabelValues(a.Kind.String()).Inc()
			}
			m.Depth.Observe(float64(e.Depth))
		},
		OnCommit: func(context.Context, *domain.CommitEvent) {
			m.Commits.Inc()
		},
	}
}

// ChainHooks combines several hook sets; each callback runs in argument order.
func ChainHooks(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	var onKey []func(context.Context, *domain.KeyEvent)
	var onCommit []func(context.Context, *domain.CommitEvent)
	for _, h := range hooks {
		if h.OnKey != nil {
			onKey = append(onKey, h.OnKey)
		}
		if h.OnCommit != nil {
			onCommit = append(onCommit, h.OnCommit)
		}
	}

	var chained domain.LifecycleHooks
	if len(onKey) > 0 {
		chained.OnKey = func(ctx context.Context, e *domain.KeyEvent) {
			for _, fn := range onKey {
				fn(ctx, e)
			}
		}
	}
	if len(onCommit) > 0 {
		chained.OnCommit = func(ctx context.Context, e *domain.CommitEvent) {
			for _, fn := range onCommit {
				fn(ctx, e)
			}
		}
	}
	return chained
}

// LoggingHooks logs every commit at info level and every key at debug level.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnKey: func(ctx context.Context, e *domain.KeyEvent) {
			logger.DebugContext(ctx, "key", "symbol", string(e.Symbol), "buffer", e.Buffer, "depth", e.Depth)
		},
		OnCommit: func(ctx context.Context, e *domain.CommitEvent) {
			logger.InfoContext(ctx, "commit", "text", e.Text, "sequence", e.Sequence)
		},
	}
}
