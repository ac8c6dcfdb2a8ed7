package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/aretw0/unicorn/internal/logging"
	"github.com/aretw0/unicorn/pkg/domain"
	"github.com/aretw0/unicorn/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnKey(ctx, &domain.KeyEvent{
		Actions: []domain.Action{domain.Commit("α"), domain.UpdateComposition(`\`)},
		Depth:   0,
	})
	hooks.OnKey(ctx, &domain.KeyEvent{Actions: []domain.Action{domain.Reject()}, Depth: 2})
	hooks.OnCommit(ctx, &domain.CommitEvent{Text: "α"})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Actions.WithLabelValues("commit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Actions.WithLabelValues("update_composition")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Actions.WithLabelValues("reject")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Commits))

	count, err := testutil.GatherAndCount(reg, "unicorn_actions_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestNewMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	_, err = observability.NewMetrics(reg)
	assert.Error(t, err)
}

func TestChainHooks(t *testing.T) {
	var order []string
	first := domain.LifecycleHooks{
		OnKey: func(context.Context, *domain.KeyEvent) { order = append(order, "first") },
	}
	second := domain.LifecycleHooks{
		OnKey:    func(context.Context, *domain.KeyEvent) { order = append(order, "second") },
		OnCommit: func(context.Context, *domain.CommitEvent) { order = append(order, "commit") },
	}

	chained := observability.ChainHooks(first, domain.LifecycleHooks{}, second)
	chained.OnKey(context.Background(), &domain.KeyEvent{})
	chained.OnCommit(context.Background(), &domain.CommitEvent{})

	assert.Equal(t, []string{"first", "second", "commit"}, order)
}

func TestChainHooks_Empty(t *testing.T) {
	chained := observability.ChainHooks()
	assert.Nil(t, chained.OnKey)
	assert.Nil(t, chained.OnCommit)
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, slog.LevelInfo, logging.FormatJSON)

	hooks := observability.LoggingHooks(logger)
	hooks.OnKey(context.Background(), &domain.KeyEvent{Symbol: 'a'})
	hooks.OnCommit(context.Background(), &domain.CommitEvent{Text: "α", Sequence: `\a`})

	out := buf.String()
	assert.NotContains(t, out, `"msg":"key"`, "key events are debug level")
	assert.Contains(t, out, `"msg":"commit"`)
	assert.Contains(t, out, `"text":"α"`)
}
