package metrics_test

import (
	"testing"

	"github.com/2beens/shapepro/internal/telemetry/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager(t *testing.T) {
	m, reg := metrics.NewTestManagerAndRegistry()

	m.CounterPointsAwarded.Add(60)
	m.CounterPlanGenerations.WithLabelValues("ok").Inc()
	m.CounterStateSaves.WithLabelValues("error").Inc()

	assert.Equal(t, float64(60), testutil.ToFloat64(m.CounterPointsAwarded))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CounterPlanGenerations.WithLabelValues("ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CounterStateSaves.WithLabelValues("error")))

	count, err := testutil.GatherAndCount(reg,
		"shapepro_test_server_points_awarded",
		"shapepro_test_server_plan_generations",
		"shapepro_test_server_state_saves",
	)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestSetupPrometheus(t *testing.T) {
	extra := prometheus.NewCounter(prometheus.CounterOpts{Name: "extra_collector_total"})
	reg := metrics.SetupPrometheus(extra)
	extra.Inc()

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["extra_collector_total"])
	assert.True(t, names["go_goroutines"])
}
