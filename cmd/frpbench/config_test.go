package main

import (
	"bytes"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnatoleLucet/frp/internal/logging"
	"github.com/AnatoleLucet/frp/metrics"
)

func TestLoadConfig(t *testing.T) {
	t.Run("defaults without a file", func(t *testing.T) {
		cfg, err := loadConfig("")
		require.NoError(t, err)
		assert.Equal(t, defaultConfig(), cfg)
	})

	t.Run("reads scenarios", func(t *testing.T) {
		cfg, err := loadConfig("testdata/scenarios.yaml")
		require.NoError(t, err)

		assert.Equal(t, 2, cfg.Repeats)
		require.Len(t, cfg.Scenarios, 2)
		assert.Equal(t, scenario{Name: "tiny", Width: 4, Layers: 3, Sources: 2, Iterations: 20}, cfg.Scenarios[0])
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loadConfig("testdata/nope.yaml")
		assert.Error(t, err)
	})
}

func TestApplyOverrides(t *testing.T) {
	t.Run("decodes strings into every scenario", func(t *testing.T) {
		cfg := defaultConfig()

		require.NoError(t, applyOverrides(&cfg, []string{"iterations=7", "repeats=1"}))

		assert.Equal(t, 1, cfg.Repeats)
		for _, sc := range cfg.Scenarios {
			assert.Equal(t, 7, sc.Iterations)
		}
	})

	t.Run("rejects malformed pairs", func(t *testing.T) {
		cfg := defaultConfig()
		assert.Error(t, applyOverrides(&cfg, []string{"iterations"}))
	})

	t.Run("rejects unknown keys", func(t *testing.T) {
		cfg := defaultConfig()
		assert.Error(t, applyOverrides(&cfg, []string{"colour=blue"}))
	})

	t.Run("rejects non numeric values", func(t *testing.T) {
		cfg := defaultConfig()
		assert.Error(t, applyOverrides(&cfg, []string{"width=wide"}))
	})
}

func TestScenarioValidate(t *testing.T) {
	assert.NoError(t, scenario{Name: "ok", Width: 2, Layers: 1, Sources: 2, Iterations: 1}.validate())
	assert.Error(t, scenario{Name: "too many sources", Width: 2, Layers: 1, Sources: 3, Iterations: 1}.validate())
	assert.Error(t, scenario{Name: "no layers", Width: 2, Sources: 1, Iterations: 1}.validate())
}

func TestRunLayers(t *testing.T) {
	cfg, err := loadConfig("testdata/scenarios.yaml")
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	s := &session{logger: logging.NewNop(), registry: reg, observer: metrics.MustNew(reg)}

	var out bytes.Buffer
	require.NoError(t, runLayers(&out, s, cfg))
	assert.Contains(t, out.String(), "tiny")
	assert.Contains(t, out.String(), "single layer")

	out.Reset()
	require.NoError(t, s.report(&out))
	assert.Contains(t, out.String(), `frp_transactions_total{runtime="tiny"}`)
}

func TestRunScenarioIsDeterministic(t *testing.T) {
	s := &session{logger: logging.NewNop()}
	sc := scenario{Name: "tiny", Width: 4, Layers: 3, Sources: 2, Iterations: 20}

	first, err := runScenario(s, sc)
	require.NoError(t, err)
	second, err := runScenario(s, sc)
	require.NoError(t, err)

	assert.Equal(t, first.digest, second.digest)
	assert.Equal(t, first.count, second.count)
	assert.Positive(t, first.count)
}

func TestRunGrid(t *testing.T) {
	s := &session{logger: logging.NewNop()}

	var out bytes.Buffer
	err := runGrid(&out, s, gridConfig{widths: []int{1, 3}, heights: []int{2}, iters: 5})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "propagate: 3 * 2")
}
