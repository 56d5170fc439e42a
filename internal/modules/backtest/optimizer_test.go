package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantdesk/quantdesk/internal/domain"
)

func TestExpandGrid(t *testing.T) {
	combos := expandGrid(Grid{
		"short_window": {10, 20},
		"long_window":  {100, 150, 200},
	})

	require.Len(t, combos, 6)
	seen := make(map[[2]float64]bool)
	for _, combo := range combos {
		require.Len(t, combo, 2)
		seen[[2]float64{combo["short_window"], combo["long_window"]}] = true
	}
	assert.Len(t, seen, 6)
}

func TestExpandGrid_Empty(t *testing.T) {
	combos := expandGrid(Grid{})

	require.Len(t, combos, 1)
	assert.Empty(t, combos[0])
}

func TestGridSearch_RanksBySharpe(t *testing.T) {
	// exposure 1 earns the uneven positive drift, exposure 0 sits out
	strategy := stubStrategy{
		name:     "stub",
		defaults: Params{"exposure": 0},
		signals: func(data map[string][]domain.Bar, params Params) Signals {
			if params.get("exposure", 0) < 1 {
				return Signals{}
			}
			return allLong(data, params)
		},
	}
	data := map[string][]domain.Bar{
		"AAA": priceBars([]float64{100, 110, 115.5, 127.05, 133.4}),
	}

	results, err := GridSearch(strategy, data, Grid{"exposure": {0, 1}})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, 1.0, results[0].Params["exposure"])
	assert.Greater(t, results[0].SharpeRatio, results[1].SharpeRatio)
	assert.Zero(t, results[1].SharpeRatio)
	assert.Zero(t, results[1].TotalReturn)
}

func TestGridSearch_PropagatesRunError(t *testing.T) {
	strategy := stubStrategy{name: "stub", signals: allLong}

	_, err := GridSearch(strategy, nil, Grid{})
	assert.ErrorIs(t, err, ErrNoData)
}
