package backtest

import (
	"sort"

	"github.com/quantdesk/quantdesk/internal/domain"
)

// Grid maps parameter names to candidate values
type Grid map[string][]float64

// GridSearch backtests every combination in the Cartesian product of the
// grid and returns the combinations ranked by Sharpe ratio descending.
func GridSearch(strategy Strategy, data map[string][]domain.Bar, grid Grid) ([]OptimizationResult, error) {
	combos := expandGrid(grid)

	results := make([]OptimizationResult, 0, len(combos))
	for _, params := range combos {
		res, err := Run(strategy, data, params)
		if err != nil {
			return nil, err
		}
		results = append(results, OptimizationResult{
			Params:      res.Params,
			TotalReturn: res.TotalReturn,
			SharpeRatio: res.SharpeRatio,
			MaxDrawdown: res.MaxDrawdown,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].SharpeRatio > results[j].SharpeRatio
	})
	return results, nil
}

// expandGrid builds the Cartesian product of the grid in a deterministic
// key order. An empty grid yields the single empty parameter set.
func expandGrid(grid Grid) []Params {
	keys := make([]string, 0, len(grid))
	for key := range grid {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	combos := []Params{{}}
	for _, key := range keys {
		values := grid[key]
		if len(values) == 0 {
			continue
		}
		next := make([]Params, 0, len(combos)*len(values))
		for _, base := range combos {
			for _, value := range values {
				combo := make(Params, len(base)+1)
				for k, v := range base {
					combo[k] = v
				}
				combo[key] = value
				next = append(next, combo)
			}
		}
		combos = next
	}
	return combos
}
