// Package backtest runs portfolio simulations of signal strategies over
// cached daily bars. Each run is a pure function of its price series,
// strategy and parameters.
package backtest

import (
	"github.com/quantdesk/quantdesk/internal/domain"
)

// Params is a per-strategy parameter set
type Params map[string]float64

// get reads a parameter with a fallback to the strategy default
func (p Params) get(key string, fallback float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}
	return fallback
}

// Signals maps ticker -> date -> raw signal in [0, 1]
type Signals map[string]map[string]float64

// Strategy produces target signals from aligned OHLCV series. Run must
// only use information at or before each emitted signal's date.
type Strategy interface {
	Name() string
	DefaultParams() Params
	Run(data map[string][]domain.Bar, params Params) Signals
}

// Result is the outcome of one backtest run
type Result struct {
	Strategy         string    `json:"strategy"`
	Params           Params    `json:"params"`
	TotalReturn      float64   `json:"total_return"`
	SharpeRatio      float64   `json:"sharpe_ratio"`
	MaxDrawdown      float64   `json:"max_drawdown"`
	AnnualVolatility float64   `json:"annual_volatility"`
	BenchmarkReturn  float64   `json:"benchmark_return"`
	Dates            []string  `json:"dates"`
	Returns          []float64 `json:"returns"`
	Equity           []float64 `json:"equity"`
}

// OptimizationResult is one grid-search combination with its metrics
type OptimizationResult struct {
	Params      Params  `json:"params"`
	TotalReturn float64 `json:"total_return"`
	SharpeRatio float64 `json:"sharpe_ratio"`
	MaxDrawdown float64 `json:"max_drawdown"`
}
