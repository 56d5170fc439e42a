package backtest

import (
	"github.com/quantdesk/quantdesk/internal/domain"
	"github.com/quantdesk/quantdesk/pkg/formulas"
)

// SMACross goes long while the short moving average is above the long one
type SMACross struct{}

func (SMACross) Name() string { return "SMA Crossover" }

func (SMACross) DefaultParams() Params {
	return Params{"short_window": 20, "long_window": 200}
}

func (SMACross) Run(data map[string][]domain.Bar, params Params) Signals {
	short := int(params.get("short_window", 20))
	long := int(params.get("long_window", 200))

	signals := make(Signals, len(data))
	for ticker, bars := range data {
		closes := barCloses(bars)
		smaShort := formulas.SMA(closes, short)
		smaLong := formulas.SMA(closes, long)
		if smaShort == nil || smaLong == nil {
			continue
		}

		series := make(map[string]float64, len(bars))
		for i := long - 1; i < len(bars); i++ {
			if smaShort[i] > smaLong[i] {
				series[bars[i].Date] = 1
			}
		}
		signals[ticker] = series
	}
	return signals
}

// RSIMeanReversion buys oversold dips and holds until overbought
type RSIMeanReversion struct{}

func (RSIMeanReversion) Name() string { return "RSI Mean Reversion" }

func (RSIMeanReversion) DefaultParams() Params {
	return Params{"rsi_period": 14, "buy_threshold": 30, "sell_threshold": 70}
}

func (RSIMeanReversion) Run(data map[string][]domain.Bar, params Params) Signals {
	period := int(params.get("rsi_period", 14))
	buy := params.get("buy_threshold", 30)
	sell := params.get("sell_threshold", 70)

	signals := make(Signals, len(data))
	for ticker, bars := range data {
		closes := barCloses(bars)
		rsi := formulas.RSISeries(closes, period)
		if rsi == nil {
			continue
		}

		// position persists between the entry and exit thresholds
		series := make(map[string]float64, len(bars))
		holding := false
		for i := period; i < len(bars); i++ {
			if rsi[i] < buy {
				holding = true
			} else if rsi[i] > sell {
				holding = false
			}
			if holding {
				series[bars[i].Date] = 1
			}
		}
		signals[ticker] = series
	}
	return signals
}

// PEADGapHold enters on confirmed gap-ups and holds for a fixed drift
// window
type PEADGapHold struct{}

func (PEADGapHold) Name() string { return "PEAD Gap & Hold" }

func (PEADGapHold) DefaultParams() Params {
	return Params{"gap_pct": 0.02, "min_rvol": 1.5, "hold_days": 20}
}

func (PEADGapHold) Run(data map[string][]domain.Bar, params Params) Signals {
	gapPct := params.get("gap_pct", 0.02)
	minRVol := params.get("min_rvol", 1.5)
	holdDays := int(params.get("hold_days", 20))

	signals := make(Signals, len(data))
	for ticker, bars := range data {
		series := make(map[string]float64, len(bars))
		holdUntil := -1
		for i := 1; i < len(bars); i++ {
			if i <= holdUntil {
				series[bars[i].Date] = 1
				continue
			}
			prior := bars[i-1]
			if prior.Close == 0 || bars[i].Open == 0 {
				continue
			}
			gap := (bars[i].Open - prior.Close) / prior.Close
			if gap >= gapPct &&
				rvolAt(bars, i) >= minRVol &&
				bars[i].Close > bars[i].Open*0.99 {
				series[bars[i].Date] = 1
				holdUntil = i + holdDays
			}
		}
		signals[ticker] = series
	}
	return signals
}

// VaRBreachHold enters after capitulation days that breach the
// historical VaR threshold, betting on the reversal
type VaRBreachHold struct{}

func (VaRBreachHold) Name() string { return "VaR Breach & Hold" }

func (VaRBreachHold) DefaultParams() Params {
	return Params{"lookback": 252, "percentile": 0.05, "min_rvol": 2.0, "hold_days": 20}
}

func (VaRBreachHold) Run(data map[string][]domain.Bar, params Params) Signals {
	lookback := int(params.get("lookback", 252))
	percentile := params.get("percentile", 0.05)
	minRVol := params.get("min_rvol", 2.0)
	holdDays := int(params.get("hold_days", 20))

	signals := make(Signals, len(data))
	for ticker, bars := range data {
		closes := barCloses(bars)
		returns := formulas.Returns(closes)

		series := make(map[string]float64, len(bars))
		holdUntil := -1
		for i := 2; i < len(bars); i++ {
			if i <= holdUntil {
				series[bars[i].Date] = 1
				continue
			}

			// returns[i-1] is the close-to-close return ending at bar i
			start := i - lookback
			if start < 0 {
				start = 0
			}
			window := returns[start:i]
			if len(window) < 2 {
				continue
			}

			varLevel := formulas.Quantile(window, percentile)
			if returns[i-1] < varLevel && rvolAt(bars, i) >= minRVol {
				series[bars[i].Date] = 1
				holdUntil = i + holdDays
			}
		}
		signals[ticker] = series
	}
	return signals
}

// Registry lists the strategies available to the backtest API by name
func Registry() map[string]Strategy {
	return map[string]Strategy{
		"sma_cross":      SMACross{},
		"rsi_reversion":  RSIMeanReversion{},
		"pead_gap_hold":  PEADGapHold{},
		"var_breach_buy": VaRBreachHold{},
	}
}

func barCloses(bars []domain.Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

// rvolAt computes relative volume for the bar at index i against the
// trailing 20-day average
func rvolAt(bars []domain.Bar, i int) float64 {
	const window = 20
	if i < window {
		return 0
	}
	var sum float64
	for _, b := range bars[i-window : i] {
		sum += float64(b.Volume)
	}
	avg := sum / window
	if avg == 0 {
		return 0
	}
	return float64(bars[i].Volume) / avg
}
