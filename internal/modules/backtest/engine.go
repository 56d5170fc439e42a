package backtest

import (
	"errors"
	"sort"

	"github.com/quantdesk/quantdesk/internal/domain"
	"github.com/quantdesk/quantdesk/pkg/formulas"
)

const tradingDaysPerYear = 252

// ErrNoData is returned when a backtest has no price series to run on
var ErrNoData = errors.New("backtest: no price data")

// Run simulates a strategy over the given per-ticker bar series.
//
// All per-ticker date indices are unioned into one calendar and signals
// are reindexed onto it with zero fill. Weights are equal across the
// tickers active on a date and are shifted forward one period before
// being applied to returns, so the return realized from t to t+1 only
// ever uses signals known at t.
func Run(strategy Strategy, data map[string][]domain.Bar, params Params) (*Result, error) {
	if len(data) == 0 {
		return nil, ErrNoData
	}

	merged := mergeParams(strategy.DefaultParams(), params)
	signals := strategy.Run(data, merged)

	calendar := unionCalendar(data)
	if len(calendar) < 2 {
		return nil, ErrNoData
	}

	tickers := make([]string, 0, len(data))
	for ticker := range data {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	returnsByTicker := make(map[string]map[string]float64, len(tickers))
	for _, ticker := range tickers {
		returnsByTicker[ticker] = dailyReturns(data[ticker])
	}

	weights := buildWeights(tickers, calendar, signals)

	// lag rule: weights decided at t apply to the t -> t+1 return
	portfolio := make([]float64, len(calendar))
	benchmark := make([]float64, len(calendar))
	for t := 1; t < len(calendar); t++ {
		date := calendar[t]
		var dayReturn, benchSum float64
		for _, ticker := range tickers {
			ret := returnsByTicker[ticker][date]
			dayReturn += weights[t-1][ticker] * ret
			benchSum += ret
		}
		portfolio[t] = dayReturn
		benchmark[t] = benchSum / float64(len(tickers))
	}

	return &Result{
		Strategy:         strategy.Name(),
		Params:           merged,
		TotalReturn:      formulas.TotalReturn(portfolio),
		SharpeRatio:      formulas.SharpeRatio(portfolio, tradingDaysPerYear),
		MaxDrawdown:      formulas.MaxDrawdown(portfolio),
		AnnualVolatility: formulas.AnnualizedVolatility(portfolio),
		BenchmarkReturn:  formulas.TotalReturn(benchmark),
		Dates:            calendar,
		Returns:          portfolio,
		Equity:           formulas.EquityCurve(portfolio),
	}, nil
}

// RunBuyAndHold evaluates a single ticker's raw close-to-close returns
// with no signal or weight indirection.
func RunBuyAndHold(ticker string, bars []domain.Bar) (*Result, error) {
	if len(bars) < 2 {
		return nil, ErrNoData
	}

	dates := make([]string, len(bars))
	closes := make([]float64, len(bars))
	for i, b := range bars {
		dates[i] = b.Date
		closes[i] = b.Close
	}
	returns := append([]float64{0}, formulas.Returns(closes)...)

	return &Result{
		Strategy:         "Buy & Hold",
		Params:           Params{},
		TotalReturn:      formulas.TotalReturn(returns),
		SharpeRatio:      formulas.SharpeRatio(returns, tradingDaysPerYear),
		MaxDrawdown:      formulas.MaxDrawdown(returns),
		AnnualVolatility: formulas.AnnualizedVolatility(returns),
		BenchmarkReturn:  formulas.TotalReturn(returns),
		Dates:            dates,
		Returns:          returns,
		Equity:           formulas.EquityCurve(returns),
	}, nil
}

// mergeParams overlays user parameters on the strategy defaults
func mergeParams(defaults, params Params) Params {
	merged := make(Params, len(defaults))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range params {
		merged[k] = v
	}
	return merged
}

// unionCalendar collects every distinct bar date across tickers, sorted
// ascending. Dates are ISO strings so lexical order is chronological.
func unionCalendar(data map[string][]domain.Bar) []string {
	seen := make(map[string]struct{})
	for _, bars := range data {
		for _, b := range bars {
			seen[b.Date] = struct{}{}
		}
	}

	calendar := make([]string, 0, len(seen))
	for date := range seen {
		calendar = append(calendar, date)
	}
	sort.Strings(calendar)
	return calendar
}

// dailyReturns maps each bar date to the close-to-close return from the
// ticker's previous bar. Dates missing from the map read as zero.
func dailyReturns(bars []domain.Bar) map[string]float64 {
	returns := make(map[string]float64, len(bars))
	for i := 1; i < len(bars); i++ {
		if bars[i-1].Close == 0 {
			continue
		}
		returns[bars[i].Date] = bars[i].Close/bars[i-1].Close - 1
	}
	return returns
}

// buildWeights turns raw signals into equal-weight allocations per
// calendar date. A day with no active signals yields all-zero weights.
func buildWeights(tickers, calendar []string, signals Signals) []map[string]float64 {
	weights := make([]map[string]float64, len(calendar))
	for t, date := range calendar {
		row := make(map[string]float64, len(tickers))
		active := 0
		for _, ticker := range tickers {
			if signals[ticker][date] > 0 {
				active++
			}
		}
		if active > 0 {
			for _, ticker := range tickers {
				row[ticker] = signals[ticker][date] / float64(active)
			}
		}
		weights[t] = row
	}
	return weights
}
