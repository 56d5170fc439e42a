package ranking

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/quantdesk/quantdesk/internal/database/repositories"
	"github.com/quantdesk/quantdesk/internal/domain"
	"github.com/quantdesk/quantdesk/pkg/formulas"
)

const (
	momentumLookback = 252 // ~12 months of business days
	momentumSkip     = 21  // most recent month excluded (short-term reversal)
	volatilityWindow = 20
)

// Engine computes factor scores and rankings against the local store
// only; it performs no live network calls.
type Engine struct {
	bars     *repositories.BarRepository
	facts    *repositories.FundamentalRepository
	info     *repositories.StockInfoRepository
	rankings *repositories.RankingRepository

	benchmark   string
	overlayTopN int
	log         zerolog.Logger
	now         func() time.Time
}

// NewEngine creates a new ranking engine. benchmark is the reference
// index ticker used for relative momentum.
func NewEngine(
	bars *repositories.BarRepository,
	facts *repositories.FundamentalRepository,
	info *repositories.StockInfoRepository,
	rankings *repositories.RankingRepository,
	benchmark string,
	overlayTopN int,
	log zerolog.Logger,
) *Engine {
	if overlayTopN <= 0 {
		overlayTopN = 20
	}
	return &Engine{
		bars:        bars,
		facts:       facts,
		info:        info,
		rankings:    rankings,
		benchmark:   benchmark,
		overlayTopN: overlayTopN,
		log:         log.With().Str("component", "ranking").Logger(),
		now:         time.Now,
	}
}

// CalculateFactors computes momentum, volatility, quality and Z-Score per
// ticker. Tickers with no cached price data are skipped.
func (e *Engine) CalculateFactors(tickers []string) []FactorSet {
	benchmarkMom := e.benchmarkMomentum()
	fundamentals := e.facts.LatestFundamentals(tickers, factorMetrics)

	var out []FactorSet
	for _, ticker := range tickers {
		bars, err := e.bars.GetBars(ticker, "")
		if err != nil {
			e.log.Warn().Err(err).Str("ticker", ticker).Msg("Failed to load bars")
			continue
		}
		if len(bars) == 0 {
			continue
		}

		closes := make([]float64, len(bars))
		for i, b := range bars {
			closes[i] = b.Close
		}
		currentPrice := closes[len(closes)-1]

		absoluteMom := momentum121(bars)
		fs := FactorSet{
			Ticker:     ticker,
			Momentum:   absoluteMom - benchmarkMom,
			Volatility: trailingVolatility(closes, volatilityWindow),
			Close:      currentPrice,
		}

		metrics := fundamentals[ticker]

		// Quality: ROE with an equity field fallback
		netIncome, hasNI := resolveMetric(metrics, metricNetIncome)
		equity, hasEq := resolveMetric(metrics, equityKeys...)
		if hasNI && hasEq && equity != 0 {
			roe := netIncome / equity
			fs.ROE = &roe
		}

		fs.ZScore = altmanZScore(metrics, currentPrice)

		out = append(out, fs)
	}

	return out
}

// benchmarkMomentum returns the reference index's 12-1 momentum, or 0
// when the benchmark series is unavailable (relative momentum then
// degrades to absolute).
func (e *Engine) benchmarkMomentum() float64 {
	bars, err := e.bars.GetBars(e.benchmark, "")
	if err != nil || len(bars) <= momentumLookback {
		return 0
	}
	return momentum121(bars)
}

// momentum121 computes 12-1 month momentum: the return from ~252 business
// days back to ~21 business days back, on a business-day reindexed
// series. Short histories fall back to the series' first/last points,
// producing a finite value rather than NaN.
func momentum121(bars []domain.Bar) float64 {
	closes := businessDayCloses(bars)
	n := len(closes)
	if n == 0 {
		return 0
	}

	startIdx := n - 1 - momentumLookback
	if startIdx < 0 {
		startIdx = 0
	}
	endIdx := n - 1 - momentumSkip
	if endIdx < 0 {
		endIdx = n - 1
	}

	start := closes[startIdx]
	end := closes[endIdx]
	if start == 0 {
		return 0
	}
	return end/start - 1
}

// businessDayCloses reindexes the bar series onto a Monday-Friday
// calendar between its first and last dates, forward-filling over
// holidays so positional lookbacks approximate trading days.
func businessDayCloses(bars []domain.Bar) []float64 {
	if len(bars) == 0 {
		return nil
	}

	byDate := make(map[string]float64, len(bars))
	for _, b := range bars {
		byDate[b.Date] = b.Close
	}

	first, err1 := time.Parse("2006-01-02", bars[0].Date)
	last, err2 := time.Parse("2006-01-02", bars[len(bars)-1].Date)
	if err1 != nil || err2 != nil {
		closes := make([]float64, len(bars))
		for i, b := range bars {
			closes[i] = b.Close
		}
		return closes
	}

	var closes []float64
	lastClose := bars[0].Close
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		if c, ok := byDate[d.Format("2006-01-02")]; ok {
			lastClose = c
		}
		closes = append(closes, lastClose)
	}
	return closes
}

// trailingVolatility is the standard deviation of the last n daily
// percentage returns
func trailingVolatility(closes []float64, n int) float64 {
	returns := formulas.Returns(closes)
	if len(returns) > n {
		returns = returns[len(returns)-n:]
	}
	return formulas.StdDev(returns)
}

// altmanZScore computes Z = 1.2A + 1.4B + 3.3C + 0.6D + 1.0E. Missing
// inputs contribute 0 to their component, except total assets: without a
// positive total assets figure the score is undefined.
//
// The D component uses market cap (price × shares) when shares
// outstanding is known, and falls back to book equity otherwise.
func altmanZScore(metrics map[string]float64, currentPrice float64) *float64 {
	totalAssets, ok := resolveMetric(metrics, metricTotalAssets)
	if !ok || totalAssets <= 0 {
		return nil
	}

	equity, hasEquity := resolveMetric(metrics, equityKeys...)

	totalLiab, hasLiab := resolveMetric(metrics, metricTotalLiab)
	if !hasLiab && hasEquity {
		totalLiab = totalAssets - equity
		hasLiab = true
	}

	a := 0.0
	if ca, ok1 := resolveMetric(metrics, metricCurrentAssets); ok1 {
		if cl, ok2 := resolveMetric(metrics, metricCurrentLiab); ok2 {
			a = (ca - cl) / totalAssets
		}
	}

	b := 0.0
	if re, ok := resolveMetric(metrics, metricRetainedEarnings); ok {
		b = re / totalAssets
	}

	c := 0.0
	if ebit, ok := resolveMetric(metrics, metricEbit); ok {
		c = ebit / totalAssets
	}

	d := 0.0
	if hasLiab && totalLiab > 0 {
		if shares, ok := resolveMetric(metrics, metricBasicShares); ok && shares > 0 {
			d = currentPrice * shares / totalLiab
		} else if hasEquity {
			d = equity / totalLiab
		}
	}

	e := 0.0
	if revenue, ok := resolveMetric(metrics, metricTotalRevenue); ok {
		e = revenue / totalAssets
	}

	z := 1.2*a + 1.4*b + 3.3*c + 0.6*d + 1.0*e
	return &z
}
