package ranking

import (
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantdesk/quantdesk/internal/database"
	"github.com/quantdesk/quantdesk/internal/database/repositories"
	"github.com/quantdesk/quantdesk/internal/domain"
)

type engineFixture struct {
	engine   *Engine
	bars     *repositories.BarRepository
	facts    *repositories.FundamentalRepository
	info     *repositories.StockInfoRepository
	rankings *repositories.RankingRepository
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	db, err := database.NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	log := zerolog.Nop()
	f := &engineFixture{
		bars:     repositories.NewBarRepository(db.Conn(), log),
		facts:    repositories.NewFundamentalRepository(db.Conn(), log),
		info:     repositories.NewStockInfoRepository(db.Conn(), log),
		rankings: repositories.NewRankingRepository(db.Conn(), log),
	}
	f.engine = NewEngine(f.bars, f.facts, f.info, f.rankings, "SPY", 20, log)
	f.engine.now = func() time.Time {
		return time.Date(2024, 6, 14, 12, 0, 0, 0, time.UTC)
	}
	return f
}

// genBars produces n weekday bars ending near the fixture date, with
// close walking from startPrice by step per bar.
func genBars(n int, startPrice, step float64) []domain.Bar {
	bars := make([]domain.Bar, 0, n)
	d := time.Date(2024, 6, 13, 0, 0, 0, 0, time.UTC)
	for len(bars) < n {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			bars = append(bars, domain.Bar{Date: d.Format("2006-01-02"), Volume: 1000})
		}
		d = d.AddDate(0, 0, -1)
	}
	// reverse into ascending order and assign the price walk
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
	for i := range bars {
		price := startPrice + float64(i)*step
		bars[i].Open = price
		bars[i].High = price
		bars[i].Low = price
		bars[i].Close = price
	}
	return bars
}

func TestCalculateFactors_ShortHistoryMomentumIsFinite(t *testing.T) {
	f := newEngineFixture(t)

	// only ~60 days of history: the 12-month anchor falls back to the
	// first available close
	require.NoError(t, f.bars.UpsertBars("AAA", genBars(60, 100, 1)))

	factors := f.engine.CalculateFactors([]string{"AAA"})
	require.Len(t, factors, 1)

	assert.False(t, math.IsNaN(factors[0].Momentum))
	assert.False(t, math.IsInf(factors[0].Momentum, 0))
	assert.Greater(t, factors[0].Momentum, 0.0)
}

func TestCalculateFactors_MissingFundamentalsStayNil(t *testing.T) {
	f := newEngineFixture(t)

	require.NoError(t, f.bars.UpsertBars("AAA", genBars(30, 100, 0)))

	factors := f.engine.CalculateFactors([]string{"AAA"})
	require.Len(t, factors, 1)
	assert.Nil(t, factors[0].ROE)
	assert.Nil(t, factors[0].ZScore)
}

func TestCalculateFactors_SkipsTickersWithoutBars(t *testing.T) {
	f := newEngineFixture(t)

	require.NoError(t, f.bars.UpsertBars("AAA", genBars(30, 100, 0)))

	factors := f.engine.CalculateFactors([]string{"AAA", "NODATA"})
	require.Len(t, factors, 1)
	assert.Equal(t, "AAA", factors[0].Ticker)
}

func TestAltmanZScore(t *testing.T) {
	metrics := map[string]float64{
		"Total Assets":         1000,
		"Current Assets":       400,
		"Current Liabilities":  200,
		"Retained Earnings":    100,
		"Ebit":                 150,
		"Total Revenue":        800,
		"Basic Average Shares": 10,
		"Total Liabilities Net Minority Interest": 500,
	}

	z := altmanZScore(metrics, 50)
	require.NotNil(t, z)

	// A=0.2 B=0.1 C=0.15 D=500/500=1 E=0.8
	want := 1.2*0.2 + 1.4*0.1 + 3.3*0.15 + 0.6*1.0 + 1.0*0.8
	assert.InDelta(t, want, *z, 1e-9)
}

func TestAltmanZScore_UndefinedWithoutAssets(t *testing.T) {
	assert.Nil(t, altmanZScore(map[string]float64{"Ebit": 100}, 50))
	assert.Nil(t, altmanZScore(map[string]float64{"Total Assets": 0}, 50))
}

func TestAltmanZScore_BookEquityFallback(t *testing.T) {
	// no shares outstanding: D uses book equity over liabilities
	metrics := map[string]float64{
		"Total Assets":        1000,
		"Stockholders Equity": 600,
	}

	z := altmanZScore(metrics, 50)
	require.NotNil(t, z)
	// liabilities derived as assets - equity = 400, D = 600/400
	assert.InDelta(t, 0.6*1.5, *z, 1e-9)
}

func TestRankComposite_Deterministic(t *testing.T) {
	f := newEngineFixture(t)

	require.NoError(t, f.bars.UpsertBars("AAA", genBars(300, 100, 0.5)))
	require.NoError(t, f.bars.UpsertBars("BBB", genBars(300, 100, 0.1)))
	require.NoError(t, f.bars.UpsertBars("CCC", genBars(300, 200, -0.2)))

	tickers := []string{"AAA", "BBB", "CCC"}

	first, err := f.engine.RankComposite(tickers, nil)
	require.NoError(t, err)
	require.Len(t, first, 3)

	second, err := f.engine.RankComposite(tickers, nil)
	require.NoError(t, err)
	require.Len(t, second, 3)

	for i := range first {
		assert.Equal(t, first[i].Ticker, second[i].Ticker)
		assert.Equal(t, first[i].Rank, second[i].Rank)
		assert.InDelta(t, first[i].Score, second[i].Score, 1e-12)
	}

	// strongest momentum should outrank the declining ticker
	assert.Equal(t, "AAA", first[0].Ticker)
	assert.Equal(t, "CCC", first[2].Ticker)
}

func TestRankComposite_RankChange(t *testing.T) {
	f := newEngineFixture(t)

	require.NoError(t, f.bars.UpsertBars("AAA", genBars(300, 100, 0.5)))
	require.NoError(t, f.bars.UpsertBars("BBB", genBars(300, 100, 0.1)))

	// yesterday's run had AAA in third place and no BBB at all
	require.NoError(t, f.rankings.Append([]domain.RankingRecord{
		{Strategy: StrategySmartBeta, Date: "2024-06-13", Ticker: "AAA", Rank: 3, Score: 0.5},
	}))

	ranked, err := f.engine.RankComposite([]string{"AAA", "BBB"}, nil)
	require.NoError(t, err)
	require.Len(t, ranked, 2)

	require.Equal(t, "AAA", ranked[0].Ticker)
	require.NotNil(t, ranked[0].RankChange)
	assert.Equal(t, 2, *ranked[0].RankChange)

	// newly ranked tickers have no change, not zero
	assert.Equal(t, "BBB", ranked[1].Ticker)
	assert.Nil(t, ranked[1].RankChange)
}

func TestRankMagicFormula_StrictScenario(t *testing.T) {
	f := newEngineFixture(t)

	require.NoError(t, f.bars.UpsertBars("AAA", genBars(10, 50, 0)))
	require.NoError(t, f.facts.UpsertFacts([]domain.FundamentalFact{
		{Ticker: "AAA", ReportDate: "2024-03-31", Metric: "Ebit", Value: 500},
		{Ticker: "AAA", ReportDate: "2024-03-31", Metric: "Basic Average Shares", Value: 100},
		{Ticker: "AAA", ReportDate: "2024-03-31", Metric: "Total Assets", Value: 5000},
		{Ticker: "AAA", ReportDate: "2024-03-31", Metric: "Current Liabilities", Value: 1000},
		{Ticker: "AAA", ReportDate: "2024-03-31", Metric: "Total Debt", Value: 200},
		{Ticker: "AAA", ReportDate: "2024-03-31", Metric: "Cash And Cash Equivalents", Value: 50},
	}))

	entries, err := f.engine.RankMagicFormula([]string{"AAA"})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got := entries[0]
	assert.Equal(t, MethodStrict, got.Method)
	// market cap 5000, EV 5150, capital employed 4000
	assert.InDelta(t, 0.125, got.ROC, 1e-9)
	assert.InDelta(t, 500.0/5150.0, got.EarningsYield, 1e-9)
	assert.Equal(t, 1, got.Rank)
}

func TestRankMagicFormula_ProxyFallback(t *testing.T) {
	f := newEngineFixture(t)

	// no shares outstanding: strict EV math is impossible
	require.NoError(t, f.bars.UpsertBars("BBB", genBars(10, 40, 0)))
	require.NoError(t, f.facts.UpsertFacts([]domain.FundamentalFact{
		{Ticker: "BBB", ReportDate: "2024-03-31", Metric: "Net Income", Value: 400},
		{Ticker: "BBB", ReportDate: "2024-03-31", Metric: "Total Assets", Value: 8000},
		{Ticker: "BBB", ReportDate: "2024-03-31", Metric: "Diluted EPS", Value: 2},
	}))

	entries, err := f.engine.RankMagicFormula([]string{"BBB"})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got := entries[0]
	assert.Equal(t, MethodProxy, got.Method)
	assert.InDelta(t, 0.05, got.ROC, 1e-9)
	assert.InDelta(t, 0.05, got.EarningsYield, 1e-9)
}

func TestRankMagicFormula_ExcludesIncompleteTickers(t *testing.T) {
	f := newEngineFixture(t)

	require.NoError(t, f.bars.UpsertBars("CCC", genBars(10, 40, 0)))
	// EPS only: earnings yield resolves but capital return never does
	require.NoError(t, f.facts.UpsertFacts([]domain.FundamentalFact{
		{Ticker: "CCC", ReportDate: "2024-03-31", Metric: "Diluted EPS", Value: 2},
	}))

	entries, err := f.engine.RankMagicFormula([]string{"CCC"})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRankGARP(t *testing.T) {
	f := newEngineFixture(t)

	require.NoError(t, f.bars.UpsertBars("CHEAP", genBars(10, 40, 0)))
	require.NoError(t, f.bars.UpsertBars("RICH", genBars(10, 90, 0)))
	require.NoError(t, f.bars.UpsertBars("NOPEG", genBars(10, 10, 0)))

	peg1, growth1 := 0.8, 0.25
	peg2, growth2 := 3.5, 0.05
	require.NoError(t, f.info.Upsert(domain.StockInfo{
		Ticker: "CHEAP", PEGRatio: &peg1, RevenueGrowth: &growth1,
	}))
	require.NoError(t, f.info.Upsert(domain.StockInfo{
		Ticker: "RICH", PEGRatio: &peg2, RevenueGrowth: &growth2,
	}))
	require.NoError(t, f.info.Upsert(domain.StockInfo{Ticker: "NOPEG"}))

	entries, err := f.engine.RankGARP([]string{"CHEAP", "RICH", "NOPEG"})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "CHEAP", entries[0].Ticker)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "RICH", entries[1].Ticker)
}

func TestRankValues_AverageTies(t *testing.T) {
	ranks := rankValues([]float64{10, 20, 20, 5}, false)
	assert.Equal(t, []float64{2, 3.5, 3.5, 1}, ranks)

	desc := rankValues([]float64{10, 20, 20, 5}, true)
	assert.Equal(t, []float64{3, 1.5, 1.5, 4}, desc)
}

func TestRankChangeHelper(t *testing.T) {
	prev := map[string]int{"AAPL": 3}

	change := rankChange(prev, "AAPL", 1)
	require.NotNil(t, change)
	assert.Equal(t, 2, *change)

	assert.Nil(t, rankChange(prev, "MSFT", 1))
}
