package repositories

import (
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantdesk/quantdesk/internal/domain"
)

func TestFundamentalRepository_LatestValue(t *testing.T) {
	repo := NewFundamentalRepository(newTestConn(t), zerolog.Nop())

	require.NoError(t, repo.UpsertFacts([]domain.FundamentalFact{
		{Ticker: "AAPL", ReportDate: "2024-03-31", Metric: "Net Income", Value: 100},
		{Ticker: "AAPL", ReportDate: "2024-06-30", Metric: "Net Income", Value: 120},
	}))

	got, err := repo.LatestValue("AAPL", "Net Income")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 120.0, *got)
}

func TestFundamentalRepository_LatestValue_AbsentIsNil(t *testing.T) {
	repo := NewFundamentalRepository(newTestConn(t), zerolog.Nop())

	got, err := repo.LatestValue("AAPL", "Ebit")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFundamentalRepository_UpsertFacts_DropsNonFinite(t *testing.T) {
	repo := NewFundamentalRepository(newTestConn(t), zerolog.Nop())

	require.NoError(t, repo.UpsertFacts([]domain.FundamentalFact{
		{Ticker: "AAPL", ReportDate: "2024-06-30", Metric: "Ebit", Value: math.NaN()},
		{Ticker: "AAPL", ReportDate: "2024-06-30", Metric: "Net Income", Value: math.Inf(1)},
		{Ticker: "AAPL", ReportDate: "2024-06-30", Metric: "Total Assets", Value: 5000},
	}))

	got, err := repo.LatestValue("AAPL", "Ebit")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = repo.LatestValue("AAPL", "Total Assets")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 5000.0, *got)
}

func TestFundamentalRepository_LatestFundamentals_Batch(t *testing.T) {
	repo := NewFundamentalRepository(newTestConn(t), zerolog.Nop())

	require.NoError(t, repo.UpsertFacts([]domain.FundamentalFact{
		{Ticker: "AAPL", ReportDate: "2024-03-31", Metric: "Net Income", Value: 100},
		{Ticker: "AAPL", ReportDate: "2024-06-30", Metric: "Net Income", Value: 120},
		{Ticker: "AAPL", ReportDate: "2024-06-30", Metric: "Total Assets", Value: 5000},
		{Ticker: "MSFT", ReportDate: "2024-06-30", Metric: "Net Income", Value: 200},
	}))

	got := repo.LatestFundamentals([]string{"AAPL", "MSFT", "GOOG"}, []string{"Net Income", "Total Assets"})

	assert.Equal(t, 120.0, got["AAPL"]["Net Income"])
	assert.Equal(t, 5000.0, got["AAPL"]["Total Assets"])
	assert.Equal(t, 200.0, got["MSFT"]["Net Income"])
	assert.NotContains(t, got, "GOOG")
}

func TestFundamentalRepository_MetricHistory(t *testing.T) {
	repo := NewFundamentalRepository(newTestConn(t), zerolog.Nop())

	require.NoError(t, repo.UpsertFacts([]domain.FundamentalFact{
		{Ticker: "AAPL", ReportDate: "2024-06-30", Metric: "Total Revenue", Value: 90},
		{Ticker: "AAPL", ReportDate: "2024-03-31", Metric: "Total Revenue", Value: 80},
	}))

	history, err := repo.MetricHistory("AAPL", "Total Revenue")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "2024-03-31", history[0].ReportDate)
	assert.Equal(t, 90.0, history[1].Value)
}
