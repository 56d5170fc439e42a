package repositories

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantdesk/quantdesk/internal/domain"
)

func floatp(v float64) *float64 { return &v }

func TestStockInfoRepository_UpsertAndSnapshots(t *testing.T) {
	repo := NewStockInfoRepository(newTestConn(t), zerolog.Nop())

	require.NoError(t, repo.Upsert(domain.StockInfo{
		Ticker:        "AAPL",
		CompanyName:   "Apple Inc.",
		Sector:        "Technology",
		PEGRatio:      floatp(2.1),
		RevenueGrowth: floatp(0.08),
		LastUpdated:   "2024-01-10 09:00:00",
	}))

	snaps := repo.Snapshots([]string{"AAPL", "MSFT"})
	require.Contains(t, snaps, "AAPL")
	assert.NotContains(t, snaps, "MSFT")

	got := snaps["AAPL"]
	assert.Equal(t, "Apple Inc.", got.CompanyName)
	require.NotNil(t, got.PEGRatio)
	assert.Equal(t, 2.1, *got.PEGRatio)
	// fields the provider omitted stay nil, not zero
	assert.Nil(t, got.MarketCap)
	assert.Nil(t, got.Beta)
}

func TestStockInfoRepository_Upsert_ReplacesWholeRow(t *testing.T) {
	repo := NewStockInfoRepository(newTestConn(t), zerolog.Nop())

	require.NoError(t, repo.Upsert(domain.StockInfo{
		Ticker: "AAPL", PEGRatio: floatp(2.1), Beta: floatp(1.2),
	}))
	require.NoError(t, repo.Upsert(domain.StockInfo{
		Ticker: "AAPL", PEGRatio: floatp(1.8),
	}))

	got := repo.Snapshots([]string{"AAPL"})["AAPL"]
	require.NotNil(t, got.PEGRatio)
	assert.Equal(t, 1.8, *got.PEGRatio)
	// beta was absent in the replacement snapshot
	assert.Nil(t, got.Beta)
}
