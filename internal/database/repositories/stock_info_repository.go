package repositories

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/quantdesk/quantdesk/internal/domain"
)

// StockInfoRepository persists per-ticker reference snapshots
type StockInfoRepository struct {
	*BaseRepository
}

// NewStockInfoRepository creates a new stock info repository
func NewStockInfoRepository(db *sql.DB, log zerolog.Logger) *StockInfoRepository {
	return &StockInfoRepository{
		BaseRepository: NewBase(db, log.With().Str("repo", "stock_info").Logger()),
	}
}

// Upsert replaces the whole snapshot row for a ticker
func (r *StockInfoRepository) Upsert(info domain.StockInfo) error {
	_, err := r.db.Exec(`
		INSERT OR REPLACE INTO stock_info
		(ticker, company_name, sector, industry, market_cap, peg_ratio,
		 revenue_growth, return_on_equity, beta, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		info.Ticker, info.CompanyName, info.Sector, info.Industry,
		nullableFloat(info.MarketCap), nullableFloat(info.PEGRatio),
		nullableFloat(info.RevenueGrowth), nullableFloat(info.ReturnOnEquity),
		nullableFloat(info.Beta), info.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert stock info for %s: %w", info.Ticker, err)
	}
	return nil
}

// Snapshots returns ticker -> snapshot for a batch of tickers in one query.
// Degrades to an empty map on storage failure.
func (r *StockInfoRepository) Snapshots(tickers []string) map[string]domain.StockInfo {
	result := make(map[string]domain.StockInfo)
	if len(tickers) == 0 {
		return result
	}

	query := fmt.Sprintf(`
		SELECT ticker, company_name, sector, industry, market_cap, peg_ratio,
		       revenue_growth, return_on_equity, beta, last_updated
		FROM stock_info WHERE ticker IN (%s)
	`, placeholders(len(tickers)))

	args := make([]interface{}, len(tickers))
	for i, t := range tickers {
		args[i] = t
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to batch-query stock info")
		return result
	}
	defer rows.Close()

	for rows.Next() {
		var info domain.StockInfo
		var name, sector, industry, updated sql.NullString
		var marketCap, peg, growth, roe, beta sql.NullFloat64
		if err := rows.Scan(&info.Ticker, &name, &sector, &industry,
			&marketCap, &peg, &growth, &roe, &beta, &updated); err != nil {
			r.log.Error().Err(err).Msg("Failed to scan stock info row")
			continue
		}
		info.CompanyName = name.String
		info.Sector = sector.String
		info.Industry = industry.String
		info.LastUpdated = updated.String
		info.MarketCap = floatPtr(marketCap)
		info.PEGRatio = floatPtr(peg)
		info.RevenueGrowth = floatPtr(growth)
		info.ReturnOnEquity = floatPtr(roe)
		info.Beta = floatPtr(beta)
		result[info.Ticker] = info
	}

	return result
}

func nullableFloat(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}

func floatPtr(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}
