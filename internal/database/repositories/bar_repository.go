package repositories

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/quantdesk/quantdesk/internal/domain"
)

// BarRepository persists daily OHLCV bars
type BarRepository struct {
	*BaseRepository
}

// NewBarRepository creates a new bar repository
func NewBarRepository(db *sql.DB, log zerolog.Logger) *BarRepository {
	return &BarRepository{
		BaseRepository: NewBase(db, log.With().Str("repo", "bars").Logger()),
	}
}

// UpsertBars inserts or replaces a batch of bars in a single transaction.
// Replace-on-conflict keeps redundant re-fetches idempotent. No-op on
// empty input.
func (r *BarRepository) UpsertBars(ticker string, bars []domain.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO market_data (ticker, date, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.Exec(ticker, b.Date, b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			return fmt.Errorf("failed to upsert bar %s/%s: %w", ticker, b.Date, err)
		}
	}

	return tx.Commit()
}

// GetBars returns the ascending-by-date series for a ticker, optionally
// truncated to fromDate (inclusive). Pass "" for the full series.
func (r *BarRepository) GetBars(ticker, fromDate string) ([]domain.Bar, error) {
	query := `SELECT date, open, high, low, close, volume FROM market_data WHERE ticker = ?`
	args := []interface{}{ticker}
	if fromDate != "" {
		query += ` AND date >= ?`
		args = append(args, fromDate)
	}
	query += ` ORDER BY date ASC`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bars: %w", err)
	}
	defer rows.Close()

	var bars []domain.Bar
	for rows.Next() {
		b := domain.Bar{Ticker: ticker}
		var volume sql.NullInt64
		if err := rows.Scan(&b.Date, &b.Open, &b.High, &b.Low, &b.Close, &volume); err != nil {
			return nil, fmt.Errorf("failed to scan bar: %w", err)
		}
		if volume.Valid {
			b.Volume = volume.Int64
		}
		bars = append(bars, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bars: %w", err)
	}

	return bars, nil
}

// Closes returns just the close-price series, ascending by date
func (r *BarRepository) Closes(ticker string) ([]float64, error) {
	bars, err := r.GetBars(ticker, "")
	if err != nil {
		return nil, err
	}
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes, nil
}

// LatestBarDate returns the most recent cached date for a ticker, or ""
// when nothing is cached.
func (r *BarRepository) LatestBarDate(ticker string) (string, error) {
	var date sql.NullString
	err := r.db.QueryRow(`SELECT MAX(date) FROM market_data WHERE ticker = ?`, ticker).Scan(&date)
	if err != nil {
		return "", fmt.Errorf("failed to query latest bar date: %w", err)
	}
	if !date.Valid {
		return "", nil
	}
	return date.String, nil
}

// LatestBarDates returns ticker -> latest cached date for a batch of
// tickers in a single aggregate query. Tickers with no cached data are
// absent from the map. Degrades to an empty map on storage failure.
func (r *BarRepository) LatestBarDates(tickers []string) map[string]string {
	result := make(map[string]string)
	if len(tickers) == 0 {
		return result
	}

	query := fmt.Sprintf(
		`SELECT ticker, MAX(date) FROM market_data WHERE ticker IN (%s) GROUP BY ticker`,
		placeholders(len(tickers)),
	)
	args := make([]interface{}, len(tickers))
	for i, t := range tickers {
		args[i] = t
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to batch-query latest bar dates")
		return result
	}
	defer rows.Close()

	for rows.Next() {
		var ticker string
		var date sql.NullString
		if err := rows.Scan(&ticker, &date); err != nil {
			r.log.Error().Err(err).Msg("Failed to scan latest bar date")
			continue
		}
		if date.Valid {
			result[ticker] = date.String
		}
	}

	return result
}
