package repositories

import (
	"database/sql"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/quantdesk/quantdesk/internal/domain"
)

// FundamentalRepository persists long-format financial-statement line items
type FundamentalRepository struct {
	*BaseRepository
}

// NewFundamentalRepository creates a new fundamental repository
func NewFundamentalRepository(db *sql.DB, log zerolog.Logger) *FundamentalRepository {
	return &FundamentalRepository{
		BaseRepository: NewBase(db, log.With().Str("repo", "fundamentals").Logger()),
	}
}

// UpsertFacts inserts or replaces a batch of facts in one transaction.
// Non-finite values are dropped rather than stored as placeholders.
func (r *FundamentalRepository) UpsertFacts(facts []domain.FundamentalFact) error {
	if len(facts) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO fundamentals (ticker, report_date, metric, value)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, f := range facts {
		if math.IsNaN(f.Value) || math.IsInf(f.Value, 0) {
			continue
		}
		if _, err := stmt.Exec(f.Ticker, f.ReportDate, f.Metric, f.Value); err != nil {
			return fmt.Errorf("failed to upsert fact %s/%s/%s: %w", f.Ticker, f.ReportDate, f.Metric, err)
		}
	}

	return tx.Commit()
}

// LatestValue returns the most recent value for one (ticker, metric) pair,
// or nil when no row exists.
func (r *FundamentalRepository) LatestValue(ticker, metric string) (*float64, error) {
	var value sql.NullFloat64
	err := r.db.QueryRow(`
		SELECT value FROM fundamentals
		WHERE ticker = ? AND metric = ?
		ORDER BY report_date DESC
		LIMIT 1
	`, ticker, metric).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest value: %w", err)
	}
	if !value.Valid {
		return nil, nil
	}
	return &value.Float64, nil
}

// MetricHistory returns (report_date, value) pairs for one metric,
// ascending by report date.
func (r *FundamentalRepository) MetricHistory(ticker, metric string) ([]domain.FundamentalFact, error) {
	rows, err := r.db.Query(`
		SELECT report_date, value FROM fundamentals
		WHERE ticker = ? AND metric = ?
		ORDER BY report_date ASC
	`, ticker, metric)
	if err != nil {
		return nil, fmt.Errorf("failed to query metric history: %w", err)
	}
	defer rows.Close()

	var facts []domain.FundamentalFact
	for rows.Next() {
		f := domain.FundamentalFact{Ticker: ticker, Metric: metric}
		if err := rows.Scan(&f.ReportDate, &f.Value); err != nil {
			return nil, fmt.Errorf("failed to scan fact: %w", err)
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

// LatestFundamentals returns ticker -> metric -> latest value for a batch
// of tickers and metrics using a single grouped join (per-ticker-per-metric
// max report_date). Degrades to an empty map on storage failure since
// downstream scoring treats absent values as "missing data".
func (r *FundamentalRepository) LatestFundamentals(tickers, metrics []string) map[string]map[string]float64 {
	result := make(map[string]map[string]float64)
	if len(tickers) == 0 || len(metrics) == 0 {
		return result
	}

	query := fmt.Sprintf(`
		SELECT f.ticker, f.metric, f.value
		FROM fundamentals f
		INNER JOIN (
			SELECT ticker, metric, MAX(report_date) AS max_date
			FROM fundamentals
			WHERE ticker IN (%s) AND metric IN (%s)
			GROUP BY ticker, metric
		) latest
		ON f.ticker = latest.ticker
		AND f.metric = latest.metric
		AND f.report_date = latest.max_date
	`, placeholders(len(tickers)), placeholders(len(metrics)))

	args := make([]interface{}, 0, len(tickers)+len(metrics))
	for _, t := range tickers {
		args = append(args, t)
	}
	for _, m := range metrics {
		args = append(args, m)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to batch-query fundamentals")
		return result
	}
	defer rows.Close()

	for rows.Next() {
		var ticker, metric string
		var value float64
		if err := rows.Scan(&ticker, &metric, &value); err != nil {
			r.log.Error().Err(err).Msg("Failed to scan fundamental row")
			continue
		}
		if _, ok := result[ticker]; !ok {
			result[ticker] = make(map[string]float64)
		}
		result[ticker][metric] = value
	}

	return result
}
