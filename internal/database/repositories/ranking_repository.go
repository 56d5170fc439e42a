package repositories

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/quantdesk/quantdesk/internal/domain"
)

// RankingRepository persists ranking runs, append-only per (strategy, date)
type RankingRepository struct {
	*BaseRepository
}

// NewRankingRepository creates a new ranking repository
func NewRankingRepository(db *sql.DB, log zerolog.Logger) *RankingRepository {
	return &RankingRepository{
		BaseRepository: NewBase(db, log.With().Str("repo", "rankings").Logger()),
	}
}

// Append stores one ranking run. Re-running on the same date replaces that
// date's rows, so a re-ranked day stays internally consistent.
func (r *RankingRepository) Append(records []domain.RankingRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO ranking_history (strategy, date, ticker, rank, score)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.Exec(rec.Strategy, rec.Date, rec.Ticker, rec.Rank, rec.Score); err != nil {
			return fmt.Errorf("failed to insert ranking %s/%s: %w", rec.Strategy, rec.Ticker, err)
		}
	}

	return tx.Commit()
}

// PreviousRanking returns ticker -> rank for the most recent run date
// strictly before the given date for this strategy. Empty map when no
// earlier run exists (every ticker is then "new") or on storage failure.
func (r *RankingRepository) PreviousRanking(strategy, before string) map[string]int {
	result := make(map[string]int)

	var prevDate sql.NullString
	err := r.db.QueryRow(`
		SELECT MAX(date) FROM ranking_history
		WHERE strategy = ? AND date < ?
	`, strategy, before).Scan(&prevDate)
	if err != nil || !prevDate.Valid {
		if err != nil && err != sql.ErrNoRows {
			r.log.Error().Err(err).Msg("Failed to find previous ranking date")
		}
		return result
	}

	rows, err := r.db.Query(`
		SELECT ticker, rank FROM ranking_history
		WHERE strategy = ? AND date = ?
	`, strategy, prevDate.String)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to load previous ranking")
		return result
	}
	defer rows.Close()

	for rows.Next() {
		var ticker string
		var rank int
		if err := rows.Scan(&ticker, &rank); err != nil {
			r.log.Error().Err(err).Msg("Failed to scan ranking row")
			continue
		}
		result[ticker] = rank
	}

	return result
}
