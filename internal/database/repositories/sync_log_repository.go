package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantdesk/quantdesk/internal/domain"
)

// SyncLogRepository records per-ticker sync outcomes for diagnostics.
// One row per ticker, overwritten on each attempt.
type SyncLogRepository struct {
	*BaseRepository
}

// NewSyncLogRepository creates a new sync log repository
func NewSyncLogRepository(db *sql.DB, log zerolog.Logger) *SyncLogRepository {
	return &SyncLogRepository{
		BaseRepository: NewBase(db, log.With().Str("repo", "sync_log").Logger()),
	}
}

// RecordFailure marks a batch of tickers as failed with a reason.
// Storage errors here are logged and swallowed: the sync log is
// observability, not authoritative data.
func (r *SyncLogRepository) RecordFailure(tickers []string, reason string) {
	r.record(tickers, reason)
}

// RecordSuccess marks a batch of tickers as successfully synced
func (r *SyncLogRepository) RecordSuccess(tickers []string) {
	r.record(tickers, "OK")
}

func (r *SyncLogRepository) record(tickers []string, status string) {
	if len(tickers) == 0 {
		return
	}

	now := time.Now().Format("2006-01-02 15:04:05")

	tx, err := r.db.Begin()
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to begin sync log transaction")
		return
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO sync_log (ticker, status, last_attempt)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to prepare sync log insert")
		return
	}
	defer stmt.Close()

	for _, t := range tickers {
		if _, err := stmt.Exec(t, status, now); err != nil {
			r.log.Error().Err(err).Str("ticker", t).Msg("Failed to record sync status")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		r.log.Error().Err(err).Msg("Failed to commit sync log")
	}
}

// Statuses returns all recorded sync statuses
func (r *SyncLogRepository) Statuses() ([]domain.SyncStatus, error) {
	rows, err := r.db.Query(`SELECT ticker, status, last_attempt FROM sync_log ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync log: %w", err)
	}
	defer rows.Close()

	var statuses []domain.SyncStatus
	for rows.Next() {
		var s domain.SyncStatus
		var attempt sql.NullString
		if err := rows.Scan(&s.Ticker, &s.Status, &attempt); err != nil {
			return nil, fmt.Errorf("failed to scan sync status: %w", err)
		}
		s.LastAttempt = attempt.String
		statuses = append(statuses, s)
	}
	return statuses, rows.Err()
}

// Status returns the recorded status for one ticker, or nil when the
// ticker has no sync log entry (meaning success or never attempted).
func (r *SyncLogRepository) Status(ticker string) (*domain.SyncStatus, error) {
	var s domain.SyncStatus
	var attempt sql.NullString
	err := r.db.QueryRow(`SELECT ticker, status, last_attempt FROM sync_log WHERE ticker = ?`, ticker).
		Scan(&s.Ticker, &s.Status, &attempt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query sync status: %w", err)
	}
	s.LastAttempt = attempt.String
	return &s, nil
}
