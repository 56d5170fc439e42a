package database

import "fmt"

// Schema statements are idempotent so Migrate can run on every startup.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS market_data (
		ticker TEXT NOT NULL,
		date   TEXT NOT NULL,
		open   REAL,
		high   REAL,
		low    REAL,
		close  REAL,
		volume INTEGER,
		PRIMARY KEY (ticker, date)
	)`,
	`CREATE TABLE IF NOT EXISTS fundamentals (
		ticker      TEXT NOT NULL,
		report_date TEXT NOT NULL,
		metric      TEXT NOT NULL,
		value       REAL NOT NULL,
		PRIMARY KEY (ticker, report_date, metric)
	)`,
	`CREATE TABLE IF NOT EXISTS stock_info (
		ticker           TEXT PRIMARY KEY,
		company_name     TEXT,
		sector           TEXT,
		industry         TEXT,
		market_cap       REAL,
		peg_ratio        REAL,
		revenue_growth   REAL,
		return_on_equity REAL,
		beta             REAL,
		last_updated     TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS ranking_history (
		strategy TEXT NOT NULL,
		date     TEXT NOT NULL,
		ticker   TEXT NOT NULL,
		rank     INTEGER NOT NULL,
		score    REAL NOT NULL,
		PRIMARY KEY (strategy, date, ticker)
	)`,
	`CREATE TABLE IF NOT EXISTS sync_log (
		ticker       TEXT PRIMARY KEY,
		status       TEXT NOT NULL,
		last_attempt TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_market_data_ticker_date ON market_data (ticker, date)`,
	`CREATE INDEX IF NOT EXISTS idx_fundamentals_lookup ON fundamentals (ticker, metric, report_date)`,
	`CREATE INDEX IF NOT EXISTS idx_ranking_history_strategy_date ON ranking_history (strategy, date)`,
}

// Migrate creates the schema if it does not exist yet
func (db *DB) Migrate() error {
	for _, stmt := range schema {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
