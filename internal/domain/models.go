package domain

// Dates are stored as YYYY-MM-DD strings throughout; lexical order matches
// chronological order, which keeps SQLite range queries simple.

// Bar is one completed trading day of OHLCV data for one ticker
type Bar struct {
	Ticker string  `json:"ticker"`
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// FundamentalFact is a single financial-statement line item for one
// reporting period. Long/narrow layout: the set of available metrics
// varies per company and per provider response shape.
type FundamentalFact struct {
	Ticker     string  `json:"ticker"`
	ReportDate string  `json:"report_date"`
	Metric     string  `json:"metric"`
	Value      float64 `json:"value"`
}

// StockInfo is a point-in-time reference snapshot, replaced wholesale on
// every refresh. Pointer fields are absent when the provider omitted them.
type StockInfo struct {
	Ticker         string   `json:"ticker"`
	CompanyName    string   `json:"company_name"`
	Sector         string   `json:"sector"`
	Industry       string   `json:"industry"`
	MarketCap      *float64 `json:"market_cap,omitempty"`
	PEGRatio       *float64 `json:"peg_ratio,omitempty"`
	RevenueGrowth  *float64 `json:"revenue_growth,omitempty"`
	ReturnOnEquity *float64 `json:"return_on_equity,omitempty"`
	Beta           *float64 `json:"beta,omitempty"`
	LastUpdated    string   `json:"last_updated"`
}

// RankingRecord is one row of a persisted ranking run. Append-only; never
// mutated after a run.
type RankingRecord struct {
	Strategy string  `json:"strategy"`
	Date     string  `json:"date"`
	Ticker   string  `json:"ticker"`
	Rank     int     `json:"rank"`
	Score    float64 `json:"score"`
}

// SyncStatus is a transient per-ticker diagnostic record, overwritten on
// each sync attempt. Observability only, never authoritative.
type SyncStatus struct {
	Ticker      string `json:"ticker"`
	Status      string `json:"status"`
	LastAttempt string `json:"last_attempt"`
}
