package sync

// Summary reports the outcome of one sync run
type Summary struct {
	RunID    string `json:"run_id"`
	Total    int    `json:"total"`
	Synced   int    `json:"synced"`
	UpToDate int    `json:"up_to_date"`
	Failed   int    `json:"failed"`
}

// task is one per-ticker fetch unit. Full-history tasks have Since == "";
// incremental tasks fetch [Since, yesterday].
type task struct {
	Ticker string
	Since  string
}

// Sync log status reasons
const (
	reasonTimeout = "TIMEOUT"
	reasonNetwork = "NETWORK_ERROR"
	reasonParse   = "PARSE_ERROR"
	reasonNoData  = "NO_DATA"
	reasonStore   = "STORE_ERROR"
)
