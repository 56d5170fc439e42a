package timing

// PEADParams configures the gap scanner
type PEADParams struct {
	GapPct  float64 `json:"gap_pct"`  // minimum open gap vs prior close
	MinRVol float64 `json:"min_rvol"` // minimum relative volume
	Confirm bool    `json:"confirm"`  // corroborate with intraday sessions
}

// DefaultPEADParams returns the stock scanner defaults
func DefaultPEADParams() PEADParams {
	return PEADParams{GapPct: 0.02, MinRVol: 1.5}
}

// PEADSignal is one gap-up candidate
type PEADSignal struct {
	Ticker        string  `json:"ticker"`
	Signal        string  `json:"signal"`
	GapPct        float64 `json:"gap_pct"`
	RVol          float64 `json:"rvol"`
	CurrentReturn float64 `json:"current_return"`
	Price         float64 `json:"price"`
	Trend         string  `json:"ta_trend"`
}

// VaRParams configures the liquidity-crisis scanner
type VaRParams struct {
	Lookback   int     `json:"lookback"`   // return window, trading days
	Percentile float64 `json:"percentile"` // VaR quantile, 0.05 = 95% VaR
	MinRVol    float64 `json:"min_rvol"`   // capitulation volume threshold
}

// DefaultVaRParams returns the reversal scanner defaults
func DefaultVaRParams() VaRParams {
	return VaRParams{Lookback: 252, Percentile: 0.05, MinRVol: 2.0}
}

// VaR breach classifications
const (
	SignalSystemic      = "Liquidity Driven (Fear Spike)"
	SignalIdiosyncratic = "Idiosyncratic Crash (Risk!)"

	ConfidenceHigh = "High (Quality on Sale)"
	ConfidenceLow  = "Low"
)

// VaRSignal is one tail-event candidate
type VaRSignal struct {
	Ticker     string  `json:"ticker"`
	Signal     string  `json:"signal"`
	Confidence string  `json:"confidence"`
	Drop       float64 `json:"drop"`
	VaR        float64 `json:"var"`
	Price      float64 `json:"price"`
	RVol       float64 `json:"rvol"`
	GaugeLevel float64 `json:"gauge_level"`
}

// SentimentParams configures the sentiment scan thresholds
type SentimentParams struct {
	BuyThreshold  float64 `json:"buy_threshold"`
	SellThreshold float64 `json:"sell_threshold"`
}

// DefaultSentimentParams returns the contrarian defaults
func DefaultSentimentParams() SentimentParams {
	return SentimentParams{BuyThreshold: 25, SellThreshold: 75}
}

// Sentiment classifications and postures
const (
	SentimentExtremeFear  = "EXTREME FEAR"
	SentimentNeutral      = "NEUTRAL"
	SentimentExtremeGreed = "EXTREME GREED"

	PostureAggressive = "BUY / Aggressive Allocation"
	PostureHold       = "Hold / Normal Allocation"
	PostureDefensive  = "SELL / Hedge / Defensive"
)

// SentimentReading is the classified market sentiment
type SentimentReading struct {
	Score     float64 `json:"score"`
	Rating    string  `json:"rating"`
	Signal    string  `json:"signal"`
	Action    string  `json:"action"`
	Timestamp string  `json:"timestamp"`
}
