package ranking

// Strategy names used for ranking history
const (
	StrategySmartBeta    = "smart_beta"
	StrategyMagicFormula = "magic_formula"
	StrategyGARP         = "garp"
)

// FactorSet holds the raw per-ticker factor values. Pointer fields are
// nil when the underlying data is missing; such tickers are imputed to
// the cross-sectional mean during standardization, never scored with a
// fabricated default.
type FactorSet struct {
	Ticker     string   `json:"ticker"`
	Momentum   float64  `json:"momentum_12m"`
	Volatility float64  `json:"volatility"`
	ROE        *float64 `json:"roe,omitempty"`
	ZScore     *float64 `json:"z_score,omitempty"`
	Close      float64  `json:"close"`
}

// RankedStock is one entry of a composite ranking run
type RankedStock struct {
	Ticker     string   `json:"ticker"`
	Rank       int      `json:"rank"`
	Score      float64  `json:"composite_score"`
	Momentum   float64  `json:"momentum_12m"`
	Volatility float64  `json:"volatility"`
	ROE        *float64 `json:"roe,omitempty"`
	ZScore     *float64 `json:"z_score,omitempty"`
	Close      float64  `json:"close"`
	Trend      string   `json:"trend_status"`
	Action     string   `json:"ta_action"`
	// RankChange is previous rank minus current rank: positive means the
	// ticker moved up. Nil means newly ranked.
	RankChange *int `json:"rank_change,omitempty"`
}

// MagicFormulaEntry is one entry of a Magic Formula ranking run
type MagicFormulaEntry struct {
	Ticker        string   `json:"ticker"`
	Rank          int      `json:"rank"`
	ROC           float64  `json:"roc"`
	EarningsYield float64  `json:"earnings_yield"`
	Score         float64  `json:"magic_score"`
	Method        string   `json:"method"` // "Strict" or "Proxy"
	Close         float64  `json:"close"`
	RankChange    *int     `json:"rank_change,omitempty"`
}

// GARPEntry is one entry of a GARP ranking run
type GARPEntry struct {
	Ticker     string   `json:"ticker"`
	Rank       int      `json:"rank"`
	PEG        float64  `json:"peg"`
	Growth     float64  `json:"growth"`
	ROE        *float64 `json:"roe,omitempty"`
	Score      float64  `json:"garp_score"`
	Close      float64  `json:"close"`
	RankChange *int     `json:"rank_change,omitempty"`
}

// Default composite factor weights. Volatility is penalized.
var DefaultWeights = map[string]float64{
	"momentum_12m": 0.4,
	"roe":          0.2,
	"z_score":      0.2,
	"volatility":   -0.2,
}
