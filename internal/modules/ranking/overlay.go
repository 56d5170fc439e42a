package ranking

import (
	"math"

	"github.com/quantdesk/quantdesk/pkg/formulas"
)

// Trend and action labels produced by the technical overlay
const (
	TrendBullish = "Bullish"
	TrendBearish = "Bearish"
	TrendUnknown = "Unknown"

	ActionSupportBounce = "Buy (Support Bounce)"
	ActionTrendBuy      = "Buy (Trend)"
	ActionRebound       = "Cautious (Rebound)"
	ActionAvoid         = "Sell / Avoid"
	ActionNeutral       = "Neutral"
	ActionWait          = "Wait/No Data"
)

// minimum history required before the macro trend can be classified
const trendMinBars = 200

// TrendSetup classifies the latest technical posture of a close series:
// macro trend from price vs SMA-200, short-term momentum from MACD
// polarity, and a pullback setup from proximity to SMA-20 (within 2%).
type TrendSetup struct {
	Trend  string `json:"trend"`
	Action string `json:"ta_signal"`
}

// ClassifyTrend evaluates the technical overlay for a close series
func ClassifyTrend(closes []float64) TrendSetup {
	if len(closes) < trendMinBars {
		return TrendSetup{Trend: TrendUnknown, Action: ActionWait}
	}

	price := closes[len(closes)-1]
	sma20 := formulas.LastSMA(closes, 20)
	sma200 := formulas.LastSMA(closes, 200)
	macd := formulas.MACD(closes, 12, 26, 9)
	if sma20 == nil || sma200 == nil || macd == nil {
		return TrendSetup{Trend: TrendUnknown, Action: ActionWait}
	}

	trend := TrendBearish
	if price > *sma200 {
		trend = TrendBullish
	}

	macdBullish := macd.Line > macd.Signal
	nearSupport := *sma20 != 0 && math.Abs((price-*sma20) / *sma20) < 0.02

	action := ActionNeutral
	if trend == TrendBullish {
		if nearSupport {
			action = ActionSupportBounce
		} else if macdBullish {
			action = ActionTrendBuy
		}
	} else {
		if macdBullish {
			action = ActionRebound
		} else {
			action = ActionAvoid
		}
	}

	return TrendSetup{Trend: trend, Action: action}
}
