package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
)

// SMA calculates a simple moving average series. Entries before the
// window has filled are left at zero, matching talib semantics.
func SMA(closes []float64, window int) []float64 {
	if len(closes) < window || window < 1 {
		return nil
	}
	return talib.Sma(closes, window)
}

// LastSMA returns the latest simple moving average value, or nil when
// there is not enough history.
func LastSMA(closes []float64, window int) *float64 {
	sma := SMA(closes, window)
	if len(sma) == 0 {
		return nil
	}
	last := sma[len(sma)-1]
	if math.IsNaN(last) {
		return nil
	}
	return &last
}

// MACDResult holds the latest MACD line, signal line and histogram values
type MACDResult struct {
	Line      float64 `json:"line"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// MACD calculates MACD(fast, slow, signal) and returns the latest values,
// or nil when there is not enough history.
func MACD(closes []float64, fast, slow, signal int) *MACDResult {
	if len(closes) < slow+signal {
		return nil
	}

	line, sig, hist := talib.Macd(closes, fast, slow, signal)
	n := len(line)
	if n == 0 || math.IsNaN(line[n-1]) || math.IsNaN(sig[n-1]) {
		return nil
	}

	return &MACDResult{
		Line:      line[n-1],
		Signal:    sig[n-1],
		Histogram: hist[n-1],
	}
}

// RSI calculates the latest Relative Strength Index value (0-100), or nil
// when there is not enough history.
func RSI(closes []float64, length int) *float64 {
	if len(closes) < length+1 {
		return nil
	}

	rsi := talib.Rsi(closes, length)
	if len(rsi) == 0 {
		return nil
	}
	last := rsi[len(rsi)-1]
	if math.IsNaN(last) {
		return nil
	}
	return &last
}

// RSISeries calculates the full RSI series. Entries before the window has
// filled are left at zero.
func RSISeries(closes []float64, length int) []float64 {
	if len(closes) < length+1 {
		return nil
	}
	return talib.Rsi(closes, length)
}

// RelativeVolume returns today's volume divided by the trailing N-day
// average volume (today excluded from the average). Returns 0 when there
// is not enough history or the average is 0.
func RelativeVolume(volumes []int64, window int) float64 {
	if len(volumes) < window+1 {
		return 0
	}

	var sum float64
	for _, v := range volumes[len(volumes)-window-1 : len(volumes)-1] {
		sum += float64(v)
	}
	avg := sum / float64(window)
	if avg == 0 {
		return 0
	}

	return float64(volumes[len(volumes)-1]) / avg
}
