package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantdesk/quantdesk/internal/domain"
)

func TestSMACross_SignalsFollowTheCross(t *testing.T) {
	// rising leg puts the short average above the long one, the falling
	// leg flips it back
	closes := []float64{1, 2, 3, 4, 5, 6, 7, 6, 5, 4, 3, 2, 1}
	bars := priceBars(closes)
	data := map[string][]domain.Bar{"AAA": bars}

	signals := SMACross{}.Run(data, Params{"short_window": 2, "long_window": 4})
	series := signals["AAA"]
	require.NotEmpty(t, series)

	assert.Equal(t, 1.0, series[bars[5].Date])
	_, onFinal := series[bars[len(bars)-1].Date]
	assert.False(t, onFinal)
}

func TestSMACross_InsufficientHistory(t *testing.T) {
	data := map[string][]domain.Bar{"AAA": priceBars([]float64{1, 2, 3})}

	signals := SMACross{}.Run(data, Params{"short_window": 20, "long_window": 200})
	assert.Empty(t, signals["AAA"])
}

func TestRSIMeanReversion_EntersOversoldExitsOverbought(t *testing.T) {
	// steady decline, a flat stretch, then a strong rally
	closes := []float64{100, 95, 90, 85, 80, 75, 70, 65, 60}
	for i := 0; i < 5; i++ {
		closes = append(closes, 60)
	}
	for i := 1; i <= 10; i++ {
		closes = append(closes, 60+float64(i)*8)
	}
	bars := priceBars(closes)
	data := map[string][]domain.Bar{"AAA": bars}

	signals := RSIMeanReversion{}.Run(data, Params{"rsi_period": 3, "buy_threshold": 30, "sell_threshold": 70})
	series := signals["AAA"]
	require.NotEmpty(t, series)

	// holding through the bottom and the flat stretch
	assert.Equal(t, 1.0, series[bars[8].Date])
	assert.Equal(t, 1.0, series[bars[11].Date])
	// flat after the rally pushed the oscillator overbought
	_, onFinal := series[bars[len(bars)-1].Date]
	assert.False(t, onFinal)
}

func TestPEADGapHold_HoldsForFixedWindow(t *testing.T) {
	bars := priceBars(make([]float64, 40))
	for i := range bars {
		bars[i].Open, bars[i].High, bars[i].Low, bars[i].Close = 100, 100, 100, 100
	}
	// gap up on elevated volume at index 25, holding into the close
	bars[25].Open = 103
	bars[25].Close = 104
	bars[25].High = 105
	bars[25].Volume = 3_000_000
	data := map[string][]domain.Bar{"AAA": bars}

	signals := PEADGapHold{}.Run(data, Params{"hold_days": 3})
	series := signals["AAA"]

	// entry day plus three held days
	require.Len(t, series, 4)
	for i := 25; i <= 28; i++ {
		assert.Equal(t, 1.0, series[bars[i].Date], "index %d", i)
	}
	_, after := series[bars[29].Date]
	assert.False(t, after)
}

func TestPEADGapHold_IgnoresFadingGap(t *testing.T) {
	bars := priceBars(make([]float64, 40))
	for i := range bars {
		bars[i].Open, bars[i].Close = 100, 100
	}
	bars[25].Open = 103
	bars[25].Close = 100.5 // sold off back through the open
	bars[25].Volume = 3_000_000
	data := map[string][]domain.Bar{"AAA": bars}

	signals := PEADGapHold{}.Run(data, Params{"hold_days": 3})
	assert.Empty(t, signals["AAA"])
}

func TestVaRBreachHold_EntersOnCapitulation(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100
	}
	for i := 30; i < 60; i++ {
		closes[i] = 90 // -10% crash at index 30, stable after
	}
	bars := priceBars(closes)
	bars[30].Volume = 5_000_000
	data := map[string][]domain.Bar{"AAA": bars}

	signals := VaRBreachHold{}.Run(data, Params{"hold_days": 5})
	series := signals["AAA"]

	// crash day plus the hold window
	require.Len(t, series, 6)
	for i := 30; i <= 35; i++ {
		assert.Equal(t, 1.0, series[bars[i].Date], "index %d", i)
	}
	_, before := series[bars[29].Date]
	assert.False(t, before)
}

func TestRegistry(t *testing.T) {
	reg := Registry()

	for _, name := range []string{"sma_cross", "rsi_reversion", "pead_gap_hold", "var_breach_buy"} {
		require.Contains(t, reg, name)
		assert.NotEmpty(t, reg[name].DefaultParams())
	}
}
