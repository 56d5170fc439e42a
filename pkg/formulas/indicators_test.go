package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLastSMA(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5}

	got := LastSMA(closes, 5)
	require.NotNil(t, got)
	assert.InDelta(t, 3.0, *got, 1e-9)

	assert.Nil(t, LastSMA(closes, 6))
	assert.Nil(t, LastSMA(nil, 5))
}

func TestSMA_TooShort(t *testing.T) {
	assert.Nil(t, SMA([]float64{1, 2}, 3))
}

func TestMACD_InsufficientHistory(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100
	}
	assert.Nil(t, MACD(closes, 12, 26, 9))
}

func TestMACD_UptrendIsBullish(t *testing.T) {
	// flat base then a sharp rally: the MACD line should sit above the
	// signal line
	closes := make([]float64, 60)
	for i := 0; i < 40; i++ {
		closes[i] = 100
	}
	for i := 40; i < 60; i++ {
		closes[i] = 100 + float64(i-39)*2
	}

	got := MACD(closes, 12, 26, 9)
	require.NotNil(t, got)
	assert.Greater(t, got.Line, got.Signal)
}

func TestRSI_Bounds(t *testing.T) {
	rising := make([]float64, 30)
	for i := range rising {
		rising[i] = 100 + float64(i)
	}

	got := RSI(rising, 14)
	require.NotNil(t, got)
	assert.Greater(t, *got, 70.0)

	falling := make([]float64, 30)
	for i := range falling {
		falling[i] = 100 - float64(i)
	}
	got = RSI(falling, 14)
	require.NotNil(t, got)
	assert.Less(t, *got, 30.0)
}

func TestRSI_InsufficientHistory(t *testing.T) {
	assert.Nil(t, RSI([]float64{1, 2, 3}, 14))
}

func TestRelativeVolume(t *testing.T) {
	volumes := make([]int64, 21)
	for i := 0; i < 20; i++ {
		volumes[i] = 1_000_000
	}
	volumes[20] = 3_000_000

	assert.InDelta(t, 3.0, RelativeVolume(volumes, 20), 1e-9)
}

func TestRelativeVolume_Insufficient(t *testing.T) {
	assert.Equal(t, 0.0, RelativeVolume([]int64{100, 200}, 20))
	assert.Equal(t, 0.0, RelativeVolume(make([]int64, 25), 20))
}
