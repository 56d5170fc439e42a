package formulas

import "math"

// SharpeRatio calculates the annualized Sharpe ratio of a return series
// assuming a zero risk-free rate.
//
// Sharpe Formula:
//
//	Sharpe = mean(returns) / std(returns) × sqrt(periodsPerYear)
//
// Returns 0 when the standard deviation is 0 (a flat series is neither
// rewarded nor penalized), never NaN.
func SharpeRatio(returns []float64, periodsPerYear int) float64 {
	if len(returns) < 2 {
		return 0
	}

	std := StdDev(returns)
	if std == 0 {
		return 0
	}

	return Mean(returns) / std * math.Sqrt(float64(periodsPerYear))
}

// TotalReturn compounds a return series: Π(1+r) − 1
func TotalReturn(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	cum := 1.0
	for _, r := range returns {
		cum *= 1 + r
	}
	return cum - 1
}
