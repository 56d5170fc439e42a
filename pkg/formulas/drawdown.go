package formulas

// MaxDrawdown calculates the maximum drawdown of a return series.
//
// Drawdown Formula:
//
//	cumulative = Π(1+r), peak = running max of cumulative
//	drawdown = cumulative/peak − 1
//	max drawdown = min over time of drawdown (a negative number, 0 for a
//	series that never falls below its peak)
func MaxDrawdown(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	cumulative := 1.0
	peak := 1.0
	maxDD := 0.0

	for _, r := range returns {
		cumulative *= 1 + r
		if cumulative > peak {
			peak = cumulative
		}
		dd := cumulative/peak - 1
		if dd < maxDD {
			maxDD = dd
		}
	}

	return maxDD
}

// EquityCurve compounds a return series into growth factors: out[i] is the
// value of 1 unit after returns[0..i].
func EquityCurve(returns []float64) []float64 {
	curve := make([]float64, len(returns))
	cum := 1.0
	for i, r := range returns {
		cum *= 1 + r
		curve[i] = cum
	}
	return curve
}
