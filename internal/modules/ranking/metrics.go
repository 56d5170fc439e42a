package ranking

// resolveMetric tries an ordered list of candidate keys and returns the
// first present value. Replaces ad hoc fallback chains with one tagged
// lookup per logical metric.
func resolveMetric(metrics map[string]float64, candidates ...string) (float64, bool) {
	for _, key := range candidates {
		if v, ok := metrics[key]; ok {
			return v, true
		}
	}
	return 0, false
}

// Candidate key lists per logical metric. The provider's statement
// labels vary per company, so equity in particular needs a fallback.
var (
	equityKeys = []string{"Stockholders Equity", "Total Equity Gross Minority Interest"}
)

// metric names as stored in the fundamentals table
const (
	metricNetIncome        = "Net Income"
	metricEbit             = "Ebit"
	metricTotalAssets      = "Total Assets"
	metricCurrentAssets    = "Current Assets"
	metricCurrentLiab      = "Current Liabilities"
	metricRetainedEarnings = "Retained Earnings"
	metricTotalRevenue     = "Total Revenue"
	metricTotalDebt        = "Total Debt"
	metricTotalLiab        = "Total Liabilities Net Minority Interest"
	metricBasicShares      = "Basic Average Shares"
	metricCash             = "Cash And Cash Equivalents"
	metricDilutedEPS       = "Diluted EPS"
)

// factorMetrics are the statement line items the composite ranking reads
var factorMetrics = []string{
	metricNetIncome, "Stockholders Equity", "Total Equity Gross Minority Interest",
	metricEbit, metricTotalAssets, metricCurrentAssets, metricCurrentLiab,
	metricRetainedEarnings, metricTotalRevenue, metricTotalDebt,
	metricTotalLiab, metricBasicShares,
}

// magicFormulaMetrics are the line items the Magic Formula ranking reads
var magicFormulaMetrics = []string{
	metricEbit, metricNetIncome, metricTotalDebt,
	"Total Equity Gross Minority Interest", metricCash,
	metricTotalAssets, metricCurrentLiab, metricBasicShares, metricDilutedEPS,
}
