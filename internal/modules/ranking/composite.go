package ranking

import (
	"sort"

	"github.com/quantdesk/quantdesk/internal/domain"
	"github.com/quantdesk/quantdesk/pkg/formulas"
)

// RankComposite ranks a ticker universe by a weighted sum of standardized
// factors, overlays a technical trend signal on the top entries, tracks
// rank changes against the previous run, and persists the new ranking.
// Pass nil weights for the defaults.
func (e *Engine) RankComposite(tickers []string, weights map[string]float64) ([]RankedStock, error) {
	if weights == nil {
		weights = DefaultWeights
	}

	factors := e.CalculateFactors(tickers)
	if len(factors) == 0 {
		return nil, nil
	}

	scores := compositeScores(factors, weights)

	ranked := make([]RankedStock, len(factors))
	for i, fs := range factors {
		ranked[i] = RankedStock{
			Ticker:     fs.Ticker,
			Score:      scores[i],
			Momentum:   fs.Momentum,
			Volatility: fs.Volatility,
			ROE:        fs.ROE,
			ZScore:     fs.ZScore,
			Close:      fs.Close,
		}
	}

	// Descending by score; ticker tie-break keeps re-runs deterministic
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Ticker < ranked[j].Ticker
	})

	today := e.now().Format("2006-01-02")
	prev := e.rankings.PreviousRanking(StrategySmartBeta, today)

	records := make([]domain.RankingRecord, len(ranked))
	for i := range ranked {
		rank := i + 1
		ranked[i].Rank = rank

		// Technical overlay is capped to the top entries for cost control
		if i < e.overlayTopN {
			closes, err := e.bars.Closes(ranked[i].Ticker)
			if err != nil {
				e.log.Warn().Err(err).Str("ticker", ranked[i].Ticker).Msg("Overlay skipped")
				ranked[i].Trend = TrendUnknown
				ranked[i].Action = ActionWait
			} else {
				setup := ClassifyTrend(closes)
				ranked[i].Trend = setup.Trend
				ranked[i].Action = setup.Action
			}
		} else {
			ranked[i].Trend = "N/A"
			ranked[i].Action = "Hold"
		}

		ranked[i].RankChange = rankChange(prev, ranked[i].Ticker, rank)

		records[i] = domain.RankingRecord{
			Strategy: StrategySmartBeta,
			Date:     today,
			Ticker:   ranked[i].Ticker,
			Rank:     rank,
			Score:    ranked[i].Score,
		}
	}

	if err := e.rankings.Append(records); err != nil {
		e.log.Error().Err(err).Msg("Failed to persist ranking history")
	}

	return ranked, nil
}

// compositeScores standardizes each factor across the universe (missing
// values imputed to the cross-sectional mean before standardizing) and
// sums them with the given weights.
func compositeScores(factors []FactorSet, weights map[string]float64) []float64 {
	n := len(factors)
	scores := make([]float64, n)

	columns := map[string][]float64{
		"momentum_12m": make([]float64, n),
		"volatility":   make([]float64, n),
		"roe":          make([]float64, n),
		"z_score":      make([]float64, n),
	}
	present := map[string][]bool{
		"roe":     make([]bool, n),
		"z_score": make([]bool, n),
	}

	for i, fs := range factors {
		columns["momentum_12m"][i] = fs.Momentum
		columns["volatility"][i] = fs.Volatility
		if fs.ROE != nil {
			columns["roe"][i] = *fs.ROE
			present["roe"][i] = true
		}
		if fs.ZScore != nil {
			columns["z_score"][i] = *fs.ZScore
			present["z_score"][i] = true
		}
	}

	for factor, weight := range weights {
		col, ok := columns[factor]
		if !ok {
			continue
		}
		if mask, hasMask := present[factor]; hasMask {
			col = imputeMean(col, mask)
		}
		for i, z := range formulas.Standardize(col) {
			scores[i] += z * weight
		}
	}

	return scores
}

// imputeMean replaces absent entries with the mean of the present ones
func imputeMean(values []float64, mask []bool) []float64 {
	var sum float64
	var count int
	for i, ok := range mask {
		if ok {
			sum += values[i]
			count++
		}
	}
	if count == 0 {
		return make([]float64, len(values))
	}

	mean := sum / float64(count)
	out := make([]float64, len(values))
	for i, ok := range mask {
		if ok {
			out[i] = values[i]
		} else {
			out[i] = mean
		}
	}
	return out
}

// rankChange computes previous minus current rank; nil for newly ranked
// tickers
func rankChange(prev map[string]int, ticker string, current int) *int {
	prevRank, ok := prev[ticker]
	if !ok {
		return nil
	}
	change := prevRank - current
	return &change
}
