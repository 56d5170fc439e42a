package ranking

import (
	"sort"

	"github.com/quantdesk/quantdesk/internal/domain"
)

// Magic Formula calculation methods
const (
	MethodStrict = "Strict"
	MethodProxy  = "Proxy"
)

// RankMagicFormula ranks tickers by Greenblatt's Magic Formula: sum of
// the Return-on-Capital rank and the Earnings-Yield rank, lower is
// better.
//
// Strict mode (EBIT-based ROC and EV-based earnings yield) requires
// shares outstanding and the full balance-sheet inputs; otherwise the
// ticker falls back to the ROA + EPS/Price proxy. Tickers where either
// component stays undefined are excluded.
func (e *Engine) RankMagicFormula(tickers []string) ([]MagicFormulaEntry, error) {
	fundamentals := e.facts.LatestFundamentals(tickers, magicFormulaMetrics)

	var entries []MagicFormulaEntry
	for _, ticker := range tickers {
		bars, err := e.bars.GetBars(ticker, "")
		if err != nil || len(bars) == 0 {
			continue
		}
		price := bars[len(bars)-1].Close

		entry, ok := magicFormulaEntry(ticker, fundamentals[ticker], price)
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		return nil, nil
	}

	rocs := make([]float64, len(entries))
	yields := make([]float64, len(entries))
	for i, en := range entries {
		rocs[i] = en.ROC
		yields[i] = en.EarningsYield
	}
	rocRanks := rankValues(rocs, true)
	yieldRanks := rankValues(yields, true)
	for i := range entries {
		entries[i].Score = rocRanks[i] + yieldRanks[i]
	}

	// Ascending: lower combined rank is better
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score < entries[j].Score
		}
		return entries[i].Ticker < entries[j].Ticker
	})

	today := e.now().Format("2006-01-02")
	prev := e.rankings.PreviousRanking(StrategyMagicFormula, today)

	records := make([]domain.RankingRecord, len(entries))
	for i := range entries {
		rank := i + 1
		entries[i].Rank = rank
		entries[i].RankChange = rankChange(prev, entries[i].Ticker, rank)
		records[i] = domain.RankingRecord{
			Strategy: StrategyMagicFormula,
			Date:     today,
			Ticker:   entries[i].Ticker,
			Rank:     rank,
			Score:    entries[i].Score,
		}
	}

	if err := e.rankings.Append(records); err != nil {
		e.log.Error().Err(err).Msg("Failed to persist ranking history")
	}

	return entries, nil
}

func magicFormulaEntry(ticker string, metrics map[string]float64, price float64) (MagicFormulaEntry, bool) {
	entry := MagicFormulaEntry{Ticker: ticker, Close: price, Method: MethodProxy}

	var roc, ey float64
	var hasROC, hasEY bool

	ebit, hasEbit := resolveMetric(metrics, metricEbit)
	shares, hasShares := resolveMetric(metrics, metricBasicShares)
	totalAssets, hasAssets := resolveMetric(metrics, metricTotalAssets)
	currentLiab, hasCL := resolveMetric(metrics, metricCurrentLiab)

	if hasEbit && hasShares && hasAssets && hasCL {
		totalDebt, _ := resolveMetric(metrics, metricTotalDebt)
		cash, _ := resolveMetric(metrics, metricCash)

		marketCap := price * shares
		ev := marketCap + totalDebt - cash
		capitalEmployed := totalAssets - currentLiab

		if ev > 0 && capitalEmployed > 0 {
			ey = ebit / ev
			roc = ebit / capitalEmployed
			hasROC, hasEY = true, true
			entry.Method = MethodStrict
		}
	}

	// Proxy fallback: ROA for capital return, EPS/Price for yield
	if !hasROC {
		if netIncome, ok := resolveMetric(metrics, metricNetIncome); ok && hasAssets && totalAssets != 0 {
			roc = netIncome / totalAssets
			hasROC = true
		}
	}
	if !hasEY {
		if eps, ok := resolveMetric(metrics, metricDilutedEPS); ok && price != 0 {
			ey = eps / price
			hasEY = true
		}
	}

	if !hasROC || !hasEY {
		return entry, false
	}

	entry.ROC = roc
	entry.EarningsYield = ey
	return entry, true
}

// rankValues assigns 1-based average ranks (ties share the mean of their
// positions, matching conventional statistical ranking). descending
// ranks the highest value first.
func rankValues(values []float64, descending bool) []float64 {
	n := len(values)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		if descending {
			return values[idx[a]] > values[idx[b]]
		}
		return values[idx[a]] < values[idx[b]]
	})

	ranks := make([]float64, n)
	for pos := 0; pos < n; {
		end := pos
		for end+1 < n && values[idx[end+1]] == values[idx[pos]] {
			end++
		}
		// Ties share the average of positions pos..end (1-based)
		avg := float64(pos+end)/2 + 1
		for k := pos; k <= end; k++ {
			ranks[idx[k]] = avg
		}
		pos = end + 1
	}
	return ranks
}
