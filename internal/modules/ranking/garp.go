package ranking

import (
	"sort"

	"github.com/quantdesk/quantdesk/internal/domain"
)

// RankGARP ranks tickers by Growth At a Reasonable Price: the sum of the
// PEG-ratio rank (ascending, cheaper is better) and the revenue-growth
// rank (descending, faster is better). Tickers missing either field in
// the reference snapshot are excluded.
func (e *Engine) RankGARP(tickers []string) ([]GARPEntry, error) {
	snapshots := e.info.Snapshots(tickers)
	fundamentals := e.facts.LatestFundamentals(tickers, []string{metricNetIncome, "Stockholders Equity"})

	var entries []GARPEntry
	for _, ticker := range tickers {
		bars, err := e.bars.GetBars(ticker, "")
		if err != nil || len(bars) == 0 {
			continue
		}

		snap, ok := snapshots[ticker]
		if !ok || snap.PEGRatio == nil || snap.RevenueGrowth == nil {
			continue
		}

		entry := GARPEntry{
			Ticker: ticker,
			PEG:    *snap.PEGRatio,
			Growth: *snap.RevenueGrowth,
			Close:  bars[len(bars)-1].Close,
		}

		// ROE carried along as a quality check
		metrics := fundamentals[ticker]
		netIncome, hasNI := resolveMetric(metrics, metricNetIncome)
		equity, hasEq := resolveMetric(metrics, equityKeys...)
		if hasNI && hasEq && equity != 0 {
			roe := netIncome / equity
			entry.ROE = &roe
		}

		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		return nil, nil
	}

	pegs := make([]float64, len(entries))
	growths := make([]float64, len(entries))
	for i, en := range entries {
		pegs[i] = en.PEG
		growths[i] = en.Growth
	}
	pegRanks := rankValues(pegs, false)
	growthRanks := rankValues(growths, true)
	for i := range entries {
		entries[i].Score = pegRanks[i] + growthRanks[i]
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score < entries[j].Score
		}
		return entries[i].Ticker < entries[j].Ticker
	})

	today := e.now().Format("2006-01-02")
	prev := e.rankings.PreviousRanking(StrategyGARP, today)

	records := make([]domain.RankingRecord, len(entries))
	for i := range entries {
		rank := i + 1
		entries[i].Rank = rank
		entries[i].RankChange = rankChange(prev, entries[i].Ticker, rank)
		records[i] = domain.RankingRecord{
			Strategy: StrategyGARP,
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
