package timing

import (
	"context"
	"sort"

	"github.com/quantdesk/quantdesk/internal/modules/ranking"
	"github.com/quantdesk/quantdesk/pkg/formulas"
)

// rvolWindow is the trailing average window for relative volume
const rvolWindow = 20

// ScanPEAD flags tickers gapping up on elevated volume where price is
// holding near the open. Candidates are returned sorted by gap size.
func (s *Scanner) ScanPEAD(ctx context.Context, tickers []string, params PEADParams) []PEADSignal {
	if params.GapPct <= 0 {
		params.GapPct = 0.02
	}
	if params.MinRVol <= 0 {
		params.MinRVol = 1.5
	}

	var signals []PEADSignal
	for _, ticker := range tickers {
		bars, err := s.bars.GetBars(ticker, "")
		if err != nil || len(bars) < rvolWindow+2 {
			continue
		}

		today := bars[len(bars)-1]
		prior := bars[len(bars)-2]
		if prior.Close == 0 || today.Open == 0 {
			continue
		}

		gap := (today.Open - prior.Close) / prior.Close
		if gap < params.GapPct {
			continue
		}

		volumes := make([]int64, len(bars))
		for i, b := range bars {
			volumes[i] = b.Volume
		}
		rvol := formulas.RelativeVolume(volumes, rvolWindow)
		if rvol < params.MinRVol {
			continue
		}

		// price must hold near the open, a fading gap is not a drift setup
		if today.Close <= today.Open*0.99 {
			continue
		}

		if params.Confirm && s.intraday != nil {
			confirmed, err := s.confirmGapIntraday(ctx, ticker, params.GapPct)
			if err != nil {
				s.log.Warn().Err(err).Str("ticker", ticker).Msg("Intraday gap confirmation failed, keeping daily signal")
			} else if !confirmed {
				continue
			}
		}

		closes := make([]float64, len(bars))
		for i, b := range bars {
			closes[i] = b.Close
		}

		signals = append(signals, PEADSignal{
			Ticker:        ticker,
			Signal:        "PEAD Gap Up",
			GapPct:        gap,
			RVol:          rvol,
			CurrentReturn: today.Close/today.Open - 1,
			Price:         today.Close,
			Trend:         ranking.ClassifyTrend(closes).Trend,
		})
	}

	sort.Slice(signals, func(i, j int) bool {
		return signals[i].GapPct > signals[j].GapPct
	})
	return signals
}

// confirmGapIntraday re-checks the gap from an intraday series that
// includes pre/post-market sessions: last bar of the prior calendar day
// against the first bar of the current one.
func (s *Scanner) confirmGapIntraday(ctx context.Context, ticker string, gapPct float64) (bool, error) {
	prices, err := s.intraday.Intraday(ctx, ticker, "2d", "15m", true)
	if err != nil {
		return false, err
	}
	if len(prices) < 2 {
		return false, nil
	}

	// split into calendar-day sessions
	lastDay := prices[len(prices)-1].Date.Format("2006-01-02")
	splitAt := -1
	for i := len(prices) - 1; i >= 0; i-- {
		if prices[i].Date.Format("2006-01-02") != lastDay {
			splitAt = i
			break
		}
	}
	if splitAt < 0 {
		// single session, nothing to confirm against
		return false, nil
	}

	priorClose := prices[splitAt].Close
	sessionOpen := prices[splitAt+1].Open
	sessionLast := prices[len(prices)-1].Close
	if priorClose == 0 || sessionOpen == 0 {
		return false, nil
	}

	gap := (sessionOpen - priorClose) / priorClose
	return gap >= gapPct && sessionLast > sessionOpen*0.99, nil
}
