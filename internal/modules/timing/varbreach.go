package timing

import (
	"sort"

	"github.com/quantdesk/quantdesk/pkg/formulas"
)

// fear-gauge thresholds for classifying a breach as systemic
const (
	gaugeAbsoluteLevel = 20.0
	gaugeRelativeRatio = 1.1
	gaugeAverageDays   = 5
)

// ScanVaRBreach flags tickers whose return today fell below their
// historical VaR threshold on capitulation volume. Breaches are
// classified against the market-wide fear gauge: an elevated gauge
// marks a liquidity-driven event, a calm one a company-specific crash.
func (s *Scanner) ScanVaRBreach(tickers []string, params VaRParams) []VaRSignal {
	if params.Lookback <= 0 {
		params.Lookback = 252
	}
	if params.Percentile <= 0 {
		params.Percentile = 0.05
	}
	if params.MinRVol <= 0 {
		params.MinRVol = 2.0
	}

	gauge, gaugeElevated := s.gaugeState()

	var signals []VaRSignal
	for _, ticker := range tickers {
		bars, err := s.bars.GetBars(ticker, "")
		if err != nil || len(bars) < rvolWindow+2 {
			continue
		}

		closes := make([]float64, len(bars))
		volumes := make([]int64, len(bars))
		for i, b := range bars {
			closes[i] = b.Close
			volumes[i] = b.Volume
		}

		returns := formulas.Returns(closes)
		if len(returns) > params.Lookback {
			returns = returns[len(returns)-params.Lookback:]
		}
		if len(returns) < 2 {
			continue
		}

		varLevel := formulas.Quantile(returns, params.Percentile)
		todayReturn := returns[len(returns)-1]
		if todayReturn >= varLevel {
			continue
		}

		rvol := formulas.RelativeVolume(volumes, rvolWindow)
		if rvol < params.MinRVol {
			continue
		}

		signal := SignalIdiosyncratic
		confidence := ConfidenceLow
		if gaugeElevated {
			signal = SignalSystemic
			confidence = ConfidenceHigh
		}

		signals = append(signals, VaRSignal{
			Ticker:     ticker,
			Signal:     signal,
			Confidence: confidence,
			Drop:       todayReturn,
			VaR:        varLevel,
			Price:      closes[len(closes)-1],
			RVol:       rvol,
			GaugeLevel: gauge,
		})
	}

	sort.Slice(signals, func(i, j int) bool {
		return signals[i].Drop < signals[j].Drop
	})
	return signals
}

// gaugeState reads the fear gauge from the bar store and decides whether
// it is elevated: above an absolute level, or materially above its own
// recent average.
func (s *Scanner) gaugeState() (float64, bool) {
	closes, err := s.bars.Closes(s.fearGauge)
	if err != nil || len(closes) == 0 {
		s.log.Warn().Str("ticker", s.fearGauge).Msg("Fear gauge unavailable, treating breaches as idiosyncratic")
		return 0, false
	}

	current := closes[len(closes)-1]
	recent := closes
	if len(recent) > gaugeAverageDays {
		recent = recent[len(recent)-gaugeAverageDays:]
	}
	avg := formulas.Mean(recent)

	elevated := current > gaugeAbsoluteLevel || (avg > 0 && current > avg*gaugeRelativeRatio)
	return current, elevated
}
