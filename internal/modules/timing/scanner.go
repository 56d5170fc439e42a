// Package timing implements stateless market-timing scans over cached
// daily bars: post-earnings gap continuation, VaR-breach reversals and a
// contrarian sentiment read.
package timing

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/quantdesk/quantdesk/internal/clients/yahoo"
	"github.com/quantdesk/quantdesk/internal/database/repositories"
)

// IntradayFetcher provides intraday bars for gap confirmation. Satisfied
// by the market-data client.
type IntradayFetcher interface {
	Intraday(ctx context.Context, ticker, rng, interval string, prePost bool) ([]yahoo.HistoricalPrice, error)
}

// Scanner evaluates timing rules against the local bar store
type Scanner struct {
	bars      *repositories.BarRepository
	intraday  IntradayFetcher
	fearGauge string
	log       zerolog.Logger
}

// NewScanner creates a scanner. intraday may be nil when live gap
// confirmation is not needed. fearGauge is the volatility-index ticker
// used to classify VaR breaches, typically ^VIX.
func NewScanner(bars *repositories.BarRepository, intraday IntradayFetcher, fearGauge string, log zerolog.Logger) *Scanner {
	return &Scanner{
		bars:      bars,
		intraday:  intraday,
		fearGauge: fearGauge,
		log:       log.With().Str("module", "timing").Logger(),
	}
}
