package sync

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/quantdesk/quantdesk/internal/clients/yahoo"
	"github.com/quantdesk/quantdesk/internal/database/repositories"
	"github.com/quantdesk/quantdesk/internal/domain"
)

const dateLayout = "2006-01-02"

// PriceFetcher is the slice of the market-data client the price pipeline
// needs. Narrow interface so tests can substitute a fake.
type PriceFetcher interface {
	HistoricalRange(ctx context.Context, ticker, rng string) ([]yahoo.HistoricalPrice, error)
	HistoricalSince(ctx context.Context, ticker string, start time.Time) ([]yahoo.HistoricalPrice, error)
}

// FundamentalsFetcher is the slice of the client the fundamentals
// pipeline needs
type FundamentalsFetcher interface {
	QuarterlyFundamentals(ctx context.Context, ticker string) ([]yahoo.Statement, error)
	QuoteInfo(ctx context.Context, ticker string) (*yahoo.Info, error)
}

// Config holds sync coordinator tunables
type Config struct {
	PriceWorkers int           // bounded pool width for price sync
	FundWorkers  int           // bounded pool width for fundamentals sync
	TaskTimeout  time.Duration // per-task deadline
	FullHistory  string        // range fetched for tickers with no cache
}

// Service brings the store's bar data up to "yesterday, inclusive" with
// minimal re-fetching, bounded concurrency and partial-failure isolation.
type Service struct {
	bars    *repositories.BarRepository
	facts   *repositories.FundamentalRepository
	info    *repositories.StockInfoRepository
	syncLog *repositories.SyncLogRepository
	prices  PriceFetcher
	funds   FundamentalsFetcher
	cfg     Config
	log     zerolog.Logger

	// now is swappable in tests
	now func() time.Time
}

// NewService creates a new sync coordinator
func NewService(
	bars *repositories.BarRepository,
	facts *repositories.FundamentalRepository,
	info *repositories.StockInfoRepository,
	syncLog *repositories.SyncLogRepository,
	prices PriceFetcher,
	funds FundamentalsFetcher,
	cfg Config,
	log zerolog.Logger,
) *Service {
	if cfg.PriceWorkers < 1 {
		cfg.PriceWorkers = 10
	}
	if cfg.FundWorkers < 1 {
		cfg.FundWorkers = 5
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = 5 * time.Second
	}
	if cfg.FullHistory == "" {
		cfg.FullHistory = "2y"
	}

	return &Service{
		bars:    bars,
		facts:   facts,
		info:    info,
		syncLog: syncLog,
		prices:  prices,
		funds:   funds,
		cfg:     cfg,
		log:     log.With().Str("component", "sync").Logger(),
		now:     time.Now,
	}
}

// SyncPrices brings the bar cache for a ticker set up to yesterday,
// inclusive. The in-progress trading session is never fetched: capping at
// yesterday trades intraday freshness for determinism and lower API load.
func (s *Service) SyncPrices(ctx context.Context, tickers []string) Summary {
	summary := Summary{RunID: uuid.NewString(), Total: len(tickers)}
	if len(tickers) == 0 {
		return summary
	}

	yesterday := s.now().AddDate(0, 0, -1).Format(dateLayout)
	cached := s.bars.LatestBarDates(tickers)

	// Partition: tickers cached through yesterday are skipped entirely,
	// tickers with some cache get an incremental fetch, the rest get
	// full history.
	var tasks []task
	for _, ticker := range tickers {
		last, ok := cached[ticker]
		switch {
		case ok && last >= yesterday:
			summary.UpToDate++
		case ok:
			lastDate, err := time.Parse(dateLayout, last)
			if err != nil {
				// Unparseable cache date: treat as uncached
				tasks = append(tasks, task{Ticker: ticker})
				continue
			}
			since := lastDate.AddDate(0, 0, 1).Format(dateLayout)
			tasks = append(tasks, task{Ticker: ticker, Since: since})
		default:
			tasks = append(tasks, task{Ticker: ticker})
		}
	}

	s.log.Info().
		Str("run_id", summary.RunID).
		Int("tickers", len(tickers)).
		Int("tasks", len(tasks)).
		Int("up_to_date", summary.UpToDate).
		Msg("Starting price sync")

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.PriceWorkers)

	for _, t := range tasks {
		t := t
		g.Go(func() error {
			ok := s.runPriceTask(gctx, t, yesterday)
			mu.Lock()
			if ok {
				summary.Synced++
			} else {
				summary.Failed++
			}
			mu.Unlock()
			// Task failures never abort the batch
			return nil
		})
	}
	_ = g.Wait()

	s.log.Info().
		Str("run_id", summary.RunID).
		Int("synced", summary.Synced).
		Int("failed", summary.Failed).
		Msg("Price sync complete")

	return summary
}

// runPriceTask fetches one ticker with its own deadline and writes the
// result immediately, so a slow ticker cannot block others from being
// persisted.
func (s *Service) runPriceTask(ctx context.Context, t task, yesterday string) bool {
	taskCtx, cancel := context.WithTimeout(ctx, s.cfg.TaskTimeout)
	defer cancel()

	var prices []yahoo.HistoricalPrice
	var err error
	if t.Since == "" {
		prices, err = s.prices.HistoricalRange(taskCtx, t.Ticker, s.cfg.FullHistory)
	} else {
		since, _ := time.Parse(dateLayout, t.Since)
		prices, err = s.prices.HistoricalSince(taskCtx, t.Ticker, since)
	}

	if err != nil {
		reason := classifyReason(err)
		s.log.Warn().Err(err).
			Str("ticker", t.Ticker).
			Str("reason", reason).
			Msg("Price fetch failed")
		s.syncLog.RecordFailure([]string{t.Ticker}, reason)
		return false
	}

	bars := normalizeBars(t.Ticker, prices, yesterday)
	if len(bars) == 0 {
		// Nothing new is still a successful sync (short weeks, holidays)
		s.syncLog.RecordSuccess([]string{t.Ticker})
		return true
	}

	if err := s.bars.UpsertBars(t.Ticker, bars); err != nil {
		s.log.Error().Err(err).Str("ticker", t.Ticker).Msg("Failed to store bars")
		s.syncLog.RecordFailure([]string{t.Ticker}, reasonStore)
		return false
	}

	s.syncLog.RecordSuccess([]string{t.Ticker})
	s.log.Debug().Str("ticker", t.Ticker).Int("bars", len(bars)).Msg("Stored bars")
	return true
}

// SyncFundamentals fetches, per ticker concurrently, both quarterly
// statement line items and the reference-info snapshot. The two fetches
// are independent: a failed info fetch only skips the snapshot write.
func (s *Service) SyncFundamentals(ctx context.Context, tickers []string) Summary {
	summary := Summary{RunID: uuid.NewString(), Total: len(tickers)}
	if len(tickers) == 0 {
		return summary
	}

	s.log.Info().
		Str("run_id", summary.RunID).
		Int("tickers", len(tickers)).
		Msg("Starting fundamentals sync")

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.FundWorkers)

	for _, ticker := range tickers {
		ticker := ticker
		g.Go(func() error {
			ok := s.runFundamentalsTask(gctx, ticker)
			mu.Lock()
			if ok {
				summary.Synced++
			} else {
				summary.Failed++
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	s.log.Info().
		Str("run_id", summary.RunID).
		Int("synced", summary.Synced).
		Int("failed", summary.Failed).
		Msg("Fundamentals sync complete")

	return summary
}

func (s *Service) runFundamentalsTask(ctx context.Context, ticker string) bool {
	taskCtx, cancel := context.WithTimeout(ctx, s.cfg.TaskTimeout)
	defer cancel()

	failReason := ""
	statements, stErr := s.funds.QuarterlyFundamentals(taskCtx, ticker)
	if stErr != nil {
		s.log.Warn().Err(stErr).Str("ticker", ticker).Msg("Fundamentals fetch failed")
		failReason = classifyReason(stErr)
	} else {
		facts := make([]domain.FundamentalFact, 0, len(statements))
		for _, st := range statements {
			facts = append(facts, domain.FundamentalFact{
				Ticker:     ticker,
				ReportDate: st.ReportDate,
				Metric:     st.Metric,
				Value:      st.Value,
			})
		}
		if err := s.facts.UpsertFacts(facts); err != nil {
			s.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to store fundamentals")
			failReason = reasonStore
		}
	}

	// Info snapshot is attempted regardless of the statement outcome
	infoCtx, cancelInfo := context.WithTimeout(ctx, s.cfg.TaskTimeout)
	defer cancelInfo()

	info, err := s.funds.QuoteInfo(infoCtx, ticker)
	if err != nil || info == nil {
		if err != nil {
			s.log.Warn().Err(err).Str("ticker", ticker).Msg("Info fetch failed, skipping snapshot")
		}
	} else {
		name := info.LongName
		if name == "" {
			name = info.ShortName
		}
		snapshot := domain.StockInfo{
			Ticker:         ticker,
			CompanyName:    name,
			Sector:         info.Sector,
			Industry:       info.Industry,
			MarketCap:      info.MarketCap,
			PEGRatio:       info.PEGRatio,
			RevenueGrowth:  info.RevenueGrowth,
			ReturnOnEquity: info.ReturnOnEquity,
			Beta:           info.Beta,
			LastUpdated:    s.now().Format("2006-01-02 15:04:05"),
		}
		if err := s.info.Upsert(snapshot); err != nil {
			s.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to store snapshot")
		}
	}

	if failReason != "" {
		s.syncLog.RecordFailure([]string{ticker}, failReason)
		return false
	}
	s.syncLog.RecordSuccess([]string{ticker})
	return true
}

// normalizeBars converts provider rows into store bars, dropping rows
// with no usable fields and anything from the in-progress session.
func normalizeBars(ticker string, prices []yahoo.HistoricalPrice, maxDate string) []domain.Bar {
	bars := make([]domain.Bar, 0, len(prices))
	for _, p := range prices {
		if p.Close == 0 {
			continue
		}
		date := p.Date.Format(dateLayout)
		// Only completed trading days are persisted
		if date > maxDate {
			continue
		}
		bars = append(bars, domain.Bar{
			Ticker: ticker,
			Date:   date,
			Open:   p.Open,
			High:   p.High,
			Low:    p.Low,
			Close:  p.Close,
			Volume: p.Volume,
		})
	}
	return bars
}

func classifyReason(err error) string {
	switch {
	case err == nil:
		return reasonNetwork
	case errors.Is(err, yahoo.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return reasonTimeout
	case errors.Is(err, yahoo.ErrParse):
		return reasonParse
	case errors.Is(err, yahoo.ErrNoData):
		return reasonNoData
	default:
		return reasonNetwork
	}
}
