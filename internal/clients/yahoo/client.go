package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	chartURL      = "https://query1.finance.yahoo.com/v8/finance/chart/"
	quoteURL      = "https://query1.finance.yahoo.com/v7/finance/quote"
	timeseriesURL = "https://query1.finance.yahoo.com/ws/fundamentals-timeseries/v1/finance/timeseries/"

	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
)

// statementMetrics maps provider timeseries keys to the metric names the
// fundamentals table stores.
var statementMetrics = map[string]string{
	"quarterlyNetIncome":                           "Net Income",
	"quarterlyStockholdersEquity":                  "Stockholders Equity",
	"quarterlyTotalEquityGrossMinorityInterest":    "Total Equity Gross Minority Interest",
	"quarterlyEBIT":                                "Ebit",
	"quarterlyTotalAssets":                         "Total Assets",
	"quarterlyCurrentAssets":                       "Current Assets",
	"quarterlyCurrentLiabilities":                  "Current Liabilities",
	"quarterlyRetainedEarnings":                    "Retained Earnings",
	"quarterlyTotalRevenue":                        "Total Revenue",
	"quarterlyTotalDebt":                           "Total Debt",
	"quarterlyTotalLiabilitiesNetMinorityInterest": "Total Liabilities Net Minority Interest",
	"quarterlyBasicAverageShares":                  "Basic Average Shares",
	"quarterlyCashAndCashEquivalents":              "Cash And Cash Equivalents",
	"quarterlyDilutedEPS":                          "Diluted EPS",
}

// Client is a Yahoo Finance API client. All calls honor the passed context
// so the sync coordinator can enforce per-task timeouts from outside.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
	log     zerolog.Logger
}

// NewClient creates a new Yahoo Finance client. requestsPerSec bounds the
// request rate shared by all callers.
func NewClient(log zerolog.Logger, requestsPerSec float64) *Client {
	if requestsPerSec <= 0 {
		requestsPerSec = 5
	}

	http := resty.New().
		SetTimeout(30 * time.Second).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json")

	return &Client{
		http:    http,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSec), 1),
		log:     log.With().Str("client", "yahoo").Logger(),
	}
}

// get performs a rate-limited GET and returns the raw body
func (c *Client) get(ctx context.Context, reqURL string, params map[string]string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, classify(err)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(reqURL)
	if err != nil {
		return nil, classify(err)
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("%w: status %d", ErrNetwork, resp.StatusCode())
	}

	return resp.Body(), nil
}

// HistoricalRange fetches daily OHLCV bars over a named range.
// Supported ranges: 1d, 5d, 1mo, 3mo, 6mo, 1y, 2y, 5y, 10y, ytd, max.
func (c *Client) HistoricalRange(ctx context.Context, ticker, rng string) ([]HistoricalPrice, error) {
	return c.chart(ctx, ticker, map[string]string{
		"interval": "1d",
		"range":    rng,
	})
}

// HistoricalSince fetches daily OHLCV bars from a start date to now, used
// for incremental sync of tickers with cached history.
func (c *Client) HistoricalSince(ctx context.Context, ticker string, start time.Time) ([]HistoricalPrice, error) {
	return c.chart(ctx, ticker, map[string]string{
		"interval": "1d",
		"period1":  fmt.Sprintf("%d", start.Unix()),
		"period2":  fmt.Sprintf("%d", time.Now().Unix()),
	})
}

// Intraday fetches intraday bars, optionally including pre/post-market
// sessions for gap confirmation.
func (c *Client) Intraday(ctx context.Context, ticker, rng, interval string, prePost bool) ([]HistoricalPrice, error) {
	params := map[string]string{
		"interval": interval,
		"range":    rng,
	}
	if prePost {
		params["includePrePost"] = "true"
	}
	return c.chart(ctx, ticker, params)
}

func (c *Client) chart(ctx context.Context, ticker string, params map[string]string) ([]HistoricalPrice, error) {
	body, err := c.get(ctx, chartURL+url.PathEscape(ticker), params)
	if err != nil {
		return nil, err
	}

	var result chartResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	if result.Chart.Error != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoData, result.Chart.Error)
	}
	if len(result.Chart.Result) == 0 || len(result.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, ErrNoData
	}

	chartData := result.Chart.Result[0]
	quote := chartData.Indicators.Quote[0]

	var adjClose []float64
	if len(chartData.Indicators.AdjClose) > 0 {
		adjClose = chartData.Indicators.AdjClose[0].AdjClose
	}

	var prices []HistoricalPrice
	for i, ts := range chartData.Timestamp {
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) || i >= len(quote.Close) {
			continue
		}
		// Provider returns zeroed rows for halted/missing sessions
		if quote.Open[i] == 0 && quote.High[i] == 0 && quote.Low[i] == 0 && quote.Close[i] == 0 {
			continue
		}

		adj := quote.Close[i]
		if i < len(adjClose) && adjClose[i] != 0 {
			adj = adjClose[i]
		}

		var volume int64
		if i < len(quote.Volume) {
			volume = quote.Volume[i]
		}

		prices = append(prices, HistoricalPrice{
			Date:     time.Unix(ts, 0).UTC(),
			Open:     quote.Open[i],
			High:     quote.High[i],
			Low:      quote.Low[i],
			Close:    quote.Close[i],
			Volume:   volume,
			AdjClose: adj,
		})
	}

	return prices, nil
}

// QuoteInfo fetches the reference snapshot fields for one ticker
func (c *Client) QuoteInfo(ctx context.Context, ticker string) (*Info, error) {
	body, err := c.get(ctx, quoteURL, map[string]string{
		"symbols": ticker,
		"fields": "symbol,longName,shortName,sector,industry,marketCap," +
			"pegRatio,revenueGrowth,returnOnEquity,beta",
	})
	if err != nil {
		return nil, err
	}

	var result quoteResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	if result.QuoteResponse.Error != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoData, result.QuoteResponse.Error)
	}
	if len(result.QuoteResponse.Result) == 0 {
		return nil, ErrNoData
	}

	fields := result.QuoteResponse.Result[0]
	return &Info{
		Ticker:         ticker,
		LongName:       getString(fields, "longName"),
		ShortName:      getString(fields, "shortName"),
		Sector:         getString(fields, "sector"),
		Industry:       getString(fields, "industry"),
		MarketCap:      getFloat64(fields, "marketCap"),
		PEGRatio:       getFloat64(fields, "pegRatio"),
		RevenueGrowth:  getFloat64(fields, "revenueGrowth"),
		ReturnOnEquity: getFloat64(fields, "returnOnEquity"),
		Beta:           getFloat64(fields, "beta"),
	}, nil
}

// QuarterlyFundamentals fetches quarterly balance-sheet, income-statement
// and cash-flow line items in the long metric/value layout.
func (c *Client) QuarterlyFundamentals(ctx context.Context, ticker string) ([]Statement, error) {
	types := ""
	for key := range statementMetrics {
		if types != "" {
			types += ","
		}
		types += key
	}

	// Five years of quarters is plenty for latest-value lookups
	end := time.Now()
	start := end.AddDate(-5, 0, 0)

	body, err := c.get(ctx, timeseriesURL+url.PathEscape(ticker), map[string]string{
		"type":    types,
		"period1": fmt.Sprintf("%d", start.Unix()),
		"period2": fmt.Sprintf("%d", end.Unix()),
		"merge":   "false",
	})
	if err != nil {
		return nil, err
	}

	var result timeseriesResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	if result.Timeseries.Error != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoData, result.Timeseries.Error)
	}
	if len(result.Timeseries.Result) == 0 {
		return nil, ErrNoData
	}

	var statements []Statement
	for _, series := range result.Timeseries.Result {
		key, metric := seriesMetric(series)
		if metric == "" {
			continue
		}

		items, ok := series[key].([]interface{})
		if !ok {
			continue
		}
		for _, item := range items {
			entry, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			date := getString(entry, "asOfDate")
			value := reportedValue(entry)
			// Missing or unparseable values are dropped, never stored
			// as placeholders
			if date == "" || value == nil {
				continue
			}
			statements = append(statements, Statement{
				ReportDate: date,
				Metric:     metric,
				Value:      *value,
			})
		}
	}

	if len(statements) == 0 {
		return nil, ErrNoData
	}

	return statements, nil
}

// seriesMetric resolves a timeseries result block to its provider key and
// our stored metric name
func seriesMetric(series map[string]interface{}) (string, string) {
	meta, ok := series["meta"].(map[string]interface{})
	if !ok {
		return "", ""
	}
	typeList, ok := meta["type"].([]interface{})
	if !ok || len(typeList) == 0 {
		return "", ""
	}
	key, ok := typeList[0].(string)
	if !ok {
		return "", ""
	}
	return key, statementMetrics[key]
}

func reportedValue(entry map[string]interface{}) *float64 {
	reported, ok := entry["reportedValue"].(map[string]interface{})
	if !ok {
		return nil
	}
	return getFloat64(reported, "raw")
}

// Helpers to safely extract values from provider maps

func getFloat64(m map[string]interface{}, key string) *float64 {
	if val, ok := m[key]; ok && val != nil {
		switch v := val.(type) {
		case float64:
			return &v
		case int:
			f := float64(v)
			return &f
		case int64:
			f := float64(v)
			return &f
		case json.Number:
			if f, err := v.Float64(); err == nil {
				return &f
			}
		}
	}
	return nil
}

func getString(m map[string]interface{}, key string) string {
	if val, ok := m[key]; ok && val != nil {
		if s, ok := val.(string); ok {
			return s
		}
	}
	return ""
}
