package yahoo

import "time"

// HistoricalPrice represents a single OHLCV data point
type HistoricalPrice struct {
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   int64     `json:"volume"`
	AdjClose float64   `json:"adj_close"`
}

// Info is a reference snapshot of a ticker's quote fields. Pointer fields
// are absent when the provider omitted them.
type Info struct {
	Ticker         string   `json:"ticker"`
	LongName       string   `json:"long_name"`
	ShortName      string   `json:"short_name"`
	Sector         string   `json:"sector"`
	Industry       string   `json:"industry"`
	MarketCap      *float64 `json:"market_cap,omitempty"`
	PEGRatio       *float64 `json:"peg_ratio,omitempty"`
	RevenueGrowth  *float64 `json:"revenue_growth,omitempty"`
	ReturnOnEquity *float64 `json:"return_on_equity,omitempty"`
	Beta           *float64 `json:"beta,omitempty"`
}

// Statement is one financial-statement line item for one reporting period,
// in the long metric/value layout the fundamentals table stores.
type Statement struct {
	ReportDate string  `json:"report_date"`
	Metric     string  `json:"metric"`
	Value      float64 `json:"value"`
}

// chartResponse is the shape of the v8 chart API payload
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []float64 `json:"open"`
					High   []float64 `json:"high"`
					Low    []float64 `json:"low"`
					Close  []float64 `json:"close"`
					Volume []int64   `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"chart"`
}

// quoteResponse is the shape of the v7 quote API payload
type quoteResponse struct {
	QuoteResponse struct {
		Result []map[string]interface{} `json:"result"`
		Error  interface{}              `json:"error"`
	} `json:"quoteResponse"`
}

// timeseriesResponse is the shape of the fundamentals-timeseries payload
type timeseriesResponse struct {
	Timeseries struct {
		Result []map[string]interface{} `json:"result"`
		Error  interface{}              `json:"error"`
	} `json:"timeseries"`
}
