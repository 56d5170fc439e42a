package universe

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

const constituentsURL = "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies"

// FetchSP500 scrapes the current S&P 500 constituent list. Dots in class
// share symbols are mapped to dashes to match the market-data provider's
// ticker format.
func FetchSP500(ctx context.Context) ([]string, error) {
	resp, err := resty.New().
		SetTimeout(15*time.Second).
		R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(constituentsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch constituent list: %w", err)
	}
	defer resp.RawBody().Close()

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("constituent source returned status %d", resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(resp.RawBody())
	if err != nil {
		return nil, fmt.Errorf("failed to parse constituent HTML: %w", err)
	}

	var tickers []string
	doc.Find("table#constituents tbody tr").Each(func(_ int, row *goquery.Selection) {
		symbol := strings.TrimSpace(row.Find("td").First().Text())
		if symbol == "" {
			return
		}
		tickers = append(tickers, strings.ReplaceAll(symbol, ".", "-"))
	})

	if len(tickers) == 0 {
		return nil, fmt.Errorf("constituent table not found or empty")
	}
	return tickers, nil
}
