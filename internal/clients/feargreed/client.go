package feargreed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// Index is the latest composite market-sentiment reading
type Index struct {
	Score     float64 `json:"score"`
	Rating    string  `json:"rating"`
	Timestamp string  `json:"timestamp"`
}

// Client fetches the composite fear & greed index
type Client struct {
	http    *resty.Client
	baseURL string
	log     zerolog.Logger
}

// NewClient creates a new fear & greed client
func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		http: resty.New().
			SetTimeout(5 * time.Second).
			SetHeader("User-Agent", userAgent),
		baseURL: baseURL,
		log:     log.With().Str("client", "feargreed").Logger(),
	}
}

// Latest fetches the most recent index reading. The endpoint returns all
// data points from a start date, so we ask from a few days back and take
// the latest.
func (c *Client) Latest(ctx context.Context) (*Index, error) {
	start := time.Now().AddDate(0, 0, -5).Format("2006-01-02")

	resp, err := c.http.R().
		SetContext(ctx).
		Get(c.baseURL + "/" + start)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sentiment index: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("sentiment endpoint returned status %d", resp.StatusCode())
	}

	var payload struct {
		FearAndGreed struct {
			Score     float64 `json:"score"`
			Rating    string  `json:"rating"`
			Timestamp string  `json:"timestamp"`
		} `json:"fear_and_greed"`
	}
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse sentiment payload: %w", err)
	}

	return &Index{
		Score:     payload.FearAndGreed.Score,
		Rating:    payload.FearAndGreed.Rating,
		Timestamp: payload.FearAndGreed.Timestamp,
	}, nil
}
