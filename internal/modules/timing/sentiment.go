package timing

import (
	"context"
	"fmt"

	"github.com/quantdesk/quantdesk/internal/clients/feargreed"
)

// SentimentFetcher provides the composite market sentiment index.
// Satisfied by the fear & greed client.
type SentimentFetcher interface {
	Latest(ctx context.Context) (*feargreed.Index, error)
}

// ScanSentiment fetches the composite sentiment score and classifies it
// into a contrarian posture: extremes in either direction are the
// actionable states.
func ScanSentiment(ctx context.Context, fetcher SentimentFetcher, params SentimentParams) (*SentimentReading, error) {
	if params.BuyThreshold <= 0 {
		params.BuyThreshold = 25
	}
	if params.SellThreshold <= 0 {
		params.SellThreshold = 75
	}

	index, err := fetcher.Latest(ctx)
	if err != nil {
		return nil, fmt.Errorf("sentiment scan: %w", err)
	}

	return &SentimentReading{
		Score:     index.Score,
		Rating:    index.Rating,
		Signal:    classifySentiment(index.Score, params),
		Action:    sentimentAction(index.Score, params),
		Timestamp: index.Timestamp,
	}, nil
}

func classifySentiment(score float64, params SentimentParams) string {
	switch {
	case score < params.BuyThreshold:
		return SentimentExtremeFear
	case score > params.SellThreshold:
		return SentimentExtremeGreed
	default:
		return SentimentNeutral
	}
}

func sentimentAction(score float64, params SentimentParams) string {
	switch {
	case score < params.BuyThreshold:
		return PostureAggressive
	case score > params.SellThreshold:
		return PostureDefensive
	default:
		return PostureHold
	}
}
