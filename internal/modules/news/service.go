// Package news fetches market headlines from RSS feeds and scores them
// with a small finance lexicon.
package news

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Source is one configured RSS feed
type Source struct {
	Name string
	URL  string
}

// DefaultSources lists the market news feeds polled by default
var DefaultSources = []Source{
	{Name: "Yahoo Finance", URL: "https://finance.yahoo.com/news/rssindex"},
	{Name: "CNBC Markets", URL: "https://www.cnbc.com/id/100003114/device/rss/rss.html"},
	{Name: "MarketWatch", URL: "https://feeds.content.dowjones.io/public/rss/mw_topstories"},
}

// Article is one scored headline
type Article struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	Summary     string    `json:"summary"`
	PublishedAt time.Time `json:"published_at"`
	Sentiment   float64   `json:"sentiment"`
}

// Service fetches and scores headlines
type Service struct {
	sources []Source
	parser  *gofeed.Parser
	limiter *rate.Limiter
	log     zerolog.Logger
}

// NewService creates a news service over the given feeds. An empty list
// falls back to the defaults.
func NewService(sources []Source, log zerolog.Logger) *Service {
	if len(sources) == 0 {
		sources = DefaultSources
	}
	return &Service{
		sources: sources,
		parser:  gofeed.NewParser(),
		limiter: rate.NewLimiter(2, 1),
		log:     log.With().Str("module", "news").Logger(),
	}
}

// MarketNews fetches recent headlines from every configured feed, newest
// first. Failed feeds are skipped, not fatal.
func (s *Service) MarketNews(ctx context.Context, limit int) ([]Article, error) {
	var articles []Article
	for _, src := range s.sources {
		items, err := s.fetchFeed(ctx, src)
		if err != nil {
			s.log.Warn().Err(err).Str("source", src.Name).Msg("Feed fetch failed, skipping")
			continue
		}
		articles = append(articles, items...)
	}
	if len(articles) == 0 {
		return nil, fmt.Errorf("no news feed could be fetched")
	}

	sort.Slice(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})
	if limit > 0 && len(articles) > limit {
		articles = articles[:limit]
	}
	return articles, nil
}

// TickerNews filters market headlines to those mentioning a ticker or a
// company name fragment.
func (s *Service) TickerNews(ctx context.Context, ticker, name string, limit int) ([]Article, error) {
	all, err := s.MarketNews(ctx, 0)
	if err != nil {
		return nil, err
	}

	keywords := []string{strings.ToLower(ticker)}
	if name != "" {
		keywords = append(keywords, strings.ToLower(name))
	}

	var filtered []Article
	for _, a := range all {
		content := strings.ToLower(a.Title + " " + a.Summary)
		for _, kw := range keywords {
			if kw != "" && strings.Contains(content, kw) {
				filtered = append(filtered, a)
				break
			}
		}
	}
	if limit > 0 && len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered, nil
}

func (s *Service) fetchFeed(ctx context.Context, src Source) ([]Article, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	feed, err := s.parser.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed %s: %w", src.Name, err)
	}

	articles := make([]Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		a := Article{
			Title:   item.Title,
			URL:     item.Link,
			Source:  src.Name,
			Summary: stripHTML(item.Description),
		}
		if item.PublishedParsed != nil {
			a.PublishedAt = *item.PublishedParsed
		}
		a.Sentiment = ScoreText(a.Title + " " + a.Summary)
		articles = append(articles, a)
	}
	return articles, nil
}

// stripHTML flattens feed descriptions that carry markup
func stripHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}
