package signals

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/darkhorse-quant/sentinel-agent/internal/ports"
)

// stockTwitsRateLimitPerMinute is StockTwits' published anonymous rate
// limit for the trending endpoint.
const stockTwitsRateLimitPerMinute = 30

// StockTwitsClient implements ports.StockTwitsProvider over StockTwits'
// public trending-symbols feed, grounded on the same resty client shape as
// internal/dexdata's BirdeyeClient, with an outbound token-bucket limiter
// in the same style as the pack's alphavantage adapter.
type StockTwitsClient struct {
	http    *resty.Client
	limiter *rate.Limiter
}

// NewStockTwitsClient returns a client against the public StockTwits API;
// no auth token is required for the trending endpoint.
func NewStockTwitsClient() *StockTwitsClient {
	return &StockTwitsClient{
		http: resty.New().
			SetBaseURL("https://api.stocktwits.com/api/2").
			SetTimeout(10 * time.Second).
			SetRetryCount(2).
			SetRetryWaitTime(500 * time.Millisecond),
		limiter: rate.NewLimiter(rate.Limit(float64(stockTwitsRateLimitPerMinute)/60), 1),
	}
}

type stockTwitsMessage struct {
	Body    string `json:"body"`
	Symbols []struct {
		Symbol string `json:"symbol"`
	} `json:"symbols"`
	Entities struct {
		Sentiment *struct {
			Basic string `json:"basic"`
		} `json:"sentiment"`
	} `json:"entities"`
}

type stockTwitsTrendingResponse struct {
	Messages []stockTwitsMessage `json:"messages"`
}

// Trending fetches the current trending-symbols stream and maps each
// message's bullish/bearish tag to a [-1, 1] raw sentiment score.
func (c *StockTwitsClient) Trending(ctx context.Context) ([]ports.StockTwitsPost, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var out stockTwitsTrendingResponse
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).Get("/streams/trending.json")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("stocktwits trending failed: %s", resp.Status())
	}

	posts := make([]ports.StockTwitsPost, 0, len(out.Messages))
	for _, m := range out.Messages {
		if len(m.Symbols) == 0 {
			continue
		}
		posts = append(posts, ports.StockTwitsPost{
			Symbol:       m.Symbols[0].Symbol,
			Body:         m.Body,
			RawSentiment: stockTwitsSentiment(m),
		})
	}
	return posts, nil
}

func stockTwitsSentiment(m stockTwitsMessage) float64 {
	if m.Entities.Sentiment == nil {
		return 0.2
	}
	switch m.Entities.Sentiment.Basic {
	case "Bullish":
		return 0.7
	case "Bearish":
		return -0.7
	default:
		return 0.2
	}
}

// RedditClient implements ports.RedditProvider over Reddit's unauthenticated
// JSON listing endpoints (reading a subreddit's "hot" listing needs no OAuth
// token, unlike posting).
type RedditClient struct {
	http *resty.Client
}

func NewRedditClient(userAgent string) *RedditClient {
	return &RedditClient{
		http: resty.New().
			SetBaseURL("https://www.reddit.com").
			SetTimeout(10*time.Second).
			SetRetryCount(2).
			SetRetryWaitTime(1*time.Second).
			SetHeader("User-Agent", userAgent),
	}
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title         string `json:"title"`
				Selftext      string `json:"selftext"`
				Subreddit     string `json:"subreddit"`
				Ups           int    `json:"ups"`
				NumComments   int    `json:"num_comments"`
				LinkFlairText string `json:"link_flair_text"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// TopPosts fetches a subreddit's top-of-day listing.
func (c *RedditClient) TopPosts(ctx context.Context, subreddit string) ([]ports.RedditPost, error) {
	var out redditListing
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).
		SetQueryParam("limit", "25").
		SetQueryParam("t", "day").
		Get("/r/" + subreddit + "/top.json")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("reddit top listing failed for %s: %s", subreddit, resp.Status())
	}

	posts := make([]ports.RedditPost, 0, len(out.Data.Children))
	for _, c := range out.Data.Children {
		posts = append(posts, ports.RedditPost{
			Title:     c.Data.Title,
			Body:      c.Data.Selftext,
			Subreddit: c.Data.Subreddit,
			Upvotes:   c.Data.Ups,
			Comments:  c.Data.NumComments,
			Flair:     c.Data.LinkFlairText,
		})
	}
	return posts, nil
}

// CryptoSnapshotClient implements ports.CryptoSnapshotSource over a generic
// ticker-style 24h-movers endpoint (Alpaca's crypto market data also serves
// this, but the signal gatherer wants the full top-movers list rather than
// one symbol at a time).
type CryptoSnapshotClient struct {
	http *resty.Client
}

func NewCryptoSnapshotClient(baseURL string) *CryptoSnapshotClient {
	return &CryptoSnapshotClient{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(10 * time.Second).
			SetRetryCount(2).
			SetRetryWaitTime(500 * time.Millisecond),
	}
}

type cryptoTickerResponse struct {
	Symbol             string `json:"symbol"`
	PriceChangePercent string `json:"priceChangePercent"`
	LastPrice          string `json:"lastPrice"`
	QuoteVolume        string `json:"quoteVolume"`
}

// TopMovers fetches the full 24h ticker set and returns it as CryptoMovers;
// the caller is responsible for filtering to whatever symbols it trades.
func (c *CryptoSnapshotClient) TopMovers(ctx context.Context) ([]ports.CryptoMover, error) {
	var out []cryptoTickerResponse
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).Get("/api/v3/ticker/24hr")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("crypto ticker fetch failed: %s", resp.Status())
	}

	movers := make([]ports.CryptoMover, 0, len(out))
	for _, t := range out {
		movers = append(movers, ports.CryptoMover{
			Symbol:         t.Symbol,
			PriceChangePct: parseFloatOrZero(t.PriceChangePercent),
			Price:          parseFloatOrZero(t.LastPrice),
			Volume24h:      parseFloatOrZero(t.QuoteVolume),
		})
	}
	return movers, nil
}

func parseFloatOrZero(s string) float64 {
	var f float64
	if _, err := fmt.Sscanf(s, "%f", &f); err != nil {
		return 0
	}
	return f
}
