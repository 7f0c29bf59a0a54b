// Package twitter implements equity.TwitterConfirmer over the X API v2
// recent-search endpoint, used to confirm or contradict a thesis with
// breaking-news chatter (spec.md 4.4).
package twitter

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/darkhorse-quant/sentinel-agent/internal/domain"
)

// callsPerMinute throttles outbound calls well under the API's own quota —
// the daily cap is enforced by state.TwitterDailyReads in the equity
// engine; this limiter only smooths bursts within that budget.
const callsPerMinute = 15

type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
}

func New(bearerToken string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL("https://api.twitter.com/2").
			SetTimeout(10 * time.Second).
			SetRetryCount(2).
			SetRetryWaitTime(1 * time.Second).
			SetAuthToken(bearerToken),
		limiter: rate.NewLimiter(rate.Limit(float64(callsPerMinute)/60), 1),
	}
}

type tweet struct {
	Text string `json:"text"`
}

type searchResponse struct {
	Data []tweet `json:"data"`
	Meta struct {
		ResultCount int `json:"result_count"`
	} `json:"meta"`
}

// Confirm searches recent tweets mentioning symbol and reports whether the
// volume of matching chatter supports or contradicts thesis. The decision
// is intentionally coarse — "more than a handful of recent mentions" reads
// as confirmation, "none" reads as contradiction — since the agent only
// ever uses this as a confidence multiplier, not a standalone signal.
func (c *Client) Confirm(ctx context.Context, symbol, thesis string) (domain.TwitterConfirmation, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.TwitterConfirmation{}, err
	}

	var out searchResponse
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).
		SetQueryParam("query", "$"+symbol+" -is:retweet lang:en").
		SetQueryParam("max_results", "25").
		Get("/tweets/search/recent")
	if err != nil {
		return domain.TwitterConfirmation{}, err
	}
	if resp.IsError() {
		return domain.TwitterConfirmation{}, fmt.Errorf("twitter search failed: %s", resp.Status())
	}

	confirmation := domain.TwitterConfirmation{
		Symbol:    symbol,
		Timestamp: time.Now(),
	}
	switch {
	case out.Meta.ResultCount >= 5:
		confirmation.Confirmed = true
	case out.Meta.ResultCount == 0:
		confirmation.Contradicted = true
	}
	return confirmation, nil
}
