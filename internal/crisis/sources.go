package crisis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// YahooChartSource implements IndicatorSource over Yahoo Finance's public
// chart endpoint, used for every indicator spec.md 6 sources from Yahoo
// (VIX, BTC-USD, USDT-USD, gold/silver futures, HYG/TLT, DXY, USDJPY, KRE).
// A single generic client covers all of them since the endpoint shape is
// identical across symbols — only the range differs (weekly-change
// indicators need 7 trailing days, spot-only ones need 1).
type YahooChartSource struct {
	http   *resty.Client
	symbol string
	rng    string // "1d" or "5d"/"7d" for weekly-change indicators
}

// NewYahooChartSource returns a source for symbol. rng is the Yahoo
// "range" query parameter ("1d" for a spot read, "5d"/"7d" to also compute
// a trailing weekly change).
func NewYahooChartSource(symbol, rng string) *YahooChartSource {
	return &YahooChartSource{
		http: resty.New().
			SetBaseURL("https://query1.finance.yahoo.com").
			SetTimeout(10 * time.Second).
			SetRetryCount(2).
			SetRetryWaitTime(500 * time.Millisecond),
		symbol: symbol,
		rng:    rng,
	}
}

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
	} `json:"chart"`
}

// Fetch returns the latest close and, when rng spans more than a day, the
// percentage change from the first to the last close in the window. Any
// upstream failure or empty series returns (nil, nil, nil) rather than an
// error — a dead Yahoo feed should drop one indicator, not fail the whole
// crisis check (spec.md 6, "all failures -> null").
func (s *YahooChartSource) Fetch(ctx context.Context) (value *float64, weeklyPct *float64, err error) {
	var out yahooChartResponse
	resp, reqErr := s.http.R().SetContext(ctx).SetResult(&out).
		SetQueryParam("range", s.rng).
		SetQueryParam("interval", "1d").
		Get("/v8/finance/chart/" + s.symbol)
	if reqErr != nil || resp.IsError() || len(out.Chart.Result) == 0 {
		return nil, nil, nil
	}

	closes := make([]float64, 0)
	for _, q := range out.Chart.Result[0].Indicators.Quote {
		for _, c := range q.Close {
			if c != nil {
				closes = append(closes, *c)
			}
		}
	}
	if len(closes) == 0 {
		return nil, nil, nil
	}

	last := closes[len(closes)-1]
	value = &last
	if len(closes) > 1 && closes[0] != 0 {
		pct := (last - closes[0]) / closes[0] * 100
		weeklyPct = &pct
	}
	return value, weeklyPct, nil
}

// HYLQDRatioSource implements IndicatorSource for Sources.HYSpreadProxy: it
// fetches HYG and TLT's trailing weekly returns and reports the spread
// between them (TLT return minus HYG return) as a risk-off deviation —
// credit underperforming duration is the same signal a widening high-yield
// spread would give, without needing a licensed spread feed (spec.md 9).
// The deviation is fed through ProxyToSpreadBps by the engine, not here.
type HYLQDRatioSource struct {
	hyg *YahooChartSource
	tlt *YahooChartSource
}

// NewHYLQDRatioSource returns the proxy source wired to HYG and TLT's
// weekly chart feeds.
func NewHYLQDRatioSource() *HYLQDRatioSource {
	return &HYLQDRatioSource{
		hyg: NewYahooChartSource("HYG", "5d"),
		tlt: NewYahooChartSource("TLT", "5d"),
	}
}

func (s *HYLQDRatioSource) Fetch(ctx context.Context) (value *float64, weeklyPct *float64, err error) {
	_, hygPct, hygErr := s.hyg.Fetch(ctx)
	_, tltPct, tltErr := s.tlt.Fetch(ctx)
	if hygErr != nil || tltErr != nil || hygPct == nil || tltPct == nil {
		return nil, nil, nil
	}
	deviation := *tltPct - *hygPct
	return &deviation, nil, nil
}

// GoldSilverRatioSource implements IndicatorSource for Sources.GoldSilverRatio,
// dividing gold futures by silver futures spot prices — a classic flight-
// to-safety gauge that neither leg's raw feed expresses alone.
type GoldSilverRatioSource struct {
	gold   *YahooChartSource
	silver *YahooChartSource
}

// NewGoldSilverRatioSource wires the gold (GC=F) and silver (SI=F) futures
// chart feeds into a single ratio source.
func NewGoldSilverRatioSource() *GoldSilverRatioSource {
	return &GoldSilverRatioSource{
		gold:   NewYahooChartSource("GC=F", "1d"),
		silver: NewYahooChartSource("SI=F", "1d"),
	}
}

func (s *GoldSilverRatioSource) Fetch(ctx context.Context) (value *float64, weeklyPct *float64, err error) {
	gold, _, goldErr := s.gold.Fetch(ctx)
	silver, _, silverErr := s.silver.Fetch(ctx)
	if goldErr != nil || silverErr != nil || gold == nil || silver == nil || *silver == 0 {
		return nil, nil, nil
	}
	ratio := *gold / *silver
	return &ratio, nil, nil
}

// FREDSource implements IndicatorSource over the St. Louis Fed's FRED API,
// used for the yield curve, TED spread, and Fed balance sheet indicators
// (spec.md 6), all of which need an API key.
type FREDSource struct {
	http   *resty.Client
	series string
}

// NewFREDSource returns a source for the given FRED series ID (e.g.
// "T10Y2Y", "TEDRATE", "WALCL").
func NewFREDSource(apiKey, series string) *FREDSource {
	return &FREDSource{
		http: resty.New().
			SetBaseURL("https://api.stlouisfed.org/fred").
			SetTimeout(10*time.Second).
			SetRetryCount(2).
			SetRetryWaitTime(500*time.Millisecond).
			SetQueryParam("api_key", apiKey).
			SetQueryParam("file_type", "json"),
		series: series,
	}
}

type fredResponse struct {
	Observations []struct {
		Value string `json:"value"`
	} `json:"observations"`
}

// Fetch returns the most recent non-missing observation for the series.
// FRED marks missing days with the literal string "." instead of omitting
// them, so those are skipped rather than parsed.
func (s *FREDSource) Fetch(ctx context.Context) (value *float64, weeklyPct *float64, err error) {
	var out fredResponse
	resp, reqErr := s.http.R().SetContext(ctx).SetResult(&out).
		SetQueryParam("series_id", s.series).
		SetQueryParam("sort_order", "desc").
		SetQueryParam("limit", "8").
		Get("/series/observations")
	if reqErr != nil || resp.IsError() {
		return nil, nil, nil
	}

	var v float64
	found := false
	for _, obs := range out.Observations {
		if obs.Value == "." {
			continue
		}
		if _, scanErr := fmt.Sscanf(obs.Value, "%f", &v); scanErr == nil {
			found = true
			break
		}
	}
	if !found {
		return nil, nil, nil
	}
	return &v, nil, nil
}
