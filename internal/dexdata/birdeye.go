// Package dexdata implements the Solana DEX data providers behind
// ports.MomentumProvider, ports.ChartAnalyzer and ports.SolPriceProvider,
// grounded on the teacher's resty-based SDK client (pkg/sdk/http). Upstream
// 429s are retried after a fixed 2s wait.
package dexdata

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mr-tron/base58"

	"github.com/darkhorse-quant/sentinel-agent/internal/ports"
	"github.com/darkhorse-quant/sentinel-agent/pkg/cache"
)

// solPriceCacheTTL matches the 5-min SOL/USD cache named in spec.md 5.
const solPriceCacheTTL = 5 * time.Minute

// BirdeyeClient wraps the Birdeye public API for momentum token discovery,
// OHLCV-derived chart analysis, and the SOL/USD spot price.
type BirdeyeClient struct {
	http       *resty.Client
	priceCache *cache.InMemoryCache[string, float64]
	lastSolUSD float64
}

// New returns a BirdeyeClient authenticated with apiKey.
func New(baseURL, apiKey string) *BirdeyeClient {
	return &BirdeyeClient{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(10*time.Second).
			SetRetryCount(3).
			SetRetryWaitTime(500*time.Millisecond).
			SetRetryMaxWaitTime(5*time.Second).
			SetRetryAfter(func(c *resty.Client, resp *resty.Response) (time.Duration, error) {
				if resp.StatusCode() == 429 {
					return 2 * time.Second, nil
				}
				return 0, nil
			}).
			SetHeader("X-API-KEY", apiKey).
			SetHeader("x-chain", "solana"),
		priceCache: cache.NewInMemoryCache[string, float64](solPriceCacheTTL),
	}
}

type birdeyeToken struct {
	Address           string   `json:"address"`
	Symbol            string   `json:"symbol"`
	Name              string   `json:"name"`
	Price             float64  `json:"price"`
	PriceChange5mPct  *float64 `json:"priceChange5mPercent"`
	PriceChange6hPct  float64  `json:"priceChange6hPercent"`
	PriceChange24hPct float64  `json:"priceChange24hPercent"`
	Volume24hUSD      float64  `json:"v24hUSD"`
	Liquidity         float64  `json:"liquidity"`
	CreatedAtUnix     int64    `json:"createdAt"`
}

type birdeyeTokenListResponse struct {
	Data struct {
		Tokens []birdeyeToken `json:"tokens"`
	} `json:"data"`
}

// FindMomentumTokens implements ports.MomentumProvider, issuing a single
// tokenlist scan and scoring/classifying each result against the tier
// filters.
func (c *BirdeyeClient) FindMomentumTokens(ctx context.Context, filters []ports.TierFilter) ([]ports.MomentumCandidate, error) {
	var out birdeyeTokenListResponse
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).
		SetQueryParam("sort_by", "v24hUSD").
		SetQueryParam("sort_type", "desc").
		SetQueryParam("limit", "50").
		Get("/defi/tokenlist")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("birdeye tokenlist failed: %s", resp.Status())
	}

	now := time.Now()
	candidates := make([]ports.MomentumCandidate, 0, len(out.Data.Tokens))
	for _, t := range out.Data.Tokens {
		if !isValidMintAddress(t.Address) {
			continue
		}
		ageHours := now.Sub(time.Unix(t.CreatedAtUnix, 0)).Hours()
		tier, legitimacy := classify(t, ageHours, filters)
		if tier == "" {
			continue
		}
		candidates = append(candidates, ports.MomentumCandidate{
			TokenAddress:    t.Address,
			Symbol:          t.Symbol,
			Name:            t.Name,
			URL:             "https://birdeye.so/token/" + t.Address,
			PriceUSD:        t.Price,
			PriceChange5m:   t.PriceChange5mPct,
			PriceChange6h:   t.PriceChange6hPct,
			PriceChange24h:  t.PriceChange24hPct,
			Volume24h:       t.Volume24hUSD,
			Liquidity:       t.Liquidity,
			AgeHours:        ageHours,
			AgeDays:         ageHours / 24,
			MomentumScore:   momentumScore(t),
			LegitimacyScore: legitimacy,
			Tier:            tier,
			DexID:           "birdeye",
		})
	}
	return candidates, nil
}

// classify assigns a candidate to the first tier filter it satisfies, in
// the order the caller supplied (internal/dex.TierFilters returns them
// narrowest-first), and estimates a legitimacy score from liquidity depth
// relative to 24h volume.
func classify(t birdeyeToken, ageHours float64, filters []ports.TierFilter) (tier string, legitimacy float64) {
	legitimacy = legitimacyScore(t)
	for _, f := range filters {
		if ageHours < f.MinAgeHours || ageHours > f.MaxAgeHours {
			continue
		}
		if t.Liquidity < f.MinLiquidityUSD {
			continue
		}
		if f.RequirePump5m && (t.PriceChange5mPct == nil || *t.PriceChange5mPct <= 0) {
			continue
		}
		if legitimacy < f.MinLegitimacy {
			continue
		}
		return f.Tier, legitimacy
	}
	return "", legitimacy
}

// isValidMintAddress rejects a tokenlist entry whose address does not
// decode as base58, the wire format for every Solana public key. Birdeye's
// feed is trusted but a malformed address should never reach the order
// path, since the DEX broker would otherwise submit a doomed transaction.
func isValidMintAddress(addr string) bool {
	if len(addr) < 32 || len(addr) > 44 {
		return false
	}
	decoded, err := base58.Decode(addr)
	return err == nil && len(decoded) == 32
}

func legitimacyScore(t birdeyeToken) float64 {
	if t.Volume24hUSD <= 0 {
		return 0
	}
	ratio := t.Liquidity / t.Volume24hUSD
	score := ratio * 50
	if score > 100 {
		return 100
	}
	return score
}

func momentumScore(t birdeyeToken) float64 {
	score := t.PriceChange6hPct*0.5 + t.PriceChange24hPct*0.2
	if t.PriceChange5mPct != nil {
		score += *t.PriceChange5mPct * 3
	}
	if score > 100 {
		return 100
	}
	if score < 0 {
		return 0
	}
	return score
}

type birdeyeOHLCVResponse struct {
	Data struct {
		Items []struct {
			UnixTime int64   `json:"unixTime"`
			Open     float64 `json:"o"`
			High     float64 `json:"h"`
			Low      float64 `json:"l"`
			Close    float64 `json:"c"`
			Volume   float64 `json:"v"`
		} `json:"items"`
	} `json:"data"`
}

// AnalyzeChart implements ports.ChartAnalyzer over Birdeye's OHLCV endpoint,
// classifying trend from the closing-price slope and volume profile from
// the ratio of the second half's volume to the first half's.
func (c *BirdeyeClient) AnalyzeChart(ctx context.Context, tokenAddress string, ageHours float64) (*ports.ChartAnalysis, error) {
	var out birdeyeOHLCVResponse
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).
		SetQueryParam("address", tokenAddress).
		SetQueryParam("type", "5m").
		Get("/defi/ohlcv")
	if err != nil {
		return nil, err
	}
	if resp.IsError() || len(out.Data.Items) < 2 {
		return nil, nil
	}

	items := out.Data.Items
	first, last := items[0], items[len(items)-1]
	trend := "flat"
	if last.Close > first.Close*1.02 {
		trend = "up"
	} else if last.Close < first.Close*0.98 {
		trend = "down"
	}

	half := len(items) / 2
	var firstVol, secondVol float64
	for i, it := range items {
		if i < half {
			firstVol += it.Volume
		} else {
			secondVol += it.Volume
		}
	}
	volumeProfile := "flat"
	if firstVol > 0 && secondVol > firstVol*1.3 {
		volumeProfile = "increasing"
	} else if firstVol > 0 && secondVol < firstVol*0.7 {
		volumeProfile = "decreasing"
	}

	entryScore := 50.0
	if trend == "up" {
		entryScore += 25
	} else if trend == "down" {
		entryScore -= 25
	}
	if volumeProfile == "increasing" {
		entryScore += 15
	} else if volumeProfile == "decreasing" {
		entryScore -= 15
	}
	if entryScore > 100 {
		entryScore = 100
	}
	if entryScore < 0 {
		entryScore = 0
	}

	recommendation := "neutral"
	if entryScore >= 70 {
		recommendation = "favorable"
	} else if entryScore <= 30 {
		recommendation = "unfavorable"
	}

	return &ports.ChartAnalysis{
		Timeframe:      "5m",
		Candles:        len(items),
		EntryScore:     entryScore,
		Recommendation: recommendation,
		Indicators: ports.ChartIndicators{
			Trend:         trend,
			VolumeProfile: volumeProfile,
		},
	}, nil
}

type birdeyePriceResponse struct {
	Data struct {
		Value float64 `json:"value"`
	} `json:"data"`
}

// wrappedSolAddress is the SOL/USD price proxy Birdeye indexes under —
// wrapped SOL's mint address, since SOL itself has no SPL mint.
const wrappedSolAddress = "So11111111111111111111111111111111111111112"

// SolUSD implements ports.SolPriceProvider, caching the result for 5
// minutes (spec.md 5) and falling back to the last good value on fetch
// failure rather than propagating the error.
func (c *BirdeyeClient) SolUSD(ctx context.Context) (float64, error) {
	if v, ok := c.priceCache.Get("sol_usd"); ok {
		return v, nil
	}

	var out birdeyePriceResponse
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).
		SetQueryParam("address", wrappedSolAddress).
		Get("/defi/price")
	if err != nil || resp.IsError() || out.Data.Value <= 0 {
		if c.lastSolUSD > 0 {
			return c.lastSolUSD, nil
		}
		if err == nil {
			err = fmt.Errorf("birdeye price failed: %s", resp.Status())
		}
		return 0, err
	}

	c.lastSolUSD = out.Data.Value
	c.priceCache.Set("sol_usd", out.Data.Value, solPriceCacheTTL)
	return out.Data.Value, nil
}
