package ports

import "context"

// TierFilter is the per-tier scan constraint table from spec.md 4.3.
type TierFilter struct {
	Tier            string
	MinAgeHours     float64
	MaxAgeHours     float64
	MinLiquidityUSD float64
	RequirePump5m   bool
	MinLegitimacy   float64
}

// MomentumCandidate is one token returned by the DEX momentum scanner.
type MomentumCandidate struct {
	TokenAddress    string
	Symbol          string
	Name            string
	URL             string
	PriceUSD        float64
	PriceChange5m   *float64
	PriceChange6h   float64
	PriceChange24h  float64
	Volume24h       float64
	Liquidity       float64
	AgeHours        float64
	AgeDays         float64
	MomentumScore   float64
	LegitimacyScore float64
	Tier            string
	DexID           string
}

// ChartPattern is one detected pattern from the chart analyzer.
type ChartPattern struct {
	Pattern     string
	Signal      string
	Description string
}

// ChartIndicators summarizes the analyzer's technical read.
type ChartIndicators struct {
	Trend         string
	VolumeProfile string
}

// ChartAnalysis is the chart analyzer's verdict for one token, or nil when
// unavailable (spec.md 6).
type ChartAnalysis struct {
	Timeframe      string
	Candles        int
	EntryScore     float64
	Recommendation string
	Indicators     ChartIndicators
	Patterns       []ChartPattern
}

// MomentumProvider finds candidate tokens per the tiered filters.
type MomentumProvider interface {
	FindMomentumTokens(ctx context.Context, filters []TierFilter) ([]MomentumCandidate, error)
}

// ChartAnalyzer scores a token's chart for entry quality. Returns
// (nil, nil) when no chart data is available — absence is not an error.
type ChartAnalyzer interface {
	AnalyzeChart(ctx context.Context, tokenAddress string, ageHours float64) (*ChartAnalysis, error)
}

// SolPriceProvider fetches the live SOL/USD price.
type SolPriceProvider interface {
	SolUSD(ctx context.Context) (float64, error)
}
