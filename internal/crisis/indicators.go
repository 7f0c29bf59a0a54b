package crisis

import "context"

// IndicatorSource fetches one macro indicator series. Implementations wrap
// whatever upstream feed backs a given metric (FRED, a market-data vendor,
// an on-chain price feed) behind this single narrow method so the scorer
// never cares where a number came from.
type IndicatorSource interface {
	// Fetch returns the latest value and, where applicable, the trailing
	// weekly percentage change. A nil return for either is tolerated —
	// spec.md 9 requires the monitor to score on whatever is available.
	Fetch(ctx context.Context) (value *float64, weeklyPct *float64, err error)
}

// Sources bundles one IndicatorSource per macro input the monitor scores.
// Any field left nil is simply skipped by Score (spec.md 4.6) — most
// concretely StocksAbove200MA, which has no sourced implementation at all
// per spec.md 9's decision.
type Sources struct {
	VIX             IndicatorSource
	HYSpreadProxy   IndicatorSource // synthetic: see proxy.go
	YieldCurve2Y10Y IndicatorSource
	TED             IndicatorSource
	BTC             IndicatorSource
	USDTPeg         IndicatorSource
	DXY             IndicatorSource
	USDJPY          IndicatorSource
	KRE             IndicatorSource
	GoldSilverRatio IndicatorSource
	FedBalanceSheet IndicatorSource
}
