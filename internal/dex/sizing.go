package dex

import (
	"github.com/darkhorse-quant/sentinel-agent/internal/domain"
)

// TierFilters returns the per-tier scan constraints from the spec.md 4.3
// table, parameterized by the live config so the tunables stay overridable.
func TierFilters(cfg domain.Config) []tierSpec {
	return []tierSpec{
		{domain.TierMicrospray, 0.5, 2, 10_000, false, 0, 10},
		{domain.TierBreakout, 2, 6, 15_000, true, 0, 5},
		{domain.TierLottery, 1, 6, 15_000, false, 0, 5},
		{domain.TierEarly, 6, 72, 30_000, false, 40, cfg.MaxPositionsEarlyEstablished},
		{domain.TierEstablished, 72, 336, 50_000, false, 0, cfg.MaxPositionsEarlyEstablished},
	}
}

type tierSpec struct {
	Tier            domain.Tier
	MinAgeHours     float64
	MaxAgeHours     float64
	MinLiquidityUSD float64
	RequirePump5m   bool
	MinLegitimacy   float64
	MaxConcurrent   int
}

// PositionSizeSOL computes the base entry size in SOL for a candidate,
// before the portfolio-concentration cap (spec.md 4.3 sizing table).
func PositionSizeSOL(tier domain.Tier, cfg domain.Config, balanceSOL float64) float64 {
	switch tier {
	case domain.TierMicrospray:
		return cfg.MicrosprayPositionSOL
	case domain.TierBreakout:
		return cfg.BreakoutPositionSOL
	case domain.TierLottery:
		return cfg.LotteryPositionSOL
	case domain.TierEarly:
		size := balanceSOL * cfg.PctOfBalance * cfg.EarlyMultiplier
		if size > cfg.MaxPositionSOL {
			size = cfg.MaxPositionSOL
		}
		return size
	case domain.TierEstablished:
		size := balanceSOL * cfg.PctOfBalance
		if size > cfg.MaxPositionSOL {
			size = cfg.MaxPositionSOL
		}
		return size
	default:
		return 0
	}
}

// ConcentrationResult is the outcome of applying the portfolio-concentration
// cap to a candidate position size.
type ConcentrationResult struct {
	SizeSOL float64
	Reduced bool
	Skipped bool // below MinViableSOL after reduction
}

// ApplyConcentrationCap clamps a candidate SOL size to MaxSinglePositionPct
// of total portfolio value (balance + mark-to-market of open positions),
// per spec.md 4.3. solUSD converts the SOL amount to the same USD basis as
// the portfolio value.
func ApplyConcentrationCap(sizeSOL float64, cfg domain.Config, totalPortfolioValueUSD, solUSD float64) ConcentrationResult {
	if solUSD <= 0 {
		solUSD = cfg.SolUSDFallback
	}
	sizeUSD := sizeSOL * solUSD
	maxUSD := totalPortfolioValueUSD * (cfg.MaxSinglePositionPct / 100)

	res := ConcentrationResult{SizeSOL: sizeSOL}
	if maxUSD > 0 && sizeUSD > maxUSD {
		res.SizeSOL = maxUSD / solUSD
		res.Reduced = true
	}
	if res.SizeSOL < cfg.MinViableSOL {
		res.Skipped = true
	}
	return res
}

// TotalPortfolioValueUSD is balance-SOL plus mark-to-market of every open
// position, expressed in USD via solUSD.
func TotalPortfolioValueUSD(balanceSOL float64, positions map[string]*domain.DexPosition, currentPrices map[string]float64, solUSD float64) float64 {
	total := balanceSOL * solUSD
	for addr, pos := range positions {
		price, ok := currentPrices[addr]
		if !ok {
			price = pos.EntryPrice
		}
		total += pos.MarkToMarket(price)
	}
	return total
}
