package equity

import (
	"math"

	"github.com/darkhorse-quant/sentinel-agent/internal/domain"
)

// BuySizeUSD computes the notional for a new entry per spec.md 4.4:
// size = min(cash * sizePct * confidence * crisisMult, maxPositionValue * crisisMult),
// where sizePct is PositionSizePctOfCash capped at 20%.
func BuySizeUSD(cfg domain.Config, cash, confidence float64, crisisLevel domain.CrisisLevel) float64 {
	sizePct := cfg.PositionSizePctOfCash
	if sizePct > 20 {
		sizePct = 20
	}
	mult := crisisLevel.PositionMultiplier()
	bySizePct := cash * (sizePct / 100) * confidence * mult
	cap := cfg.MaxPositionValue * mult
	if bySizePct > cap {
		return cap
	}
	return bySizePct
}

// EffectiveStopLossPct tightens the stop once a crisis level 1 or higher is
// active, taking whichever of the normal and crisis-tightened floors is
// closer to entry (spec.md 4.6).
func EffectiveStopLossPct(cfg domain.Config, crisisLevel domain.CrisisLevel) float64 {
	if crisisLevel >= domain.CrisisElevated && cfg.CrisisLevel1StopLossPct < cfg.StopLossPct {
		return cfg.CrisisLevel1StopLossPct
	}
	return cfg.StopLossPct
}

// exchangeAllowed reports whether exchange is in the allowlist.
func exchangeAllowed(allowed []string, exchange string) bool {
	for _, a := range allowed {
		if a == exchange {
			return true
		}
	}
	return false
}

// accountInvariantsHold is the last guard before an order is submitted: cash
// must be positive, confidence must be a valid probability, and the notional
// must be a finite, strictly positive amount within the configured ceiling
// (spec.md 8, buy-order invariants).
func accountInvariantsHold(cash, size, confidence, maxPositionValue float64) bool {
	if cash <= 0 || confidence <= 0 || confidence > 1 {
		return false
	}
	if size <= 0 || size > maxPositionValue*1.01 {
		return false
	}
	return !math.IsInf(size, 0) && !math.IsNaN(size)
}
