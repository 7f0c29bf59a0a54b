package dex

import (
	"time"

	"github.com/darkhorse-quant/sentinel-agent/internal/domain"
)

// StartCooldown locks a token out of re-entry after a stop-loss or
// trailing-stop exit, per spec.md 4.3. The fallback expiry is the wall-clock
// backstop used when neither the price-recovery nor momentum re-entry path
// ever fires.
func StartCooldown(state *domain.AgentState, tokenAddress string, exitPrice float64, now time.Time) {
	state.DexStopLossCooldowns[tokenAddress] = domain.StopLossCooldown{
		ExitPrice:      exitPrice,
		ExitTime:       now,
		FallbackExpiry: now.Add(time.Duration(state.Config.StopLossCooldownHours * float64(time.Hour))),
	}
}

// Eligible reports whether tokenAddress may be re-entered: not under
// cooldown at all, or one of the three re-entry paths has been satisfied —
// price recovered by ReentryRecoveryPct off the exit price, the scanned
// candidate's momentum is back above ReentryMinMomentum and enough wall
// time has passed, or the fallback expiry has simply elapsed.
func Eligible(state *domain.AgentState, tokenAddress string, currentPrice float64, momentumScore float64, now time.Time) bool {
	cd, ok := state.DexStopLossCooldowns[tokenAddress]
	if !ok {
		return true
	}
	if now.After(cd.FallbackExpiry) {
		delete(state.DexStopLossCooldowns, tokenAddress)
		return true
	}
	if cd.ExitPrice > 0 {
		recoveryPct := (currentPrice - cd.ExitPrice) / cd.ExitPrice * 100
		if recoveryPct >= state.Config.ReentryRecoveryPct {
			delete(state.DexStopLossCooldowns, tokenAddress)
			return true
		}
	}
	minElapsed := 5 * time.Minute
	if momentumScore >= state.Config.ReentryMinMomentum && now.Sub(cd.ExitTime) >= minElapsed {
		delete(state.DexStopLossCooldowns, tokenAddress)
		return true
	}
	return false
}

// PruneCooldowns drops cooldown entries whose fallback expiry has already
// passed, independent of whether anything ever queried Eligible for them.
func PruneCooldowns(state *domain.AgentState, now time.Time) {
	for addr, cd := range state.DexStopLossCooldowns {
		if now.After(cd.FallbackExpiry) {
			delete(state.DexStopLossCooldowns, addr)
		}
	}
}
