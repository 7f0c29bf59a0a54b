package dex

import (
	"time"

	"github.com/darkhorse-quant/sentinel-agent/internal/domain"
)

// RecordStopLoss appends a stop-loss event to the rolling window and trips
// the breaker once CircuitBreakerLosses have landed within
// CircuitBreakerWindowHours (spec.md 4.3). Grounded on the teacher's
// risk.CircuitBreaker trip condition, adapted from atomics to plain state
// since the actor never runs two ticks concurrently (spec.md 5).
func RecordStopLoss(state *domain.AgentState, symbol string, now time.Time) {
	state.DexRecentStopLosses = append(state.DexRecentStopLosses, domain.RecentStopLoss{Timestamp: now, Symbol: symbol})

	window := time.Duration(state.Config.CircuitBreakerWindowHours * float64(time.Hour))
	count := 0
	for _, e := range state.DexRecentStopLosses {
		if now.Sub(e.Timestamp) <= window {
			count++
		}
	}
	if count >= state.Config.CircuitBreakerLosses {
		until := now.Add(time.Duration(state.Config.CircuitBreakerPauseHours * float64(time.Hour)))
		state.DexCircuitBreakerUntil = &until
		state.AppendLog("warn", "dex_circuit_breaker_tripped")
	}
}

// BreakerActive reports whether the circuit breaker currently blocks new
// entries, applying the two early-clear conditions from spec.md 4.3: a
// recovered open position, or a strong signal that isn't already held, each
// gated on BreakerMinCooldownMinutes having elapsed since the trip.
func BreakerActive(state *domain.AgentState, now time.Time, currentPrices map[string]float64) bool {
	until := state.DexCircuitBreakerUntil
	if until == nil {
		return false
	}
	if now.After(*until) {
		state.DexCircuitBreakerUntil = nil
		return false
	}

	tripped := until.Add(-time.Duration(state.Config.CircuitBreakerPauseHours * float64(time.Hour)))
	minCooldown := time.Duration(state.Config.BreakerMinCooldownMinutes * float64(time.Minute))
	if now.Sub(tripped) < minCooldown {
		return true
	}

	for addr, pos := range state.DexPositions {
		price, ok := currentPrices[addr]
		if !ok {
			continue
		}
		if pos.PLPct(price) > 0 {
			state.DexCircuitBreakerUntil = nil
			state.AppendLog("info", "dex_circuit_breaker_cleared_recovery")
			return false
		}
	}
	for _, sig := range state.DexSignals {
		if sig.MomentumScore >= state.Config.ReentryMinMomentum {
			if _, held := state.DexPositions[sig.TokenAddress]; !held {
				state.DexCircuitBreakerUntil = nil
				state.AppendLog("info", "dex_circuit_breaker_cleared_momentum")
				return false
			}
		}
	}
	return true
}

// PruneStopLossWindow drops recent-stop-loss entries older than the
// circuit-breaker window so the slice doesn't grow unbounded.
func PruneStopLossWindow(state *domain.AgentState, now time.Time) {
	window := time.Duration(state.Config.CircuitBreakerWindowHours * float64(time.Hour))
	kept := state.DexRecentStopLosses[:0]
	for _, e := range state.DexRecentStopLosses {
		if now.Sub(e.Timestamp) <= window {
			kept = append(kept, e)
		}
	}
	state.DexRecentStopLosses = kept
}
