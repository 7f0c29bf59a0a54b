package dex

import (
	"time"

	"github.com/darkhorse-quant/sentinel-agent/internal/domain"
)

// UpdateDrawdown recomputes the portfolio peak/drawdown tracking fields from
// the current total value, and flips DexDrawdownPaused once the drawdown
// from the all-time peak reaches MaxDrawdownPct (spec.md 4.3). A new high
// always clears the pause and resets the current episode's drawdown and
// clock, but DexMaxDrawdownPct is an all-time running maximum alongside
// DexMaxConsecutiveLosses and is never reset by a recovery.
func UpdateDrawdown(state *domain.AgentState, totalValueSOL float64, now time.Time) {
	if totalValueSOL > state.DexPeakValue {
		state.DexPeakValue = totalValueSOL
		state.DexDrawdownStartTime = nil
		state.DexDrawdownPaused = false
		state.DexCurrentDrawdownPct = 0
		return
	}
	if state.DexPeakValue <= 0 {
		return
	}
	drawdownPct := (state.DexPeakValue - totalValueSOL) / state.DexPeakValue * 100
	state.DexCurrentDrawdownPct = drawdownPct
	if drawdownPct > state.DexMaxDrawdownPct {
		state.DexMaxDrawdownPct = drawdownPct
	}
	if state.DexDrawdownStartTime == nil && drawdownPct > 0 {
		state.DexDrawdownStartTime = &now
	}
	if state.DexDrawdownStartTime != nil {
		durMs := now.Sub(*state.DexDrawdownStartTime).Milliseconds()
		if durMs > state.DexMaxDrawdownDurationMs {
			state.DexMaxDrawdownDurationMs = durMs
		}
	}
	if drawdownPct >= state.Config.MaxDrawdownPct {
		if !state.DexDrawdownPaused {
			state.AppendLog("warn", "dex_drawdown_halt_triggered")
		}
		state.DexDrawdownPaused = true
	}
}

// RecordTradeOutcome updates the consecutive-loss streak from a closed
// trade's realized P&L, independent of the circuit breaker's own rolling
// window — the streak counter is a separate, unwindowed metric reported to
// callers (spec.md 3).
func RecordTradeOutcome(state *domain.AgentState, pnlSOL float64) {
	if pnlSOL < 0 {
		state.DexCurrentLossStreak++
		if state.DexCurrentLossStreak > state.DexMaxConsecutiveLosses {
			state.DexMaxConsecutiveLosses = state.DexCurrentLossStreak
		}
	} else {
		state.DexCurrentLossStreak = 0
	}
}
