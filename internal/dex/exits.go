package dex

import (
	"time"

	"github.com/darkhorse-quant/sentinel-agent/internal/domain"
)

// ExitDecision is the outcome of evaluating one open position's exit rules
// for the current tick.
type ExitDecision struct {
	Close  bool
	Reason domain.ExitReason
	Price  float64 // pre-slippage execution price, if Close
}

// scanResult is the subset of a DexSignal an exit check needs, separated so
// callers don't have to build a full DexSignal for a position that wasn't
// in the latest scan.
type scanResult struct {
	Found         bool
	PriceUSD      float64
	Liquidity     float64
	MomentumScore float64
}

// EvaluateExit applies the exit-rule ladder from spec.md 4.3 to a single
// open position, in the fixed order the spec requires: missing from the
// latest scan, momentum decay, liquidity safety gate (which only delays
// take-profit, never a stop), take profit, trailing stop, fixed stop loss.
// The first matching rule wins.
func EvaluateExit(state *domain.AgentState, pos *domain.DexPosition, scan scanResult, now time.Time) ExitDecision {
	cfg := state.Config

	if !scan.Found {
		pos.MissedScans++
		plPct := pos.PLPct(pos.PeakPrice)
		if pos.MissedScans >= cfg.MissedScansBeforeExit && plPct <= 0 {
			return ExitDecision{Close: true, Reason: domain.ExitLostMomentum, Price: pos.PeakPrice}
		}
		return ExitDecision{}
	}
	pos.MissedScans = 0
	pos.UpdatePeak(scan.PriceUSD)

	plPct := pos.PLPct(scan.PriceUSD)

	if plPct < 0 && scan.MomentumScore < pos.EntryMomentumScore*0.4 {
		return ExitDecision{Close: true, Reason: domain.ExitLostMomentum, Price: scan.PriceUSD}
	}

	positionValueUSD := pos.MarkToMarket(scan.PriceUSD)
	liquidityOK := scan.Liquidity >= 5*positionValueUSD

	if plPct >= cfg.DexTakeProfitPct {
		if liquidityOK {
			return ExitDecision{Close: true, Reason: domain.ExitTakeProfit, Price: scan.PriceUSD}
		}
		// Liquidity too thin to take profit cleanly this tick; hold and
		// re-check next tick. Stop-loss and trailing-stop below are never
		// gated this way.
		state.AppendLog("info", "take_profit_delayed_low_liquidity "+pos.Symbol)
	}

	if cfg.TrailingStopEnabled {
		activation, distance := trailingParams(pos.Tier, cfg)
		if pos.PeakGainPct() >= activation {
			dropFromPeak := (pos.PeakPrice - scan.PriceUSD) / pos.PeakPrice * 100
			if dropFromPeak >= distance {
				return ExitDecision{Close: true, Reason: domain.ExitTrailingStop, Price: scan.PriceUSD}
			}
		}
	}

	if plPct <= -cfg.DexStopLossPct {
		return ExitDecision{Close: true, Reason: domain.ExitStopLoss, Price: scan.PriceUSD}
	}

	return ExitDecision{}
}

// trailingParams returns the activation/distance pair for tier. Lottery,
// microspray, and breakout are all short-horizon speculative tiers that
// share the tighter lottery-trailing band; early/established use the wider
// default band (spec.md 4.3 rule 5).
func trailingParams(tier domain.Tier, cfg domain.Config) (activation, distance float64) {
	switch tier {
	case domain.TierLottery, domain.TierMicrospray, domain.TierBreakout:
		return cfg.LotteryTrailingActivation, cfg.LotteryTrailingDistance
	default:
		return cfg.TrailingStopActivationPct, cfg.TrailingStopDistancePct
	}
}
