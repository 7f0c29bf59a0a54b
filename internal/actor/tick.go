package actor

import (
	"context"
	"time"

	"github.com/darkhorse-quant/sentinel-agent/internal/domain"
	"github.com/darkhorse-quant/sentinel-agent/internal/equity"
)

// researchInterval is the "research up to 5 top signals" cadence from
// spec.md 4.1 step 5 — independent of analyst_interval_ms, which only
// gates step 9's buy-triggering analyst run.
const researchInterval = 120 * time.Second

// premarketWindowStart/End bound the weekday 09:25-09:29 local pre-market
// analysis window (spec.md 4.1 step 6).
const (
	premarketWindowStartHour, premarketWindowStartMin       = 9, 25
	premarketWindowEndHour, premarketWindowEndMin           = 9, 29
	marketOpenExecWindowEndHour, marketOpenExecWindowEndMin = 9, 32
)

// tick runs the full 10-step sequence from spec.md 4.1 against the actor's
// exclusively-owned state. now is threaded through every call so behavior
// is deterministic under test.
func (a *Actor) tick(ctx context.Context, now time.Time) {
	state := a.state

	// Step 1: disabled check.
	if !state.Enabled {
		return
	}

	// Step 2: market clock.
	clock, err := a.Broker.GetClock(ctx)
	if err != nil {
		state.AppendLog("error", "clock_fetch_failed: "+err.Error())
		return
	}

	// Step 3: crisis check, rate-limited, with forced liquidation and early
	// return on every tick at level 3 (spec.md 4.1 step 3, 8 invariant 7) —
	// not just the tick the level transitioned on, so a position that
	// survives one liquidation attempt is retried on the next tick.
	if state.Config.CrisisModeEnabled && a.Crisis != nil {
		interval := time.Duration(state.Config.CrisisCheckIntervalMs) * time.Millisecond
		if now.Sub(state.LastCrisisCheck) >= interval {
			a.Crisis.Check(ctx, state, now)
			state.LastCrisisCheck = now
		}
		if state.CrisisState.Level == domain.CrisisFull {
			a.Crisis.LiquidateEverything(ctx, state, now)
			return
		}
	}

	// Step 4: data gatherers.
	pollInterval := time.Duration(state.Config.DataPollIntervalMs) * time.Millisecond
	if a.Signals != nil && now.Sub(state.LastDataGather) >= pollInterval {
		a.Signals.Gather(ctx, state, now)
	}

	// Step 5: research up to 5 top signals.
	if a.Equity != nil && now.Sub(state.LastResearch) >= researchInterval {
		a.Equity.ResearchTopSignals(ctx, state, now, 5)
		state.LastResearch = now
	}

	// Step 6: pre-market analysis, once per day, cached.
	if a.Equity != nil && inPremarketWindow(now) && state.PremarketPlan == nil {
		a.Equity.GeneratePremarketPlan(ctx, state, now)
	}

	// Step 7: crypto trading, independent of market hours.
	if a.Equity != nil && state.Config.CryptoEnabled {
		account, live, err := a.Equity.Snapshot(ctx, state)
		if err == nil {
			a.Equity.RunExits(ctx, state, account, live, now, equity.AssetCrypto)
			if state.CrisisState.Level < domain.CrisisHighAlert {
				a.Equity.RunEntries(ctx, state, account, live, now, equity.AssetCrypto)
			}
		}
	}

	// Step 8: DEX scan/trade/snapshot.
	if a.Dex != nil && state.Config.DexEnabled {
		if err := a.Dex.Tick(ctx, state, now); err != nil {
			state.AppendLog("error", "dex_tick_failed: "+err.Error())
		}
		state.LastDexScan = now
	}

	// Step 9: market-open equity logic.
	if clock.IsOpen {
		a.runMarketOpenStep(ctx, state, now)
	}

	// Step 10 (persistence + reschedule) is handled by safeTick's deferred
	// save and the fixed 30s ticker in run.
}

func (a *Actor) runMarketOpenStep(ctx context.Context, state *domain.AgentState, now time.Time) {
	if a.Equity == nil {
		return
	}

	account, live, err := a.Equity.Snapshot(ctx, state)
	if err != nil {
		return
	}

	if inMarketOpenExecWindow(now) && state.PremarketPlan != nil {
		a.Equity.ExecutePremarketPlan(ctx, state, account, live, now)
	}

	a.Equity.RunExits(ctx, state, account, live, now, equity.AssetEquity)

	analystInterval := time.Duration(state.Config.AnalystIntervalMs) * time.Millisecond
	if now.Sub(state.LastAnalyst) >= analystInterval && state.CrisisState.Level < domain.CrisisHighAlert {
		a.Equity.RunEntries(ctx, state, account, live, now, equity.AssetEquity)
		state.LastAnalyst = now
	}

	if now.Sub(state.LastHeldResearch) >= 300*time.Second {
		a.Equity.ResearchHeldPositions(ctx, state, now)
		state.LastHeldResearch = now
	}

	if state.Config.OptionsEnabled && a.Options != nil {
		a.Options.EvaluateExits(ctx, state, now)
	}

	if state.Config.TwitterEnabled {
		a.Equity.CheckBreakingNews(ctx, state, now)
	}
}

func inPremarketWindow(now time.Time) bool {
	if now.Weekday() == time.Saturday || now.Weekday() == time.Sunday {
		return false
	}
	start := timeOfDayMinutes(premarketWindowStartHour, premarketWindowStartMin)
	end := timeOfDayMinutes(premarketWindowEndHour, premarketWindowEndMin)
	m := now.Hour()*60 + now.Minute()
	return m >= start && m <= end
}

func inMarketOpenExecWindow(now time.Time) bool {
	start := timeOfDayMinutes(9, 30)
	end := timeOfDayMinutes(marketOpenExecWindowEndHour, marketOpenExecWindowEndMin)
	m := now.Hour()*60 + now.Minute()
	return m >= start && m <= end
}

func timeOfDayMinutes(hour, minute int) int {
	return hour*60 + minute
}
