package crisis

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/darkhorse-quant/sentinel-agent/internal/dex"
	"github.com/darkhorse-quant/sentinel-agent/internal/domain"
	"github.com/darkhorse-quant/sentinel-agent/internal/equity"
	"github.com/darkhorse-quant/sentinel-agent/internal/metrics"
	"github.com/darkhorse-quant/sentinel-agent/internal/ports"
)

// Engine runs the crisis check: fan out to every configured indicator
// source concurrently via errgroup, score the results, and act on a level
// transition (spec.md 4.6). Broker and SolPrice are only used by
// LiquidateEverything, which the actor calls on every tick at CrisisFull to
// force-liquidate every open position.
type Engine struct {
	Sources  Sources
	Broker   ports.Broker
	SolPrice ports.SolPriceProvider
	Notifier ports.Notifier
}

// Check refreshes CrisisState.Indicators, rescoring and transitioning the
// level if it moved. It never returns an error for a single source
// failing — a missing indicator is scored as absent, not fatal.
func (e *Engine) Check(ctx context.Context, state *domain.AgentState, now time.Time) {
	ind := state.CrisisState.Indicators
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	fetch := func(src IndicatorSource, set func(v, w *float64)) {
		if src == nil {
			return
		}
		g.Go(func() error {
			v, w, err := src.Fetch(ctx)
			if err != nil {
				return nil // absence, not a tick failure
			}
			mu.Lock()
			set(v, w)
			mu.Unlock()
			return nil
		})
	}

	fetch(e.Sources.VIX, func(v, _ *float64) { ind.VIX = v })
	fetch(e.Sources.HYSpreadProxy, func(v, _ *float64) {
		if v != nil {
			bps := ProxyToSpreadBps(*v)
			ind.HYSpread = &bps
		}
	})
	fetch(e.Sources.YieldCurve2Y10Y, func(v, _ *float64) { ind.YieldCurve2Y10Y = v })
	fetch(e.Sources.TED, func(v, _ *float64) { ind.TED = v })
	fetch(e.Sources.BTC, func(v, w *float64) { ind.BTCPrice = v; ind.BTCWeeklyPct = w })
	fetch(e.Sources.USDTPeg, func(v, _ *float64) { ind.USDTPeg = v })
	fetch(e.Sources.DXY, func(v, _ *float64) { ind.DXY = v })
	fetch(e.Sources.USDJPY, func(v, _ *float64) { ind.USDJPY = v })
	fetch(e.Sources.KRE, func(v, w *float64) { ind.KRE = v; ind.KREWeeklyPct = w })
	fetch(e.Sources.GoldSilverRatio, func(v, _ *float64) { ind.GoldSilverRatio = v })
	fetch(e.Sources.FedBalanceSheet, func(v, w *float64) { ind.FedBalanceSheet = v; ind.FedChangePct = w })

	_ = g.Wait()
	ind.LastUpdated = now
	state.CrisisState.Indicators = ind

	score, triggered := Score(ind, state.Config)
	newLevel := LevelForScore(score)
	state.CrisisState.TriggeredIndicators = triggered

	if newLevel != state.CrisisState.Level {
		e.transition(ctx, state, newLevel, now)
	}
	metrics.CrisisLevel.Set(float64(state.CrisisState.Level))
}

// transition records a level change and announces it. Liquidation at
// CrisisFull is not tied to the transition itself — LiquidateEverything runs
// on every tick at level 3 (spec.md 4.1 step 3), called separately by the
// actor, so a position that survives one liquidation attempt (a failed
// ClosePosition, say) is retried on the next tick rather than only once.
// Dropping to a lower level never re-opens anything the agent closed on the
// way up — that is a fresh decision for the trading engines, not this one's
// job.
func (e *Engine) transition(ctx context.Context, state *domain.AgentState, newLevel domain.CrisisLevel, now time.Time) {
	prev := state.CrisisState.Level
	state.CrisisState.Level = newLevel
	state.CrisisState.LastLevelChange = now
	state.AppendLog("warn", "crisis_level_changed "+prev.String()+" -> "+newLevel.String())

	if e.Notifier != nil {
		e.Notifier.Notify(ctx, "crisis_level", "crisis level now "+newLevel.String())
	}
}

// LiquidateEverything closes every open equity/crypto and DEX position. The
// actor calls this on every tick while the level is CrisisFull, not only on
// the transition tick, so it must be idempotent against positions already
// closed on a prior attempt.
func (e *Engine) LiquidateEverything(ctx context.Context, state *domain.AgentState, now time.Time) {
	state.AppendLog("warn", "crisis_full_forced_liquidation_started")

	if e.Broker != nil {
		equity.LiquidateAll(ctx, e.Broker, e.Notifier, state, now)
	}

	solUSD := state.Config.SolUSDFallback
	if e.SolPrice != nil {
		if v, err := e.SolPrice.SolUSD(ctx); err == nil && v > 0 {
			solUSD = v
		}
	}
	dex.LiquidateAll(state, e.Notifier, solUSD, now)

	state.AppendLog("warn", "crisis_full_forced_liquidation_complete")
}
