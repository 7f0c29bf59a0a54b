package dex

import (
	"context"
	"time"

	"github.com/darkhorse-quant/sentinel-agent/internal/domain"
	"github.com/darkhorse-quant/sentinel-agent/internal/metrics"
	"github.com/darkhorse-quant/sentinel-agent/internal/ports"
)

// LiquidateAll force-closes every open DEX position at its recorded peak
// price (before sell slippage),
// used by the crisis engine when the level reaches CrisisFull (spec.md 8,
// "crisis level 3 implies zero open positions by end of the tick"). Unlike
// the normal exit ladder this never checks a liquidity gate — a crisis
// liquidation takes whatever slippage the market gives it.
func LiquidateAll(state *domain.AgentState, notifier ports.Notifier, solUSD float64, now time.Time) {
	if solUSD <= 0 {
		solUSD = state.Config.SolUSDFallback
	}
	for addr, pos := range state.DexPositions {
		decision := ExitDecision{Close: true, Reason: domain.ExitCrisisLiquidation, Price: pos.PeakPrice}
		closePositionForced(state, notifier, addr, pos, decision, solUSD, now)
	}
}

// closePositionForced mirrors Engine.closePosition but is a free function so
// the crisis engine can invoke it without holding a dex.Engine (which owns
// no state of its own, but does own the live data-provider collaborators
// that a forced liquidation has no use for).
func closePositionForced(state *domain.AgentState, notifier ports.Notifier, addr string, pos *domain.DexPosition, decision ExitDecision, solUSD float64, now time.Time) {
	model := ParseSlippageModel(state.Config.SlippageModel)
	positionUSD := pos.MarkToMarket(decision.Price)
	execPrice := ApplySellSlippage(decision.Price, model, positionUSD, pos.EntryLiquidity)

	proceedsSOL := pos.TokenAmount*execPrice/solUSD - state.Config.GasFeeSOL
	pnlSOL := proceedsSOL - pos.EntryStakeSOL
	pnlPct := pos.PLPct(execPrice)

	state.DexPaperBalanceSOL += proceedsSOL
	state.DexRealizedPnLSOL += pnlSOL

	state.DexTradeHistory = append(state.DexTradeHistory, domain.DexTradeRecord{
		Symbol:        pos.Symbol,
		TokenAddress:  addr,
		EntryPrice:    pos.EntryPrice,
		ExitPrice:     execPrice,
		EntryStakeSOL: pos.EntryStakeSOL,
		EntryTime:     pos.EntryTime,
		ExitTime:      now,
		PnLPct:        pnlPct,
		PnLSOL:        pnlSOL,
		ExitReason:    decision.Reason,
	})

	RecordTradeOutcome(state, pnlSOL)
	delete(state.DexPositions, addr)

	state.AppendLog("warn", "dex_crisis_liquidation "+pos.Symbol)
	metrics.DexTradesTotal.WithLabelValues(string(decision.Reason)).Inc()
	if notifier != nil {
		notifier.Notify(context.Background(), "dex_exit:"+addr, "crisis-liquidated "+pos.Symbol)
	}
}
