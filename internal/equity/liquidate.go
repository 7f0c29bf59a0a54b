package equity

import (
	"context"
	"time"

	"github.com/darkhorse-quant/sentinel-agent/internal/domain"
	"github.com/darkhorse-quant/sentinel-agent/internal/ports"
)

// LiquidateAll force-closes every open equity/crypto position regardless of
// the PDT guard, since spec.md 8 requires crisis level 3 to leave zero open
// positions by the end of the tick — a forced liquidation is not a
// discretionary sell the day-trade-count guard was written to police.
func LiquidateAll(ctx context.Context, broker ports.Broker, notifier ports.Notifier, state *domain.AgentState, now time.Time) {
	positions, err := broker.GetPositions(ctx)
	if err != nil {
		state.AppendLog("error", "crisis_liquidation_positions_fetch_failed: "+err.Error())
		return
	}
	for _, p := range positions {
		if err := broker.ClosePosition(ctx, p.Symbol); err != nil {
			state.AppendLog("error", "crisis_liquidation_close_failed "+p.Symbol+": "+err.Error())
			continue
		}
		delete(state.PositionEntries, p.Symbol)
		delete(state.SocialHistory, p.Symbol)
		delete(state.StalenessAnalysis, p.Symbol)
		state.AppendLog("warn", "crisis_liquidation "+p.Symbol)
		if notifier != nil {
			notifier.Notify(ctx, "crisis_exit:"+p.Symbol, "crisis-liquidated "+p.Symbol)
		}
	}
	for symbol := range state.OptionPositions {
		delete(state.OptionPositions, symbol)
		state.AppendLog("warn", "crisis_liquidation_option "+symbol)
	}
}
