package actor

import (
	"context"

	"github.com/darkhorse-quant/sentinel-agent/internal/domain"
	"github.com/darkhorse-quant/sentinel-agent/pkg/logger"
)

// dexHistoryCap bounds how many trade/snapshot rows AgentState carries in
// memory (and therefore in the JSON state blob); everything older is
// durably flushed to the ledger first, never dropped.
const dexHistoryCap = 200

// flushDexLedger durably stores any DexTradeHistory/DexPortfolioHistory
// rows that would otherwise be trimmed off the in-memory slices this tick,
// then trims. Safe to call with a nil Ledger (a deployment that skips the
// SQLite audit trail simply keeps unbounded in-memory history, which
// Migrate/Save still round-trip correctly).
func (a *Actor) flushDexLedger(ctx context.Context, state *domain.AgentState) {
	if a.Ledger == nil {
		return
	}

	if overflow := len(state.DexTradeHistory) - dexHistoryCap; overflow > 0 {
		if err := a.Ledger.AppendTrades(ctx, state.DexTradeHistory[:overflow]); err != nil {
			logger.Errorf("ledger append trades failed: %v", err)
			return
		}
		state.DexTradeHistory = state.DexTradeHistory[overflow:]
	}

	if overflow := len(state.DexPortfolioHistory) - dexHistoryCap; overflow > 0 {
		if err := a.Ledger.AppendSnapshots(ctx, state.DexPortfolioHistory[:overflow]); err != nil {
			logger.Errorf("ledger append snapshots failed: %v", err)
			return
		}
		state.DexPortfolioHistory = state.DexPortfolioHistory[overflow:]
	}
}
