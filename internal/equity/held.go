package equity

import (
	"context"
	"time"

	"github.com/darkhorse-quant/sentinel-agent/internal/domain"
)

// ResearchHeldPositions re-runs the LLM analyst against every open position
// every 300s (spec.md 4.1 step 9), recording the verdict in
// PositionResearch. A SELL verdict here does not close the position —
// RunExits is the only path that submits an order, and neither it nor the
// staleness/PDT checks or the admin routes read PositionResearch.
func (e *Engine) ResearchHeldPositions(ctx context.Context, state *domain.AgentState, now time.Time) {
	cfg := state.Config
	for symbol, entry := range state.PositionEntries {
		research, err := RunAnalyst(ctx, e.LLM, state.CostTracker, cfg.ResearchModel, symbol, analystContext(domain.Signal{
			Symbol:    symbol,
			Sentiment: entry.EntrySentiment,
			Volume:    entry.EntrySocialVolume,
		}), now)
		if err != nil {
			state.AppendLog("error", "position_research_failed "+symbol+": "+err.Error())
			continue
		}
		state.PositionResearch[symbol] = research
	}
}

// CheckBreakingNews polls Twitter confirmation for every held symbol,
// independent of the entry-time confirmation already recorded for a fresh
// buy, subject to the same daily read budget (spec.md 4.4).
func (e *Engine) CheckBreakingNews(ctx context.Context, state *domain.AgentState, now time.Time) {
	cfg := state.Config
	if e.Twitter == nil || !cfg.TwitterEnabled {
		return
	}
	for symbol, entry := range state.PositionEntries {
		if state.TwitterDailyReads >= cfg.TwitterDailyReadBudget {
			return
		}
		confirmation, err := e.Twitter.Confirm(ctx, symbol, entry.EntryReason)
		if err != nil {
			continue
		}
		state.TwitterConfirmations[symbol] = confirmation
		state.TwitterDailyReads++
	}
}
