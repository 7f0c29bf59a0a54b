package equity

import (
	"context"
	"sort"
	"time"

	"github.com/darkhorse-quant/sentinel-agent/internal/domain"
	"github.com/darkhorse-quant/sentinel-agent/internal/ports"
)

// premarketCandidateLimit caps how many overnight signals get a premarket
// analyst call — the same top-5 cadence the regular research pass uses
// (spec.md 4.1 step 6).
const premarketCandidateLimit = 5

// ResearchTopSignals runs the analyst against the top-N freshest signals by
// sentiment magnitude regardless of asset class, independent of whether
// any of them go on to be bought — spec.md 4.1 step 5 runs every 120s,
// decoupled from the analyst_interval_ms gate that governs step 9's
// buy-triggering run.
func (e *Engine) ResearchTopSignals(ctx context.Context, state *domain.AgentState, now time.Time, limit int) {
	cfg := state.Config

	candidates := make([]domain.Signal, 0, len(state.SignalCache))
	for _, sig := range state.SignalCache {
		if sig.AbsSentiment() < cfg.MinSentimentScore {
			continue
		}
		candidates = append(candidates, sig)
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].AbsSentiment() > candidates[j].AbsSentiment()
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	seen := make(map[string]bool, len(candidates))
	for _, sig := range candidates {
		if seen[sig.Symbol] {
			continue
		}
		seen[sig.Symbol] = true

		research, err := RunAnalyst(ctx, e.LLM, state.CostTracker, cfg.ResearchModel, sig.Symbol, analystContext(sig), now)
		if err != nil {
			state.AppendLog("error", "top_signal_research_failed "+sig.Symbol+": "+err.Error())
			continue
		}
		state.SignalResearch[sig.Symbol] = research
	}
}

// GeneratePremarketPlan runs the analyst against the freshest overnight
// signals once per day (spec.md 4.1, 09:25-09:29 window) and caches the
// result on state so ExecutePremarketPlan can act on it at market open
// without re-querying the LLM.
func (e *Engine) GeneratePremarketPlan(ctx context.Context, state *domain.AgentState, now time.Time) {
	cfg := state.Config

	candidates := make([]domain.Signal, 0, len(state.SignalCache))
	for _, sig := range state.SignalCache {
		if sig.IsCrypto || sig.AbsSentiment() < cfg.MinSentimentScore {
			continue
		}
		candidates = append(candidates, sig)
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].AbsSentiment() > candidates[j].AbsSentiment()
	})
	if len(candidates) > premarketCandidateLimit {
		candidates = candidates[:premarketCandidateLimit]
	}

	plan := &domain.PremarketPlan{GeneratedAt: now}
	seen := make(map[string]bool, len(candidates))
	for _, sig := range candidates {
		if seen[sig.Symbol] {
			continue
		}
		seen[sig.Symbol] = true

		research, err := RunAnalyst(ctx, e.LLM, state.CostTracker, cfg.ResearchModel, sig.Symbol, analystContext(sig), now)
		if err != nil {
			state.AppendLog("error", "premarket_analyst_failed "+sig.Symbol+": "+err.Error())
			continue
		}
		plan.Candidates = append(plan.Candidates, domain.PremarketCandidate{
			Symbol:     sig.Symbol,
			Verdict:    research.Verdict,
			Confidence: research.Confidence,
			Reasoning:  research.Reasoning,
		})
	}

	state.PremarketPlan = plan
	state.AppendLog("info", "premarket_plan_generated")
}

// ExecutePremarketPlan submits orders for every cached BUY candidate at
// market open (spec.md 4.1 step 9). It reuses the same sizing and
// invariant guards as a normal entry — the pre-market window only changes
// when the decision was made, not how it is acted on — and is consumed
// exactly once: the plan is cleared after execution so a restart or a
// second 09:30 tick never re-buys the same candidates.
func (e *Engine) ExecutePremarketPlan(ctx context.Context, state *domain.AgentState, account ports.Account, live map[string]ports.Position, now time.Time) {
	plan := state.PremarketPlan
	if plan == nil {
		return
	}
	cfg := state.Config

	for _, cand := range plan.Candidates {
		if cand.Verdict != domain.VerdictBuy {
			continue
		}
		if _, held := live[cand.Symbol]; held {
			continue
		}
		asset, err := e.Broker.GetAsset(ctx, cand.Symbol)
		if err != nil || !asset.Tradable || !exchangeAllowed(cfg.AllowedExchanges, asset.Exchange) {
			continue
		}

		sig := domain.Signal{Symbol: cand.Symbol, Sentiment: cand.Confidence}
		research := domain.ResearchResult{
			Symbol:     cand.Symbol,
			Verdict:    cand.Verdict,
			Confidence: cand.Confidence,
			Reasoning:  cand.Reasoning,
			Timestamp:  now,
		}
		e.executeBuy(ctx, state, &account, sig, cand.Confidence, research, now)
	}

	state.PremarketPlan = nil
}
