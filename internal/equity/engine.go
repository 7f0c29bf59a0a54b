package equity

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/darkhorse-quant/sentinel-agent/internal/domain"
	"github.com/darkhorse-quant/sentinel-agent/internal/metrics"
	"github.com/darkhorse-quant/sentinel-agent/internal/ports"
)

// Engine runs one equity/crypto tick: sells before buys, same ordering
// guarantee as the DEX engine (spec.md 5) so a symbol flagged for exit this
// tick is never also re-entered.
type Engine struct {
	Broker   ports.Broker
	LLM      ports.LLMClient
	Twitter  TwitterConfirmer
	Notifier ports.Notifier
}

// Tick runs both exits and entries unconditionally, with no
// analyst-interval gate. The live actor does not call it; it calls RunExits and
// RunEntries separately so entries can be rate-limited by
// analyst_interval_ms while exits still run every tick (spec.md 4.1 step 9).
func (e *Engine) Tick(ctx context.Context, state *domain.AgentState, now time.Time) error {
	account, live, err := e.snapshot(ctx, state)
	if err != nil {
		return nil
	}
	e.RunExits(ctx, state, account, live, now, AssetAny)
	if state.CrisisState.Level >= domain.CrisisHighAlert {
		return nil
	}
	e.RunEntries(ctx, state, account, live, now, AssetAny)
	return nil
}

// AssetFilter narrows RunExits/RunEntries to one asset class, letting the
// actor run crypto trading every tick (spec.md 4.1 step 7) while equity
// trading only runs in step 9's market-open branch.
type AssetFilter int

const (
	AssetAny    AssetFilter = iota // both stocks and crypto
	AssetCrypto                    // crypto positions/signals only
	AssetEquity                    // stock positions/signals only
)

func (f AssetFilter) matches(isCrypto bool) bool {
	switch f {
	case AssetCrypto:
		return isCrypto
	case AssetEquity:
		return !isCrypto
	default:
		return true
	}
}

// snapshot fetches the account and live position map once so a caller can
// run exits and entries against a consistent view.
func (e *Engine) snapshot(ctx context.Context, state *domain.AgentState) (ports.Account, map[string]ports.Position, error) {
	account, err := e.Broker.GetAccount(ctx)
	if err != nil {
		state.AppendLog("error", "equity_account_fetch_failed: "+err.Error())
		return ports.Account{}, nil, err
	}
	brokerPositions, err := e.Broker.GetPositions(ctx)
	if err != nil {
		state.AppendLog("error", "equity_positions_fetch_failed: "+err.Error())
		return ports.Account{}, nil, err
	}
	bySymbol := make(map[string]ports.Position, len(brokerPositions))
	for _, p := range brokerPositions {
		bySymbol[p.Symbol] = p
	}
	return account, bySymbol, nil
}

// Snapshot exposes snapshot to the actor so it can share one account/position
// fetch across RunExits and RunEntries within a single tick.
func (e *Engine) Snapshot(ctx context.Context, state *domain.AgentState) (ports.Account, map[string]ports.Position, error) {
	return e.snapshot(ctx, state)
}

// RunExits applies the hold-time staleness ladder, the crisis-tightened
// stop loss, and the ordinary take-profit/stop-loss bracket to every
// position the agent is tracking, selling anything that trips.
func (e *Engine) RunExits(ctx context.Context, state *domain.AgentState, account ports.Account, live map[string]ports.Position, now time.Time, filter AssetFilter) {
	cfg := state.Config
	for symbol, entry := range state.PositionEntries {
		bp, held := live[symbol]
		if !held {
			// Broker no longer shows this position (closed externally, or
			// the prior sell already filled); drop our book-keeping.
			delete(state.PositionEntries, symbol)
			continue
		}
		if !filter.matches(bp.AssetClass == "crypto") {
			continue
		}
		entry.UpdatePeaks(bp.CurrentPrice, 0)

		plPct := entry.PLPct(bp.CurrentPrice)
		stopPct := EffectiveStopLossPct(cfg, state.CrisisState.Level)

		staleness := EvaluateStaleness(cfg, entry, bp.CurrentPrice, state.SocialHistory[symbol], now)
		state.StalenessAnalysis[symbol] = staleness

		reason := ""
		switch {
		case state.CrisisState.Level == domain.CrisisFull:
			reason = "crisis_liquidation"
		case plPct <= -stopPct:
			reason = "stop_loss"
		case plPct >= cfg.TakeProfitPct:
			reason = "take_profit"
		case staleness.IsStale && plPct < cfg.CrisisLevel2MinProfitToHold:
			reason = "stale_exit"
		}
		if reason == "" {
			continue
		}

		isCrypto := bp.AssetClass == "crypto"
		if blocked, warn := SellBlockedByPDT(account, entry, isCrypto, now); blocked {
			state.AppendLog("warn", "sell_blocked_pdt "+symbol)
			continue
		} else if warn {
			state.AppendLog("warn", "pdt_daytrade_count_at_warning_threshold "+symbol)
		}

		if err := e.Broker.ClosePosition(ctx, symbol); err != nil {
			state.AppendLog("error", "equity_close_failed "+symbol+": "+err.Error())
			continue
		}
		delete(state.PositionEntries, symbol)
		delete(state.SocialHistory, symbol)
		delete(state.StalenessAnalysis, symbol)
		state.AppendLog("info", "equity_exit "+symbol+" ("+reason+")")
		metrics.EquityOrdersTotal.WithLabelValues("sell").Inc()
		if e.Notifier != nil {
			e.Notifier.Notify(ctx, "equity_exit:"+symbol, "closed "+symbol+" ("+reason+")")
		}
	}
}

// RunEntries walks the freshest cached signals in descending sentiment
// magnitude, runs the LLM analyst on whichever aren't already held, applies
// the Twitter confidence adjustment when confirmation is available, and
// submits a market buy for anything that clears MinAnalystConfidence.
func (e *Engine) RunEntries(ctx context.Context, state *domain.AgentState, account ports.Account, live map[string]ports.Position, now time.Time, filter AssetFilter) {
	cfg := state.Config

	candidates := make([]domain.Signal, 0, len(state.SignalCache))
	for _, sig := range state.SignalCache {
		if sig.AbsSentiment() < cfg.MinSentimentScore {
			continue
		}
		if _, held := live[sig.Symbol]; held {
			continue
		}
		if sig.IsCrypto && !cfg.CryptoEnabled {
			continue
		}
		if !sig.IsCrypto && !cfg.StocksEnabled {
			continue
		}
		if !filter.matches(sig.IsCrypto) {
			continue
		}
		candidates = append(candidates, sig)
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].AbsSentiment() > candidates[j].AbsSentiment()
	})

	seen := make(map[string]bool)
	for _, sig := range candidates {
		if seen[sig.Symbol] {
			continue
		}
		seen[sig.Symbol] = true

		asset, err := e.Broker.GetAsset(ctx, sig.Symbol)
		if err != nil || !asset.Tradable {
			continue
		}
		if !sig.IsCrypto && !exchangeAllowed(cfg.AllowedExchanges, asset.Exchange) {
			state.AppendLog("warn", "buy_blocked_disallowed_exchange "+sig.Symbol+" ("+asset.Exchange+")")
			continue
		}

		research, err := RunAnalyst(ctx, e.LLM, state.CostTracker, cfg.ResearchModel, sig.Symbol, analystContext(sig), now)
		if err != nil {
			state.AppendLog("error", "analyst_failed "+sig.Symbol+": "+err.Error())
			continue
		}
		state.SignalResearch[sig.Symbol] = research
		if research.Verdict != domain.VerdictBuy {
			continue
		}

		confidence := research.Confidence
		if cfg.TwitterEnabled && e.Twitter != nil && state.TwitterDailyReads < cfg.TwitterDailyReadBudget {
			confirmation, err := e.Twitter.Confirm(ctx, sig.Symbol, research.Reasoning)
			if err == nil {
				state.TwitterConfirmations[sig.Symbol] = confirmation
				state.TwitterDailyReads++
				confidence = ApplyTwitterAdjustment(cfg, confidence, confirmation)
			}
		}

		e.executeBuy(ctx, state, &account, sig, confidence, research, now)
	}
}

// executeBuy runs the shared sizing/invariant/order-submission path used by
// both a fresh RunEntries candidate and a cached premarket BUY candidate.
// account.Cash is decremented in place so a caller iterating multiple
// symbols sees an up-to-date buying-power figure on the next call.
func (e *Engine) executeBuy(ctx context.Context, state *domain.AgentState, account *ports.Account, sig domain.Signal, confidence float64, research domain.ResearchResult, now time.Time) bool {
	cfg := state.Config
	if confidence < cfg.MinAnalystConfidence {
		return false
	}

	var snapshot ports.Snapshot
	var err error
	if sig.IsCrypto {
		snapshot, err = e.Broker.GetCryptoSnapshot(ctx, sig.Symbol)
	} else {
		snapshot, err = e.Broker.GetSnapshot(ctx, sig.Symbol)
	}
	if err != nil || snapshot.Price <= 0 {
		return false
	}

	notional := BuySizeUSD(cfg, account.Cash, confidence, state.CrisisState.Level)
	if notional < 1 {
		return false
	}
	if !accountInvariantsHold(account.Cash, notional, confidence, cfg.MaxPositionValue) {
		state.AppendLog("error", "paper_buy_blocked_invariant "+sig.Symbol)
		return false
	}

	order, err := e.Broker.CreateOrder(ctx, ports.OrderRequest{
		Symbol:      sig.Symbol,
		Notional:    notional,
		Side:        ports.Buy,
		Type:        ports.OrderMarket,
		TimeInForce: ports.TIFDay,
	})
	if err != nil {
		state.AppendLog("error", "equity_buy_failed "+sig.Symbol+": "+err.Error())
		return false
	}

	state.PositionEntries[sig.Symbol] = &domain.PositionEntry{
		Symbol:            sig.Symbol,
		EntryTime:         now,
		EntryPrice:        snapshot.Price,
		EntrySentiment:    sig.Sentiment,
		EntrySocialVolume: sig.Volume,
		EntrySources:      []domain.Source{sig.Source},
		EntryReason:       research.Reasoning,
		PeakPrice:         snapshot.Price,
		PeakSentiment:     sig.Sentiment,
	}
	account.Cash -= notional
	state.AppendLog("info", "equity_entry "+sig.Symbol+" order="+order.ID)
	metrics.EquityOrdersTotal.WithLabelValues("buy").Inc()
	if e.Notifier != nil {
		e.Notifier.Notify(ctx, "equity_entry:"+sig.Symbol, "opened "+sig.Symbol)
	}
	return true
}

func analystContext(sig domain.Signal) string {
	return fmt.Sprintf("source=%s sentiment=%.2f volume=%.0f", sig.Source, sig.Sentiment, sig.Volume)
}
