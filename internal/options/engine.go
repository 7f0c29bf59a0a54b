// Package options implements the options sub-flow (spec.md 4.7): expiration
// and strike selection alongside a qualifying equity signal, affordability
// and liquidity filtering, and a fixed stop-loss/take-profit exit bracket.
package options

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/darkhorse-quant/sentinel-agent/internal/domain"
	"github.com/darkhorse-quant/sentinel-agent/internal/ports"
)

// Engine evaluates option entries alongside a fresh equity BUY verdict and
// manages exits on whatever contracts it is already holding.
type Engine struct {
	Broker   ports.Broker
	Notifier ports.Notifier
}

// Enter opens one contract position for underlying if research calls for it
// at sufficient confidence and a qualifying contract can be found. It is a
// no-op if options are disabled, confidence is too low, or a position is
// already open on the underlying.
func (e *Engine) Enter(ctx context.Context, state *domain.AgentState, underlying string, research domain.ResearchResult, account ports.Account, now time.Time) {
	cfg := state.Config
	if !cfg.OptionsEnabled {
		return
	}
	if research.Verdict != domain.VerdictBuy || research.Confidence < cfg.OptionsMinConfidence {
		return
	}
	if _, held := state.OptionPositions[underlying]; held {
		return
	}

	svc := e.Broker.Options()
	expirations, err := svc.GetExpirations(ctx, underlying)
	if err != nil || len(expirations) == 0 {
		return
	}
	expiration, ok := pickExpiration(expirations, cfg.OptionsMinDTE, cfg.OptionsMaxDTE, now)
	if !ok {
		return
	}

	chain, err := svc.GetChain(ctx, underlying, expiration)
	if err != nil || len(chain) == 0 {
		return
	}
	isCall := true // bullish BUY verdict only; the agent has no bearish equity signal path to drive puts.
	contract, ok := pickContract(chain, isCall, cfg.OptionsMinDelta, cfg.OptionsMaxDelta)
	if !ok {
		return
	}

	mid := contract.Mid
	if mid <= 0 || contract.Bid <= 0 || contract.Ask <= 0 {
		return
	}
	spreadPct := (contract.Ask - contract.Bid) / mid * 100
	if spreadPct > 10 {
		return
	}

	maxContracts := int(account.Equity * cfg.OptionsMaxPctPerTrade / 100 / (mid * 100))
	if maxContracts < 1 {
		return
	}

	state.OptionPositions[underlying] = &domain.OptionPosition{
		ContractSymbol: contract.Symbol,
		Underlying:     underlying,
		Expiration:     contract.Expiration,
		Strike:         contract.Strike,
		IsCall:         contract.IsCall,
		EntryTime:      now,
		EntryMid:       mid,
		Contracts:      maxContracts,
	}
	state.AppendLog("info", "options_entry "+contract.Symbol)
	if e.Notifier != nil {
		e.Notifier.Notify(ctx, "options_entry:"+contract.Symbol, "opened "+contract.Symbol)
	}
}

// EvaluateExits closes any option position whose P&L has crossed the fixed
// stop-loss/take-profit bracket (spec.md 4.7). A contract snapshot fetch
// failure leaves the position open for the next tick to re-check.
func (e *Engine) EvaluateExits(ctx context.Context, state *domain.AgentState, now time.Time) {
	cfg := state.Config
	svc := e.Broker.Options()
	for underlying, pos := range state.OptionPositions {
		snap, err := svc.GetSnapshot(ctx, pos.ContractSymbol)
		if err != nil || snap.Mid <= 0 {
			continue
		}
		plPct := pos.PLPct(snap.Mid)
		if plPct > -cfg.OptionsStopLossPct && plPct < cfg.OptionsTakeProfitPct {
			continue
		}
		delete(state.OptionPositions, underlying)
		reason := "options_take_profit"
		if plPct <= -cfg.OptionsStopLossPct {
			reason = "options_stop_loss"
		}
		state.AppendLog("info", reason+" "+pos.ContractSymbol)
		if e.Notifier != nil {
			e.Notifier.Notify(ctx, "options_exit:"+pos.ContractSymbol, reason+" "+pos.ContractSymbol)
		}
	}
}

// pickExpiration returns the expiration with DTE in [minDTE, maxDTE] whose
// DTE is closest to the midpoint of that range.
func pickExpiration(expirations []time.Time, minDTE, maxDTE int, now time.Time) (time.Time, bool) {
	target := float64(minDTE+maxDTE) / 2
	best := time.Time{}
	bestDiff := math.MaxFloat64
	found := false
	for _, exp := range expirations {
		dte := exp.Sub(now).Hours() / 24
		if dte < float64(minDTE) || dte > float64(maxDTE) {
			continue
		}
		diff := math.Abs(dte - target)
		if diff < bestDiff {
			bestDiff = diff
			best = exp
			found = true
		}
	}
	return best, found
}

// pickContract returns the call/put nearest the midpoint of [minDelta,
// maxDelta], restricted to contracts already inside that delta band.
func pickContract(chain []ports.OptionContract, isCall bool, minDelta, maxDelta float64) (ports.OptionContract, bool) {
	targetDelta := (minDelta + maxDelta) / 2
	candidates := make([]ports.OptionContract, 0, len(chain))
	for _, c := range chain {
		if c.IsCall != isCall {
			continue
		}
		d := math.Abs(c.Delta)
		if d < minDelta || d > maxDelta {
			continue
		}
		candidates = append(candidates, c)
	}
	if len(candidates) == 0 {
		return ports.OptionContract{}, false
	}
	sort.Slice(candidates, func(i, j int) bool {
		return math.Abs(math.Abs(candidates[i].Delta)-targetDelta) < math.Abs(math.Abs(candidates[j].Delta)-targetDelta)
	})
	return candidates[0], true
}
