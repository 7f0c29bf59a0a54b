package dex

import (
	"context"
	"time"

	"github.com/darkhorse-quant/sentinel-agent/internal/domain"
	"github.com/darkhorse-quant/sentinel-agent/internal/metrics"
	"github.com/darkhorse-quant/sentinel-agent/internal/ports"
)

// Engine runs one DEX tick: scan, exits, then entries, in that order
// (spec.md 5 — "DEX exits precede DEX entries" is a hard ordering
// guarantee so a token that should be sold is never also bought this tick).
type Engine struct {
	Momentum ports.MomentumProvider
	Charts   ports.ChartAnalyzer
	SolPrice ports.SolPriceProvider
	Notifier ports.Notifier
}

// Tick advances the DEX engine by one cycle against state, mutating it in
// place. now is injected so behavior is deterministic under test.
func (e *Engine) Tick(ctx context.Context, state *domain.AgentState, now time.Time) error {
	if !state.Config.DexEnabled {
		return nil
	}

	PruneCooldowns(state, now)
	PruneStopLossWindow(state, now)

	filters := make([]ports.TierFilter, 0, 5)
	for _, t := range TierFilters(state.Config) {
		filters = append(filters, ports.TierFilter{
			Tier:            string(t.Tier),
			MinAgeHours:     t.MinAgeHours,
			MaxAgeHours:     t.MaxAgeHours,
			MinLiquidityUSD: t.MinLiquidityUSD,
			RequirePump5m:   t.RequirePump5m,
			MinLegitimacy:   t.MinLegitimacy,
		})
	}

	candidates, err := e.Momentum.FindMomentumTokens(ctx, filters)
	if err != nil {
		state.AppendLog("error", "dex_scan_failed: "+err.Error())
		candidates = nil
	}

	scanByAddr := make(map[string]scanResult, len(candidates))
	state.DexSignals = state.DexSignals[:0]
	for _, c := range candidates {
		scanByAddr[c.TokenAddress] = scanResult{
			Found:         true,
			PriceUSD:      c.PriceUSD,
			Liquidity:     c.Liquidity,
			MomentumScore: c.MomentumScore,
		}
		state.DexSignals = append(state.DexSignals, domain.DexSignal{
			TokenAddress:    c.TokenAddress,
			Symbol:          c.Symbol,
			Name:            c.Name,
			URL:             c.URL,
			PriceUSD:        c.PriceUSD,
			PriceChange5m:   c.PriceChange5m,
			PriceChange6h:   c.PriceChange6h,
			PriceChange24h:  c.PriceChange24h,
			Volume24h:       c.Volume24h,
			Liquidity:       c.Liquidity,
			AgeHours:        c.AgeHours,
			AgeDays:         c.AgeDays,
			MomentumScore:   c.MomentumScore,
			LegitimacyScore: c.LegitimacyScore,
			Tier:            domain.Tier(c.Tier),
			DexID:           c.DexID,
		})
	}
	state.LastDexScan = now

	solUSD, err := e.SolPrice.SolUSD(ctx)
	if err != nil || solUSD <= 0 {
		solUSD = state.Config.SolUSDFallback
	}

	e.runExits(state, scanByAddr, solUSD, now)

	currentPrices := make(map[string]float64, len(scanByAddr))
	for addr, sr := range scanByAddr {
		currentPrices[addr] = sr.PriceUSD
	}
	totalValue := TotalPortfolioValueUSD(state.DexPaperBalanceSOL, state.DexPositions, currentPrices, solUSD) / solUSD
	UpdateDrawdown(state, totalValue, now)
	metrics.DexPaperBalanceSOL.Set(state.DexPaperBalanceSOL)

	state.DexPortfolioHistory = append(state.DexPortfolioHistory, domain.DexPortfolioSnapshot{
		Timestamp:       now,
		PaperBalanceSOL: state.DexPaperBalanceSOL,
		PositionsValue:  totalValue - state.DexPaperBalanceSOL,
		TotalValueSOL:   totalValue,
		OpenPositions:   len(state.DexPositions),
		RealizedPnLSOL:  state.DexRealizedPnLSOL,
	})

	if state.DexDrawdownPaused {
		return nil
	}
	if BreakerActive(state, now, currentPrices) {
		return nil
	}
	if state.CrisisState.Level >= domain.CrisisHighAlert {
		return nil
	}

	e.runEntries(ctx, state, candidates, solUSD, now)
	return nil
}

func (e *Engine) runExits(state *domain.AgentState, scanByAddr map[string]scanResult, solUSD float64, now time.Time) {
	for addr, pos := range state.DexPositions {
		sr := scanByAddr[addr]
		decision := EvaluateExit(state, pos, sr, now)
		if !decision.Close {
			continue
		}
		e.closePosition(state, addr, pos, decision, solUSD, now)
	}
}

func (e *Engine) closePosition(state *domain.AgentState, addr string, pos *domain.DexPosition, decision ExitDecision, solUSD float64, now time.Time) {
	model := ParseSlippageModel(state.Config.SlippageModel)
	liquidity := pos.EntryLiquidity
	positionUSD := pos.MarkToMarket(decision.Price)
	execPrice := ApplySellSlippage(decision.Price, model, positionUSD, liquidity)

	if solUSD <= 0 {
		solUSD = state.Config.SolUSDFallback
	}
	proceedsSOL := pos.TokenAmount * execPrice / solUSD
	proceedsSOL -= state.Config.GasFeeSOL
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
	if decision.Reason == domain.ExitStopLoss || decision.Reason == domain.ExitTrailingStop {
		StartCooldown(state, addr, execPrice, now)
		RecordStopLoss(state, pos.Symbol, now)
	}

	delete(state.DexPositions, addr)
	state.AppendLog("info", "dex_exit "+pos.Symbol+" "+string(decision.Reason))
	metrics.DexTradesTotal.WithLabelValues(string(decision.Reason)).Inc()
	if e.Notifier != nil {
		e.Notifier.Notify(context.Background(), "dex_exit:"+addr, "closed "+pos.Symbol+" ("+string(decision.Reason)+")")
	}
}

func (e *Engine) runEntries(ctx context.Context, state *domain.AgentState, candidates []ports.MomentumCandidate, solUSD float64, now time.Time) {
	counts := map[domain.Tier]int{}
	for _, pos := range state.DexPositions {
		counts[pos.Tier]++
	}
	limits := map[domain.Tier]int{}
	for _, t := range TierFilters(state.Config) {
		limits[t.Tier] = t.MaxConcurrent
	}

	for _, c := range candidates {
		tier := domain.Tier(c.Tier)
		if _, already := state.DexPositions[c.TokenAddress]; already {
			continue
		}
		if counts[tier] >= limits[tier] {
			continue
		}
		if c.MomentumScore < state.Config.MinMomentumScore {
			continue
		}
		if !Eligible(state, c.TokenAddress, c.PriceUSD, c.MomentumScore, now) {
			continue
		}
		if state.Config.DexChartAnalysisEnabled && e.Charts != nil {
			analysis, err := e.Charts.AnalyzeChart(ctx, c.TokenAddress, c.AgeHours)
			if err == nil && analysis != nil && analysis.EntryScore < state.Config.DexChartMinEntryScore {
				continue
			}
		}

		sizeSOL := PositionSizeSOL(tier, state.Config, state.DexPaperBalanceSOL)
		totalValue := TotalPortfolioValueUSD(state.DexPaperBalanceSOL, state.DexPositions, map[string]float64{}, solUSD)
		capped := ApplyConcentrationCap(sizeSOL, state.Config, totalValue, solUSD)
		if capped.Skipped || capped.SizeSOL > state.DexPaperBalanceSOL {
			continue
		}
		if capped.Reduced {
			state.AppendLog("info", "paper_buy_reduced "+c.Symbol)
		}

		model := ParseSlippageModel(state.Config.SlippageModel)
		positionUSD := capped.SizeSOL * solUSD
		execPrice := ApplyBuySlippage(c.PriceUSD, model, positionUSD, c.Liquidity)
		tokenAmount := positionUSD / execPrice

		state.DexPaperBalanceSOL -= capped.SizeSOL + state.Config.GasFeeSOL
		state.DexPositions[c.TokenAddress] = &domain.DexPosition{
			TokenAddress:       c.TokenAddress,
			Symbol:             c.Symbol,
			EntryPrice:         execPrice,
			EntryStakeSOL:      capped.SizeSOL,
			EntryTime:          now,
			TokenAmount:        tokenAmount,
			PeakPrice:          execPrice,
			EntryMomentumScore: c.MomentumScore,
			EntryLiquidity:     c.Liquidity,
			Tier:               tier,
		}
		counts[tier]++
		state.AppendLog("info", "dex_entry "+c.Symbol+" ("+string(tier)+")")
		if e.Notifier != nil {
			e.Notifier.Notify(ctx, "dex_entry:"+c.TokenAddress, "opened "+c.Symbol+" ("+string(tier)+")")
		}
	}
}
