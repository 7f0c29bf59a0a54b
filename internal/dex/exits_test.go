package dex

import (
	"testing"
	"time"

	"github.com/darkhorse-quant/sentinel-agent/internal/domain"
)

func newExitsTestPosition(entryPrice float64) *domain.DexPosition {
	return &domain.DexPosition{
		Symbol:      "TOK",
		EntryPrice:  entryPrice,
		PeakPrice:   entryPrice,
		TokenAmount: 100,
		Tier:        domain.TierEstablished,
	}
}

func TestEvaluateExit_MissingFromScanIncrementsAndEventuallyExits(t *testing.T) {
	state := domain.NewAgentState(domain.Default())
	state.Config.MissedScansBeforeExit = 2
	pos := newExitsTestPosition(1.0)

	d := EvaluateExit(state, pos, scanResult{Found: false}, time.Now())
	if d.Close {
		t.Fatalf("expected no exit on the first missed scan")
	}
	if pos.MissedScans != 1 {
		t.Fatalf("expected MissedScans incremented to 1, got %d", pos.MissedScans)
	}

	d = EvaluateExit(state, pos, scanResult{Found: false}, time.Now())
	if !d.Close || d.Reason != domain.ExitLostMomentum {
		t.Fatalf("expected lost_momentum exit once the threshold is hit and P&L<=0, got %+v", d)
	}
}

func TestEvaluateExit_MissingFromScanHeldIfProfitable(t *testing.T) {
	state := domain.NewAgentState(domain.Default())
	state.Config.MissedScansBeforeExit = 1
	pos := newExitsTestPosition(1.0)
	pos.PeakPrice = 1.5 // currently profitable at the peak

	d := EvaluateExit(state, pos, scanResult{Found: false}, time.Now())
	if d.Close {
		t.Fatalf("expected a profitable position to be held despite missed scans, got %+v", d)
	}
}

func TestEvaluateExit_FoundResetsMissedScansAndAdvancesPeak(t *testing.T) {
	state := domain.NewAgentState(domain.Default())
	pos := newExitsTestPosition(1.0)
	pos.MissedScans = 3

	EvaluateExit(state, pos, scanResult{Found: true, PriceUSD: 1.2, Liquidity: 1000, MomentumScore: 50}, time.Now())
	if pos.MissedScans != 0 {
		t.Fatalf("expected MissedScans reset to 0 on a successful scan, got %d", pos.MissedScans)
	}
	if pos.PeakPrice != 1.2 {
		t.Fatalf("expected peak advanced to 1.2, got %v", pos.PeakPrice)
	}
}

func TestEvaluateExit_LostMomentumOnNegativePLAndWeakMomentum(t *testing.T) {
	state := domain.NewAgentState(domain.Default())
	pos := newExitsTestPosition(1.0)
	pos.EntryMomentumScore = 50 // current must fall below 0.4x this to trigger

	d := EvaluateExit(state, pos, scanResult{Found: true, PriceUSD: 0.95, Liquidity: 100_000, MomentumScore: 10}, time.Now())
	if !d.Close || d.Reason != domain.ExitLostMomentum {
		t.Fatalf("expected lost_momentum exit, got %+v", d)
	}
}

func TestEvaluateExit_LostMomentumComparesToEntryNotGlobalFloor(t *testing.T) {
	state := domain.NewAgentState(domain.Default())
	pos := newExitsTestPosition(1.0)
	pos.EntryMomentumScore = 20 // 0.4x = 8; a global floor of 30 would wrongly trigger here

	d := EvaluateExit(state, pos, scanResult{Found: true, PriceUSD: 0.95, Liquidity: 100_000, MomentumScore: 10}, time.Now())
	if d.Close {
		t.Fatalf("expected no lost_momentum exit when current momentum is still above 0.4x entry, got %+v", d)
	}
}

func TestEvaluateExit_TakeProfitDelayedByThinLiquidity(t *testing.T) {
	state := domain.NewAgentState(domain.Default())
	state.Config.DexTakeProfitPct = 100
	pos := newExitsTestPosition(1.0) // TokenAmount=100, so position value at 2.5 is 250; 5x=1250

	d := EvaluateExit(state, pos, scanResult{Found: true, PriceUSD: 2.5, Liquidity: 1_000, MomentumScore: 70}, time.Now())
	if d.Close {
		t.Fatalf("expected take-profit delayed by liquidity under 5x position value, got %+v", d)
	}
	found := false
	for _, entry := range state.Logs {
		if entry.Message == "take_profit_delayed_low_liquidity TOK" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a take_profit_delayed_low_liquidity log entry, got %+v", state.Logs)
	}
}

func TestEvaluateExit_TakeProfitExecutesWithSufficientLiquidity(t *testing.T) {
	state := domain.NewAgentState(domain.Default())
	state.Config.DexTakeProfitPct = 100
	pos := newExitsTestPosition(1.0)

	d := EvaluateExit(state, pos, scanResult{Found: true, PriceUSD: 2.5, Liquidity: 100_000, MomentumScore: 70}, time.Now())
	if !d.Close || d.Reason != domain.ExitTakeProfit {
		t.Fatalf("expected take_profit exit, got %+v", d)
	}
}

func TestEvaluateExit_TrailingStopTriggersAfterActivationAndDrop(t *testing.T) {
	state := domain.NewAgentState(domain.Default())
	state.Config.TrailingStopEnabled = true
	state.Config.TrailingStopActivationPct = 50
	state.Config.TrailingStopDistancePct = 25
	state.Config.DexTakeProfitPct = 1000 // keep take-profit out of the way

	pos := newExitsTestPosition(1.0)
	pos.PeakPrice = 1.6 // 60% gain, past the 50% activation

	d := EvaluateExit(state, pos, scanResult{Found: true, PriceUSD: 1.1, Liquidity: 100_000, MomentumScore: 70}, time.Now())
	if !d.Close || d.Reason != domain.ExitTrailingStop {
		t.Fatalf("expected trailing_stop exit on a >25%% drop from peak, got %+v", d)
	}
}

func TestEvaluateExit_TrailingStopNotActivatedBelowThreshold(t *testing.T) {
	state := domain.NewAgentState(domain.Default())
	state.Config.TrailingStopEnabled = true
	state.Config.TrailingStopActivationPct = 50
	state.Config.TrailingStopDistancePct = 25
	state.Config.DexStopLossPct = 1000 // keep stop-loss out of the way

	pos := newExitsTestPosition(1.0)
	pos.PeakPrice = 1.2 // only 20% gain, below the 50% activation

	d := EvaluateExit(state, pos, scanResult{Found: true, PriceUSD: 0.95, Liquidity: 100_000, MomentumScore: 70}, time.Now())
	if d.Close {
		t.Fatalf("expected no trailing-stop exit before activation, got %+v", d)
	}
}

func TestEvaluateExit_FixedStopLoss(t *testing.T) {
	state := domain.NewAgentState(domain.Default())
	state.Config.TrailingStopEnabled = false
	state.Config.DexTakeProfitPct = 1000
	state.Config.DexStopLossPct = 30

	pos := newExitsTestPosition(1.0)

	d := EvaluateExit(state, pos, scanResult{Found: true, PriceUSD: 0.65, Liquidity: 100_000, MomentumScore: 70}, time.Now())
	if !d.Close || d.Reason != domain.ExitStopLoss {
		t.Fatalf("expected stop_loss exit at a 35%% loss with a 30%% stop, got %+v", d)
	}
}

func TestEvaluateExit_MicrosprayAndBreakoutUseLotteryTrailingBand(t *testing.T) {
	state := domain.NewAgentState(domain.Default())
	state.Config.TrailingStopEnabled = true
	state.Config.LotteryTrailingActivation = 50
	state.Config.LotteryTrailingDistance = 25
	state.Config.TrailingStopActivationPct = 9999 // would never activate if wrongly applied
	state.Config.TrailingStopDistancePct = 9999
	state.Config.DexTakeProfitPct = 1000

	for _, tier := range []domain.Tier{domain.TierMicrospray, domain.TierBreakout} {
		pos := newExitsTestPosition(1.0)
		pos.Tier = tier
		pos.PeakPrice = 1.6 // 60% gain, past the 50% lottery activation

		d := EvaluateExit(state, pos, scanResult{Found: true, PriceUSD: 1.1, Liquidity: 100_000, MomentumScore: 70}, time.Now())
		if !d.Close || d.Reason != domain.ExitTrailingStop {
			t.Fatalf("tier %v: expected the lottery trailing band applied, got %+v", tier, d)
		}
	}
}

func TestEvaluateExit_HoldsWithinAllBands(t *testing.T) {
	state := domain.NewAgentState(domain.Default())
	state.Config.TrailingStopEnabled = true
	state.Config.DexTakeProfitPct = 100
	state.Config.DexStopLossPct = 30
	state.Config.MinMomentumScore = 60

	pos := newExitsTestPosition(1.0)

	d := EvaluateExit(state, pos, scanResult{Found: true, PriceUSD: 1.05, Liquidity: 100_000, MomentumScore: 70}, time.Now())
	if d.Close {
		t.Fatalf("expected the position held within every exit band, got %+v", d)
	}
}
