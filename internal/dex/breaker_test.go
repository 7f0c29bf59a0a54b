package dex

import (
	"testing"
	"time"

	"github.com/darkhorse-quant/sentinel-agent/internal/domain"
)

func newBreakerTestState() *domain.AgentState {
	cfg := domain.Default()
	cfg.CircuitBreakerLosses = 3
	cfg.CircuitBreakerWindowHours = 24
	cfg.CircuitBreakerPauseHours = 1
	cfg.BreakerMinCooldownMinutes = 30
	cfg.ReentryMinMomentum = 70
	return domain.NewAgentState(cfg)
}

func TestRecordStopLoss_TripsBreakerAtThreshold(t *testing.T) {
	state := newBreakerTestState()
	now := time.Now()

	RecordStopLoss(state, "AAA", now)
	RecordStopLoss(state, "BBB", now)
	if state.DexCircuitBreakerUntil != nil {
		t.Fatalf("breaker should not trip before the loss threshold")
	}

	RecordStopLoss(state, "CCC", now)
	if state.DexCircuitBreakerUntil == nil {
		t.Fatalf("breaker should trip on the third loss within the window")
	}
}

func TestRecordStopLoss_IgnoresLossesOutsideWindow(t *testing.T) {
	state := newBreakerTestState()
	now := time.Now()

	RecordStopLoss(state, "AAA", now.Add(-48*time.Hour))
	RecordStopLoss(state, "BBB", now.Add(-48*time.Hour))
	RecordStopLoss(state, "CCC", now)
	if state.DexCircuitBreakerUntil != nil {
		t.Fatalf("losses outside the rolling window must not count toward the trip")
	}
}

func TestBreakerActive_BlocksWithinMinCooldown(t *testing.T) {
	state := newBreakerTestState()
	now := time.Now()
	until := now.Add(1 * time.Hour)
	state.DexCircuitBreakerUntil = &until

	if !BreakerActive(state, now, nil) {
		t.Fatalf("breaker should still block immediately after tripping")
	}
}

func TestBreakerActive_ClearsAfterExpiry(t *testing.T) {
	state := newBreakerTestState()
	now := time.Now()
	until := now.Add(-1 * time.Minute)
	state.DexCircuitBreakerUntil = &until

	if BreakerActive(state, now, nil) {
		t.Fatalf("breaker should clear once the pause window has elapsed")
	}
	if state.DexCircuitBreakerUntil != nil {
		t.Fatalf("expired breaker should be reset to nil")
	}
}

// fixtureTrip places the breaker's trip point 40 minutes in the past and
// its pause expiry 20 minutes in the future, comfortably past the 30-minute
// BreakerMinCooldownMinutes fixture default so the two early-clear paths
// can be exercised.
func fixtureTrip(state *domain.AgentState, now time.Time) {
	tripped := now.Add(-40 * time.Minute)
	until := tripped.Add(time.Duration(state.Config.CircuitBreakerPauseHours * float64(time.Hour)))
	state.DexCircuitBreakerUntil = &until
}

func TestBreakerActive_ClearsEarlyOnRecoveredPosition(t *testing.T) {
	state := newBreakerTestState()
	now := time.Now()
	fixtureTrip(state, now)
	state.DexPositions["addrA"] = &domain.DexPosition{EntryPrice: 1, TokenAmount: 10}

	if BreakerActive(state, now, map[string]float64{"addrA": 2}) {
		t.Fatalf("a recovered (profitable) position should clear the breaker early")
	}
	if state.DexCircuitBreakerUntil != nil {
		t.Fatalf("expected the breaker to be reset on early clear")
	}
}

func TestBreakerActive_ClearsEarlyOnStrongUnheldSignal(t *testing.T) {
	state := newBreakerTestState()
	now := time.Now()
	fixtureTrip(state, now)
	state.DexSignals = []domain.DexSignal{{TokenAddress: "addrZ", MomentumScore: 90}}

	if BreakerActive(state, now, nil) {
		t.Fatalf("a strong unheld signal should clear the breaker early")
	}
}

func TestBreakerActive_StaysActiveWithoutEitherClearCondition(t *testing.T) {
	state := newBreakerTestState()
	now := time.Now()
	fixtureTrip(state, now)

	if !BreakerActive(state, now, nil) {
		t.Fatalf("breaker should remain active with no recovered position or strong signal")
	}
}

func TestPruneStopLossWindow_DropsStaleEntries(t *testing.T) {
	state := newBreakerTestState()
	now := time.Now()
	state.DexRecentStopLosses = []domain.RecentStopLoss{
		{Timestamp: now.Add(-48 * time.Hour), Symbol: "OLD"},
		{Timestamp: now, Symbol: "NEW"},
	}

	PruneStopLossWindow(state, now)
	if len(state.DexRecentStopLosses) != 1 || state.DexRecentStopLosses[0].Symbol != "NEW" {
		t.Fatalf("expected only the recent entry to survive, got %+v", state.DexRecentStopLosses)
	}
}
