package dex

import (
	"testing"
	"time"

	"github.com/darkhorse-quant/sentinel-agent/internal/domain"
)

func newDrawdownTestState() *domain.AgentState {
	cfg := domain.Default()
	cfg.MaxDrawdownPct = 20
	return domain.NewAgentState(cfg)
}

func TestUpdateDrawdown_NewHighClearsPauseAndResetsClock(t *testing.T) {
	state := newDrawdownTestState()
	now := time.Now()
	state.DexPeakValue = 10
	state.DexDrawdownPaused = true
	state.DexMaxDrawdownPct = 15
	state.DexDrawdownStartTime = &now

	later := now.Add(time.Minute)
	UpdateDrawdown(state, 12, later)

	if state.DexPeakValue != 12 {
		t.Fatalf("expected peak updated to 12, got %v", state.DexPeakValue)
	}
	if state.DexDrawdownPaused {
		t.Fatalf("expected a new high to clear the pause")
	}
	if state.DexCurrentDrawdownPct != 0 {
		t.Fatalf("expected current episode drawdown reset to 0, got %v", state.DexCurrentDrawdownPct)
	}
	if state.DexMaxDrawdownPct != 15 {
		t.Fatalf("expected all-time max drawdown to survive a recovery, got %v", state.DexMaxDrawdownPct)
	}
	if state.DexDrawdownStartTime != nil {
		t.Fatalf("expected drawdown start time cleared")
	}
}

func TestUpdateDrawdown_NoPeakYetIsNoop(t *testing.T) {
	state := newDrawdownTestState()
	state.DexPeakValue = 0
	UpdateDrawdown(state, 5, time.Now())
	if state.DexDrawdownPaused {
		t.Fatalf("expected no pause with zero peak")
	}
}

func TestUpdateDrawdown_TracksMaxDrawdownAndDuration(t *testing.T) {
	state := newDrawdownTestState()
	now := time.Now()
	state.DexPeakValue = 100

	UpdateDrawdown(state, 90, now) // 10% drawdown, starts the clock
	if state.DexMaxDrawdownPct != 10 {
		t.Fatalf("expected max drawdown 10, got %v", state.DexMaxDrawdownPct)
	}
	if state.DexDrawdownStartTime == nil {
		t.Fatalf("expected drawdown start time set")
	}

	later := now.Add(5 * time.Minute)
	UpdateDrawdown(state, 85, later) // deeper drawdown, same episode
	if state.DexMaxDrawdownPct != 15 {
		t.Fatalf("expected max drawdown updated to 15, got %v", state.DexMaxDrawdownPct)
	}
	if state.DexMaxDrawdownDurationMs < (5 * time.Minute).Milliseconds() {
		t.Fatalf("expected duration tracked across calls, got %v", state.DexMaxDrawdownDurationMs)
	}
}

func TestUpdateDrawdown_PausesAtConfiguredThreshold(t *testing.T) {
	state := newDrawdownTestState()
	now := time.Now()
	state.DexPeakValue = 100

	UpdateDrawdown(state, 81, now)
	if state.DexDrawdownPaused {
		t.Fatalf("expected no pause just under the 20%% threshold")
	}

	UpdateDrawdown(state, 79, now.Add(time.Minute))
	if !state.DexDrawdownPaused {
		t.Fatalf("expected pause once drawdown reaches the configured threshold")
	}
}

func TestRecordTradeOutcome_TracksLossStreakAndMax(t *testing.T) {
	state := newDrawdownTestState()

	RecordTradeOutcome(state, -1)
	RecordTradeOutcome(state, -1)
	if state.DexCurrentLossStreak != 2 || state.DexMaxConsecutiveLosses != 2 {
		t.Fatalf("expected streak=2 max=2, got streak=%d max=%d", state.DexCurrentLossStreak, state.DexMaxConsecutiveLosses)
	}

	RecordTradeOutcome(state, 5) // a win resets the streak but not the max
	if state.DexCurrentLossStreak != 0 {
		t.Fatalf("expected streak reset to 0 on a win, got %d", state.DexCurrentLossStreak)
	}
	if state.DexMaxConsecutiveLosses != 2 {
		t.Fatalf("expected max streak to persist at 2, got %d", state.DexMaxConsecutiveLosses)
	}

	RecordTradeOutcome(state, -1)
	RecordTradeOutcome(state, -1)
	RecordTradeOutcome(state, -1)
	if state.DexMaxConsecutiveLosses != 3 {
		t.Fatalf("expected max streak to grow past the previous record, got %d", state.DexMaxConsecutiveLosses)
	}
}
