package dex

import (
	"testing"
	"time"

	"github.com/darkhorse-quant/sentinel-agent/internal/domain"
)

func newCooldownTestState() *domain.AgentState {
	cfg := domain.Default()
	cfg.ReentryRecoveryPct = 15
	cfg.ReentryMinMomentum = 70
	cfg.StopLossCooldownHours = 6
	return domain.NewAgentState(cfg)
}

func TestEligible_NoCooldownIsAlwaysEligible(t *testing.T) {
	state := newCooldownTestState()
	if !Eligible(state, "addrA", 1, 0, time.Now()) {
		t.Fatalf("a token with no cooldown entry should always be eligible")
	}
}

func TestEligible_BlockedBeforeAnyRecoveryCondition(t *testing.T) {
	state := newCooldownTestState()
	now := time.Now()
	StartCooldown(state, "addrA", 1.0, now)

	if Eligible(state, "addrA", 1.0, 0, now) {
		t.Fatalf("freshly cooled-down token should not be eligible with no recovery signal")
	}
}

func TestEligible_RecoversOnPriceRally(t *testing.T) {
	state := newCooldownTestState()
	now := time.Now()
	StartCooldown(state, "addrA", 1.0, now)

	if !Eligible(state, "addrA", 1.20, 0, now) {
		t.Fatalf("a 20%% rally off the exit price should clear the cooldown (threshold 15%%)")
	}
	if _, ok := state.DexStopLossCooldowns["addrA"]; ok {
		t.Fatalf("cleared cooldown entry should be deleted")
	}
}

func TestEligible_RecoversOnMomentumAfterMinElapsed(t *testing.T) {
	state := newCooldownTestState()
	entered := time.Now().Add(-6 * time.Minute)
	StartCooldown(state, "addrA", 1.0, entered)

	if !Eligible(state, "addrA", 1.0, 90, time.Now()) {
		t.Fatalf("strong momentum past the 5-minute floor should clear the cooldown")
	}
}

func TestEligible_MomentumDoesNotClearBeforeMinElapsed(t *testing.T) {
	state := newCooldownTestState()
	entered := time.Now().Add(-2 * time.Minute)
	StartCooldown(state, "addrA", 1.0, entered)

	if Eligible(state, "addrA", 1.0, 90, time.Now()) {
		t.Fatalf("momentum recovery should not fire before the 5-minute floor")
	}
}

func TestEligible_FallbackExpiryAlwaysClears(t *testing.T) {
	state := newCooldownTestState()
	past := time.Now().Add(-7 * time.Hour)
	StartCooldown(state, "addrA", 1.0, past)

	if !Eligible(state, "addrA", 1.0, 0, time.Now()) {
		t.Fatalf("cooldown past its fallback expiry should always be eligible")
	}
}

func TestPruneCooldowns_DropsOnlyExpiredEntries(t *testing.T) {
	state := newCooldownTestState()
	now := time.Now()
	StartCooldown(state, "expired", 1.0, now.Add(-7*time.Hour))
	StartCooldown(state, "fresh", 1.0, now)

	PruneCooldowns(state, now)

	if _, ok := state.DexStopLossCooldowns["expired"]; ok {
		t.Fatalf("expired cooldown should have been pruned")
	}
	if _, ok := state.DexStopLossCooldowns["fresh"]; !ok {
		t.Fatalf("fresh cooldown should survive pruning")
	}
}
