package equity

import (
	"testing"
	"time"

	"github.com/darkhorse-quant/sentinel-agent/internal/domain"
)

func TestEvaluateStaleness_FreshPositionIsNeverStale(t *testing.T) {
	cfg := domain.Default()
	pos := &domain.PositionEntry{Symbol: "ABCD", EntryTime: time.Now().Add(-1 * time.Hour), EntryPrice: 10}

	res := EvaluateStaleness(cfg, pos, 10, nil, time.Now())
	if res.IsStale || res.Score != 0 {
		t.Fatalf("expected a fresh position under StaleMinHoldHours to score 0, got %+v", res)
	}
}

func TestEvaluateStaleness_MaxHoldWithLossForcesStaleBelowScoreThreshold(t *testing.T) {
	cfg := domain.Default()
	now := time.Now()
	pos := &domain.PositionEntry{
		Symbol:     "ABCD",
		EntryTime:  now.AddDate(0, 0, -int(cfg.StaleMaxHoldDays)-1),
		EntryPrice: 10,
	}

	res := EvaluateStaleness(cfg, pos, 9.9, nil, now) // -1% gain, below stale_min_gain_pct
	if !res.IsStale {
		t.Fatalf("expected max-hold-with-loss to force staleness even with score under 70, got %+v", res)
	}
	if res.Score >= 70 {
		t.Fatalf("expected this case to demonstrate the forced path, not the score path, got score=%v", res.Score)
	}
}

func TestEvaluateStaleness_MaxHoldWithGainDoesNotForceStale(t *testing.T) {
	cfg := domain.Default()
	now := time.Now()
	pos := &domain.PositionEntry{
		Symbol:     "ABCD",
		EntryTime:  now.AddDate(0, 0, -int(cfg.StaleMaxHoldDays)-1),
		EntryPrice: 10,
	}

	res := EvaluateStaleness(cfg, pos, 15, nil, now) // +50% gain, above stale_min_gain_pct
	if res.IsStale {
		t.Fatalf("expected a profitable position past max hold not to be forced stale when score stays under 70, got %+v", res)
	}
}

func TestEvaluateStaleness_TimeComponentInterpolatesBetweenMidAndMaxHold(t *testing.T) {
	cfg := domain.Default()
	now := time.Now()
	holdDays := float64(int((cfg.StaleMidHoldDays + cfg.StaleMaxHoldDays) / 2))
	pos := &domain.PositionEntry{
		Symbol:     "ABCD",
		EntryTime:  now.AddDate(0, 0, -int(holdDays)),
		EntryPrice: 10,
	}

	res := EvaluateStaleness(cfg, pos, 11, nil, now) // +10% gain, clear of the mid-hold gain floor
	want := 40 * (holdDays - cfg.StaleMidHoldDays) / (cfg.StaleMaxHoldDays - cfg.StaleMidHoldDays)
	if diff := res.Score - want; diff > 1 || diff < -1 {
		t.Fatalf("expected the time component linearly interpolated to ~%v, got %v", want, res.Score)
	}
}

func TestEvaluateStaleness_PriceComponentCapsAtThirty(t *testing.T) {
	cfg := domain.Default()
	now := time.Now()
	pos := &domain.PositionEntry{
		Symbol:     "ABCD",
		EntryTime:  now.Add(-time.Duration(cfg.StaleMinHoldHours+1) * time.Hour), // under mid-hold, isolates the price term
		EntryPrice: 10,
	}

	res := EvaluateStaleness(cfg, pos, 8, nil, now) // -20% gain, |plPct|*3=60 capped to 30
	if res.Score != 30 {
		t.Fatalf("expected the price component capped at 30, got %v", res.Score)
	}
}

func TestEvaluateStaleness_MidHoldBelowGainFloorAddsFifteen(t *testing.T) {
	cfg := domain.Default()
	now := time.Now()
	pos := &domain.PositionEntry{
		Symbol:     "ABCD",
		EntryTime:  now.AddDate(0, 0, -int(cfg.StaleMidHoldDays)), // exactly at mid hold, time component is 0
		EntryPrice: 10,
	}

	res := EvaluateStaleness(cfg, pos, 10.2, nil, now) // +2% gain, below the 5% mid-hold floor
	if res.Score != 15 {
		t.Fatalf("expected the mid-hold gain floor to add 15 in isolation, got %v", res.Score)
	}
}

func TestEvaluateStaleness_SocialVolumeDecayUsesEntryVolumeNotHistoryPeak(t *testing.T) {
	cfg := domain.Default()
	now := time.Now()
	pos := &domain.PositionEntry{
		Symbol:            "ABCD",
		EntryTime:         now.Add(-time.Duration(cfg.StaleMinHoldHours+1) * time.Hour),
		EntryPrice:        10,
		EntrySocialVolume: 100,
	}

	// A single sample below the history peak is irrelevant — the
	// denominator is EntrySocialVolume, never sampled here.
	decayed := EvaluateStaleness(cfg, pos, 10, []domain.SocialHistoryPoint{{Volume: 18}}, now) // 18/100=0.18 <= 0.2
	if decayed.Score != 30 {
		t.Fatalf("expected full social-decay tier (30) at/under the configured threshold, got %v", decayed.Score)
	}

	fading := EvaluateStaleness(cfg, pos, 10, []domain.SocialHistoryPoint{{Volume: 40}}, now) // 40/100=0.4, between 0.2 and 0.5
	if fading.Score != 15 {
		t.Fatalf("expected the partial social-decay tier (15) between 0.2 and 0.5, got %v", fading.Score)
	}

	fresh := EvaluateStaleness(cfg, pos, 10, []domain.SocialHistoryPoint{{Volume: 90}}, now) // 90/100=0.9, above 0.5
	if fresh.Score != 0 {
		t.Fatalf("expected no social-decay points above 0.5, got %v", fresh.Score)
	}
}

func TestEvaluateStaleness_ScoreThresholdForcesStaleIndependentOfMaxHold(t *testing.T) {
	cfg := domain.Default()
	now := time.Now()
	holdDays := cfg.StaleMaxHoldDays - 1 // short of max hold, so only the score>=70 path can force this
	pos := &domain.PositionEntry{
		Symbol:     "ABCD",
		EntryTime:  now.AddDate(0, 0, -int(holdDays)),
		EntryPrice: 10,
	}

	res := EvaluateStaleness(cfg, pos, 9, nil, now) // -10% gain
	if !res.IsStale {
		t.Fatalf("expected score>=70 to force staleness ahead of max hold, got %+v", res)
	}
	if res.Score < 70 {
		t.Fatalf("expected this case to actually exercise the score threshold, got score=%v", res.Score)
	}
}
