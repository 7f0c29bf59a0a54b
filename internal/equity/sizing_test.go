package equity

import (
	"math"
	"testing"

	"github.com/darkhorse-quant/sentinel-agent/internal/domain"
)

func TestBuySizeUSD_ScalesWithCashAndConfidence(t *testing.T) {
	cfg := domain.Default()
	cfg.PositionSizePctOfCash = 10
	cfg.MaxPositionValue = 100_000

	got := BuySizeUSD(cfg, 10_000, 0.8, domain.CrisisNormal)
	want := 10_000 * 0.10 * 0.8
	if got != want {
		t.Fatalf("got=%v want=%v", got, want)
	}
}

func TestBuySizeUSD_CapsAtTwentyPercentSizePct(t *testing.T) {
	cfg := domain.Default()
	cfg.PositionSizePctOfCash = 50 // should clamp to 20
	cfg.MaxPositionValue = 1_000_000

	got := BuySizeUSD(cfg, 10_000, 1.0, domain.CrisisNormal)
	want := 10_000 * 0.20
	if got != want {
		t.Fatalf("got=%v want=%v (sizePct should clamp to 20%%)", got, want)
	}
}

func TestBuySizeUSD_RespectsMaxPositionValueCeiling(t *testing.T) {
	cfg := domain.Default()
	cfg.PositionSizePctOfCash = 20
	cfg.MaxPositionValue = 500

	got := BuySizeUSD(cfg, 1_000_000, 1.0, domain.CrisisNormal)
	if got != 500 {
		t.Fatalf("expected the ceiling to bind at 500, got %v", got)
	}
}

func TestBuySizeUSD_ZeroAtHighAlertAndFull(t *testing.T) {
	cfg := domain.Default()

	for _, level := range []domain.CrisisLevel{domain.CrisisHighAlert, domain.CrisisFull} {
		got := BuySizeUSD(cfg, 10_000, 1.0, level)
		if got != 0 {
			t.Fatalf("expected zero sizing at crisis level %v, got %v", level, got)
		}
	}
}

func TestBuySizeUSD_HalvedAtElevated(t *testing.T) {
	cfg := domain.Default()
	cfg.PositionSizePctOfCash = 10
	cfg.MaxPositionValue = 100_000

	normal := BuySizeUSD(cfg, 10_000, 1.0, domain.CrisisNormal)
	elevated := BuySizeUSD(cfg, 10_000, 1.0, domain.CrisisElevated)
	if elevated != normal*0.5 {
		t.Fatalf("expected elevated sizing to be half of normal: normal=%v elevated=%v", normal, elevated)
	}
}

func TestEffectiveStopLossPct_TightensOnlyWhenCrisisFloorIsTighter(t *testing.T) {
	cfg := domain.Default()
	cfg.StopLossPct = 10
	cfg.CrisisLevel1StopLossPct = 5

	if got := EffectiveStopLossPct(cfg, domain.CrisisNormal); got != 10 {
		t.Fatalf("normal level should use the plain stop loss, got %v", got)
	}
	if got := EffectiveStopLossPct(cfg, domain.CrisisElevated); got != 5 {
		t.Fatalf("elevated level should tighten to the crisis floor, got %v", got)
	}
}

func TestEffectiveStopLossPct_NeverLoosensTheStop(t *testing.T) {
	cfg := domain.Default()
	cfg.StopLossPct = 5
	cfg.CrisisLevel1StopLossPct = 10 // looser than the plain stop

	if got := EffectiveStopLossPct(cfg, domain.CrisisElevated); got != 5 {
		t.Fatalf("a looser crisis floor must never override a tighter plain stop, got %v", got)
	}
}

func TestExchangeAllowed(t *testing.T) {
	allowed := []string{"NASDAQ", "NYSE"}
	if !exchangeAllowed(allowed, "NASDAQ") {
		t.Fatalf("expected NASDAQ to be allowed")
	}
	if exchangeAllowed(allowed, "OTC") {
		t.Fatalf("expected OTC to be rejected")
	}
}

func TestAccountInvariantsHold(t *testing.T) {
	cases := []struct {
		name             string
		cash             float64
		size             float64
		confidence       float64
		maxPositionValue float64
		want             bool
	}{
		{"valid", 1000, 100, 0.7, 2000, true},
		{"zero_cash", 0, 100, 0.7, 2000, false},
		{"confidence_too_high", 1000, 100, 1.5, 2000, false},
		{"confidence_zero", 1000, 100, 0, 2000, false},
		{"zero_size", 1000, 0, 0.7, 2000, false},
		{"size_over_ceiling", 1000, 3000, 0.7, 2000, false},
		{"nan_size", 1000, math.NaN(), 0.7, 2000, false},
		{"inf_size", 1000, math.Inf(1), 0.7, 2000, false},
	}
	for _, c := range cases {
		if got := accountInvariantsHold(c.cash, c.size, c.confidence, c.maxPositionValue); got != c.want {
			t.Fatalf("%s: got=%v want=%v", c.name, got, c.want)
		}
	}
}
