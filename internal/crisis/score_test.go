package crisis

import (
	"testing"

	"github.com/darkhorse-quant/sentinel-agent/internal/domain"
)

func f(v float64) *float64 { return &v }

func TestScore_AllIndicatorsNilScoresZero(t *testing.T) {
	score, triggered := Score(domain.CrisisIndicators{}, domain.Default())
	if score != 0 || len(triggered) != 0 {
		t.Fatalf("expected zero score with no triggers, got score=%v triggered=%v", score, triggered)
	}
}

func TestScore_VIXWarningVsCritical(t *testing.T) {
	cfg := domain.Default()

	score, triggered := Score(domain.CrisisIndicators{VIX: f(cfg.VIXWarning + 1)}, cfg)
	if score != 1 || triggered[0] != "vix_warning" {
		t.Fatalf("expected vix_warning worth 1 point, got score=%v triggered=%v", score, triggered)
	}

	score, triggered = Score(domain.CrisisIndicators{VIX: f(cfg.VIXCritical + 1)}, cfg)
	if score != 3 || triggered[0] != "vix_critical" {
		t.Fatalf("expected vix_critical worth 3 points, got score=%v triggered=%v", score, triggered)
	}
}

func TestScore_MultipleIndicatorsAccumulate(t *testing.T) {
	cfg := domain.Default()
	ind := domain.CrisisIndicators{
		VIX:             f(cfg.VIXCritical + 1), // 3
		YieldCurve2Y10Y: f(-0.1),                // 1
		TED:             f(0.6),                 // 1
	}
	score, triggered := Score(ind, cfg)
	if score != 5 {
		t.Fatalf("expected accumulated score=5, got %v (triggered=%v)", score, triggered)
	}
}

func TestScore_USDTDepegEitherDirection(t *testing.T) {
	cfg := domain.Default()

	_, triggered := Score(domain.CrisisIndicators{USDTPeg: f(0.97)}, cfg)
	if len(triggered) != 1 || triggered[0] != "usdt_depeg" {
		t.Fatalf("expected depeg below peg to trigger, got %v", triggered)
	}

	_, triggered = Score(domain.CrisisIndicators{USDTPeg: f(1.03)}, cfg)
	if len(triggered) != 1 || triggered[0] != "usdt_depeg" {
		t.Fatalf("expected depeg above peg to trigger, got %v", triggered)
	}

	_, triggered = Score(domain.CrisisIndicators{USDTPeg: f(1.0)}, cfg)
	if len(triggered) != 0 {
		t.Fatalf("expected a stable peg not to trigger, got %v", triggered)
	}
}

func TestScore_StocksAbove200MAIsNeverRead(t *testing.T) {
	// StocksAbove200MA is permanently unsourced (spec.md 9) and Score never
	// reads it — a snapshot with only that field set and every other
	// indicator nil must still score to zero.
	score, _ := Score(domain.CrisisIndicators{StocksAbove200MA: f(10)}, domain.Default())
	if score != 0 {
		t.Fatalf("expected zero score, got %v", score)
	}
}

func TestLevelForScore_Ladder(t *testing.T) {
	cases := []struct {
		score float64
		want  domain.CrisisLevel
	}{
		{0, domain.CrisisNormal},
		{1.9, domain.CrisisNormal},
		{2, domain.CrisisElevated},
		{3.9, domain.CrisisElevated},
		{4, domain.CrisisHighAlert},
		{5.9, domain.CrisisHighAlert},
		{6, domain.CrisisFull},
		{100, domain.CrisisFull},
	}
	for _, c := range cases {
		if got := LevelForScore(c.score); got != c.want {
			t.Fatalf("LevelForScore(%v) = %v, want %v", c.score, got, c.want)
		}
	}
}
