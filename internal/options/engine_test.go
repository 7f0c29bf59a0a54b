package options

import (
	"testing"
	"time"

	"github.com/darkhorse-quant/sentinel-agent/internal/ports"
)

func TestPickExpiration_PicksClosestToRangeMidpoint(t *testing.T) {
	now := time.Now()
	expirations := []time.Time{
		now.AddDate(0, 0, 5),  // outside [10,30]
		now.AddDate(0, 0, 12), // inside, diff from midpoint(20)=8
		now.AddDate(0, 0, 21), // inside, diff from midpoint(20)=1, closest
		now.AddDate(0, 0, 40), // outside
	}

	got, ok := pickExpiration(expirations, 10, 30, now)
	if !ok {
		t.Fatalf("expected an expiration found within range")
	}
	want := expirations[2]
	if !got.Equal(want) {
		t.Fatalf("expected the closest-to-midpoint expiration picked, got=%v want=%v", got, want)
	}
}

func TestPickExpiration_NoneInRange(t *testing.T) {
	now := time.Now()
	expirations := []time.Time{now.AddDate(0, 0, 1), now.AddDate(0, 0, 100)}

	_, ok := pickExpiration(expirations, 10, 30, now)
	if ok {
		t.Fatalf("expected no expiration found when none are in range")
	}
}

func TestPickContract_FiltersByCallPutAndDeltaBand(t *testing.T) {
	chain := []ports.OptionContract{
		{Symbol: "PUT", IsCall: false, Delta: -0.5},
		{Symbol: "CALL_LOW_DELTA", IsCall: true, Delta: 0.1},
		{Symbol: "CALL_IN_BAND", IsCall: true, Delta: 0.32},
		{Symbol: "CALL_TOO_HIGH", IsCall: true, Delta: 0.9},
	}

	got, ok := pickContract(chain, true, 0.3, 0.5)
	if !ok || got.Symbol != "CALL_IN_BAND" {
		t.Fatalf("expected CALL_IN_BAND selected, got=%+v ok=%v", got, ok)
	}
}

func TestPickContract_PicksClosestToBandMidpoint(t *testing.T) {
	chain := []ports.OptionContract{
		{Symbol: "A", IsCall: true, Delta: 0.32}, // diff from mid(0.4)=0.08
		{Symbol: "B", IsCall: true, Delta: 0.41}, // diff from mid(0.4)=0.01, closest
	}

	got, ok := pickContract(chain, true, 0.3, 0.5)
	if !ok || got.Symbol != "B" {
		t.Fatalf("expected contract B closest to the delta-band midpoint, got=%+v", got)
	}
}

func TestPickContract_NoneMatch(t *testing.T) {
	chain := []ports.OptionContract{{Symbol: "A", IsCall: false, Delta: 0.4}}
	_, ok := pickContract(chain, true, 0.3, 0.5)
	if ok {
		t.Fatalf("expected no match when every contract is the wrong side")
	}
}
