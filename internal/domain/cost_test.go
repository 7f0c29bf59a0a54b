package domain

import "testing"

func TestCostTracker_RecordKnownModelRate(t *testing.T) {
	c := NewCostTracker()
	cost := c.Record("gpt-4o", 1_000_000, 1_000_000)

	want := 2.5 + 10.0
	if cost != want {
		t.Fatalf("got=%v want=%v", cost, want)
	}
	if c.TotalUSD != want {
		t.Fatalf("expected TotalUSD=%v, got %v", want, c.TotalUSD)
	}
	usage := c.ByModel["gpt-4o"]
	if usage == nil || usage.Calls != 1 || usage.PromptTokens != 1_000_000 {
		t.Fatalf("expected model usage tracked, got %+v", usage)
	}
}

func TestCostTracker_UnknownModelDefaultsToMiniRate(t *testing.T) {
	c := NewCostTracker()
	got := c.Record("some-future-model", 1_000_000, 1_000_000)
	want := 0.15 + 0.6
	if got != want {
		t.Fatalf("got=%v want=%v", got, want)
	}
}

func TestCostTracker_AccumulatesAcrossCalls(t *testing.T) {
	c := NewCostTracker()
	c.Record("gpt-4o-mini", 1_000_000, 0)
	c.Record("gpt-4o-mini", 1_000_000, 0)

	if c.ByModel["gpt-4o-mini"].Calls != 2 {
		t.Fatalf("expected 2 calls recorded, got %d", c.ByModel["gpt-4o-mini"].Calls)
	}
	want := 2 * 0.15
	if c.TotalUSD != want {
		t.Fatalf("got=%v want=%v", c.TotalUSD, want)
	}
}

func TestCostTracker_NilByModelMapIsInitialized(t *testing.T) {
	c := &CostTracker{}
	c.Record("gpt-4o-mini", 1, 1)
	if c.ByModel == nil {
		t.Fatalf("expected ByModel to be lazily initialized")
	}
}
