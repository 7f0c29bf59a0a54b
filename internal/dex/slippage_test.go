package dex

import "testing"

func TestSlippage_NoneModelIsAlwaysZero(t *testing.T) {
	if s := Slippage(SlippageNone, 50_000, 10_000); s != 0 {
		t.Fatalf("none model got slippage=%v, want 0", s)
	}
}

func TestSlippage_NonDecreasingInPositionSize(t *testing.T) {
	small := Slippage(SlippageRealistic, 1_000, 20_000)
	large := Slippage(SlippageRealistic, 10_000, 20_000)
	if large < small {
		t.Fatalf("slippage must be non-decreasing in position size: small=%v large=%v", small, large)
	}
}

func TestSlippage_CappedAtMax(t *testing.T) {
	s := Slippage(SlippageRealistic, 1_000_000, 1_000)
	if s != maxSlippage {
		t.Fatalf("got %v, want cap %v", s, maxSlippage)
	}
}

func TestSlippage_UnknownModelDefaultsToRealistic(t *testing.T) {
	got := Slippage(SlippageModel("bogus"), 5_000, 10_000)
	want := Slippage(SlippageRealistic, 5_000, 10_000)
	if got != want {
		t.Fatalf("unknown model got=%v, want fallback to realistic=%v", got, want)
	}
}

func TestSlippage_TinyLiquidityFloorsAtOne(t *testing.T) {
	s := Slippage(SlippageConservative, 100, 0)
	if s <= 0 || s > maxSlippage {
		t.Fatalf("expected a clamped, positive slippage for zero liquidity, got %v", s)
	}
}

func TestApplyBuySlippage_InflatesPrice(t *testing.T) {
	price := 1.0
	exec := ApplyBuySlippage(price, SlippageRealistic, 5_000, 20_000)
	if exec <= price {
		t.Fatalf("buy slippage should inflate price above %v, got %v", price, exec)
	}
}

func TestApplySellSlippage_DeflatesPrice(t *testing.T) {
	price := 1.0
	exec := ApplySellSlippage(price, SlippageRealistic, 5_000, 20_000)
	if exec >= price {
		t.Fatalf("sell slippage should deflate price below %v, got %v", price, exec)
	}
}

func TestParseSlippageModel(t *testing.T) {
	cases := map[string]SlippageModel{
		"none":         SlippageNone,
		"conservative": SlippageConservative,
		"realistic":    SlippageRealistic,
		"garbage":      SlippageRealistic,
		"":             SlippageRealistic,
	}
	for in, want := range cases {
		if got := ParseSlippageModel(in); got != want {
			t.Fatalf("ParseSlippageModel(%q) = %v, want %v", in, got, want)
		}
	}
}
