package signals

import (
	"context"
	"testing"

	"github.com/darkhorse-quant/sentinel-agent/internal/ports"
)

func TestExtractTickers_DollarSignForm(t *testing.T) {
	got := ExtractTickers("just bought some $GME and $AMC today", nil)
	want := []string{"GME", "AMC"}
	if !sliceEq(got, want) {
		t.Fatalf("got=%v want=%v", got, want)
	}
}

func TestExtractTickers_BareFormRequiresTradingKeyword(t *testing.T) {
	got := ExtractTickers("TSLA calls are printing", nil)
	if !contains(got, "TSLA") {
		t.Fatalf("expected TSLA extracted from bare form, got %v", got)
	}

	got = ExtractTickers("the CEO crushed it this quarter", nil)
	if contains(got, "CEO") {
		t.Fatalf("CEO is blacklisted noise, must not be extracted, got %v", got)
	}
}

func TestExtractTickers_DropsBlacklistedNoiseWords(t *testing.T) {
	got := ExtractTickers("$YOLO into this one, $WSB is hyped", nil)
	if contains(got, "YOLO") || contains(got, "WSB") {
		t.Fatalf("expected static blacklist words dropped, got %v", got)
	}
}

func TestExtractTickers_RespectsUserBlacklist(t *testing.T) {
	got := ExtractTickers("$GME to the moon", []string{"gme"})
	if contains(got, "GME") {
		t.Fatalf("expected user blacklist (case-insensitive) to drop GME, got %v", got)
	}
}

func TestExtractTickers_DedupesRepeats(t *testing.T) {
	got := ExtractTickers("$GME $GME $GME all day", nil)
	count := 0
	for _, s := range got {
		if s == "GME" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected GME deduplicated to one entry, got %d in %v", count, got)
	}
}

type fakeBroker struct {
	assets map[string]ports.Asset
	err    error
}

func (f *fakeBroker) GetAccount(ctx context.Context) (ports.Account, error) {
	return ports.Account{}, nil
}
func (f *fakeBroker) GetPositions(ctx context.Context) ([]ports.Position, error) {
	return nil, nil
}
func (f *fakeBroker) GetClock(ctx context.Context) (ports.Clock, error) { return ports.Clock{}, nil }
func (f *fakeBroker) GetAsset(ctx context.Context, symbol string) (ports.Asset, error) {
	if f.err != nil {
		return ports.Asset{}, f.err
	}
	return f.assets[symbol], nil
}
func (f *fakeBroker) GetSnapshot(ctx context.Context, symbol string) (ports.Snapshot, error) {
	return ports.Snapshot{}, nil
}
func (f *fakeBroker) GetCryptoSnapshot(ctx context.Context, symbol string) (ports.Snapshot, error) {
	return ports.Snapshot{}, nil
}
func (f *fakeBroker) CreateOrder(ctx context.Context, req ports.OrderRequest) (ports.Order, error) {
	return ports.Order{}, nil
}
func (f *fakeBroker) ClosePosition(ctx context.Context, symbol string) error { return nil }
func (f *fakeBroker) Options() ports.OptionsService                          { return nil }

func TestValidator_SecKnownShortCircuitsBroker(t *testing.T) {
	v := NewValidator(&fakeBroker{}, []string{"AAPL"})
	if !v.Valid(context.Background(), "aapl") {
		t.Fatalf("expected a SEC-known symbol to validate without a broker call")
	}
}

func TestValidator_FallsBackToBrokerAsset(t *testing.T) {
	fb := &fakeBroker{assets: map[string]ports.Asset{"ABCD": {Symbol: "ABCD", Tradable: true}}}
	v := NewValidator(fb, nil)
	if !v.Valid(context.Background(), "abcd") {
		t.Fatalf("expected broker-tradable asset to validate")
	}
}

func TestValidator_BrokerErrorTreatedAsInvalid(t *testing.T) {
	fb := &fakeBroker{err: context.DeadlineExceeded}
	v := NewValidator(fb, nil)
	if v.Valid(context.Background(), "ZZZZ") {
		t.Fatalf("a broker lookup failure should read as invalid, not cached-valid")
	}
}

func TestValidator_CachesBrokerResult(t *testing.T) {
	fb := &fakeBroker{assets: map[string]ports.Asset{"ABCD": {Symbol: "ABCD", Tradable: true}}}
	v := NewValidator(fb, nil)

	first := v.Valid(context.Background(), "abcd")
	fb.assets["ABCD"] = ports.Asset{Symbol: "ABCD", Tradable: false}
	second := v.Valid(context.Background(), "abcd")

	if !first || !second {
		t.Fatalf("expected the cached validity to stick despite the broker flipping, first=%v second=%v", first, second)
	}
}

func sliceEq(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func contains(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
