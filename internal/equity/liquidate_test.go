package equity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/darkhorse-quant/sentinel-agent/internal/domain"
	"github.com/darkhorse-quant/sentinel-agent/internal/ports"
)

type liquidateFakeBroker struct {
	positions   []ports.Position
	getErr      error
	closeErrFor map[string]error
	closed      []string
}

func (f *liquidateFakeBroker) GetAccount(ctx context.Context) (ports.Account, error) {
	return ports.Account{}, nil
}
func (f *liquidateFakeBroker) GetPositions(ctx context.Context) ([]ports.Position, error) {
	return f.positions, f.getErr
}
func (f *liquidateFakeBroker) GetClock(ctx context.Context) (ports.Clock, error) {
	return ports.Clock{}, nil
}
func (f *liquidateFakeBroker) GetAsset(ctx context.Context, symbol string) (ports.Asset, error) {
	return ports.Asset{}, nil
}
func (f *liquidateFakeBroker) GetSnapshot(ctx context.Context, symbol string) (ports.Snapshot, error) {
	return ports.Snapshot{}, nil
}
func (f *liquidateFakeBroker) GetCryptoSnapshot(ctx context.Context, symbol string) (ports.Snapshot, error) {
	return ports.Snapshot{}, nil
}
func (f *liquidateFakeBroker) CreateOrder(ctx context.Context, req ports.OrderRequest) (ports.Order, error) {
	return ports.Order{}, nil
}
func (f *liquidateFakeBroker) ClosePosition(ctx context.Context, symbol string) error {
	if err, ok := f.closeErrFor[symbol]; ok {
		return err
	}
	f.closed = append(f.closed, symbol)
	return nil
}
func (f *liquidateFakeBroker) Options() ports.OptionsService { return nil }

type fakeNotifier struct {
	notified []string
}

func (f *fakeNotifier) Notify(ctx context.Context, key, message string) {
	f.notified = append(f.notified, key)
}

func TestLiquidateAll_ClosesEveryPositionAndClearsBookkeeping(t *testing.T) {
	broker := &liquidateFakeBroker{positions: []ports.Position{{Symbol: "AAPL"}, {Symbol: "TSLA"}}}
	notifier := &fakeNotifier{}
	state := domain.NewAgentState(domain.Default())
	state.PositionEntries["AAPL"] = &domain.PositionEntry{Symbol: "AAPL"}
	state.PositionEntries["TSLA"] = &domain.PositionEntry{Symbol: "TSLA"}
	state.OptionPositions["AAPL"] = &domain.OptionPosition{Underlying: "AAPL"}

	LiquidateAll(context.Background(), broker, notifier, state, time.Now())

	if len(broker.closed) != 2 {
		t.Fatalf("expected both positions closed, got %v", broker.closed)
	}
	if len(state.PositionEntries) != 0 {
		t.Fatalf("expected PositionEntries cleared, got %v", state.PositionEntries)
	}
	if len(state.OptionPositions) != 0 {
		t.Fatalf("expected OptionPositions cleared, got %v", state.OptionPositions)
	}
	if len(notifier.notified) != 2 {
		t.Fatalf("expected a notification per closed equity position, got %v", notifier.notified)
	}
}

func TestLiquidateAll_GetPositionsErrorLeavesStateUntouched(t *testing.T) {
	broker := &liquidateFakeBroker{getErr: errors.New("boom")}
	state := domain.NewAgentState(domain.Default())
	state.PositionEntries["AAPL"] = &domain.PositionEntry{Symbol: "AAPL"}

	LiquidateAll(context.Background(), broker, nil, state, time.Now())

	if len(state.PositionEntries) != 1 {
		t.Fatalf("expected PositionEntries untouched on a fetch error, got %v", state.PositionEntries)
	}
}

func TestLiquidateAll_CloseFailureSkipsBookkeepingForThatSymbol(t *testing.T) {
	broker := &liquidateFakeBroker{
		positions:   []ports.Position{{Symbol: "AAPL"}, {Symbol: "TSLA"}},
		closeErrFor: map[string]error{"AAPL": errors.New("rejected")},
	}
	state := domain.NewAgentState(domain.Default())
	state.PositionEntries["AAPL"] = &domain.PositionEntry{Symbol: "AAPL"}
	state.PositionEntries["TSLA"] = &domain.PositionEntry{Symbol: "TSLA"}

	LiquidateAll(context.Background(), broker, nil, state, time.Now())

	if _, stillThere := state.PositionEntries["AAPL"]; !stillThere {
		t.Fatalf("expected AAPL's bookkeeping preserved after a failed close")
	}
	if _, stillThere := state.PositionEntries["TSLA"]; stillThere {
		t.Fatalf("expected TSLA's bookkeeping cleared after a successful close")
	}
}

func TestLiquidateAll_NilNotifierIsSafe(t *testing.T) {
	broker := &liquidateFakeBroker{positions: []ports.Position{{Symbol: "AAPL"}}}
	state := domain.NewAgentState(domain.Default())
	state.PositionEntries["AAPL"] = &domain.PositionEntry{Symbol: "AAPL"}

	LiquidateAll(context.Background(), broker, nil, state, time.Now())

	if len(broker.closed) != 1 {
		t.Fatalf("expected the close to still happen with a nil notifier, got %v", broker.closed)
	}
}
