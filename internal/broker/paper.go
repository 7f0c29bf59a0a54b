package broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/darkhorse-quant/sentinel-agent/internal/ports"
)

// MarketData is the subset of ports.Broker PaperBroker delegates rather
// than fakes: quotes, venue metadata, the market clock, and the options
// chain. A paper account has no real fills or positions of its own, but it
// still needs real prices to mark them.
type MarketData interface {
	GetClock(ctx context.Context) (ports.Clock, error)
	GetAsset(ctx context.Context, symbol string) (ports.Asset, error)
	GetSnapshot(ctx context.Context, symbol string) (ports.Snapshot, error)
	GetCryptoSnapshot(ctx context.Context, symbol string) (ports.Snapshot, error)
	Options() ports.OptionsService
}

type paperPosition struct {
	Qty           float64
	AvgEntryPrice float64
	IsCrypto      bool
}

// PaperBroker is an in-memory fill simulator implementing ports.Broker. It
// is the default execution path (spec.md 1 "paper or live orders";
// domain.Config.DryRun defaults true) — orders fill instantly at the
// current snapshot price with no slippage model of their own (the DEX
// engine owns slippage modeling for its own venue; equities paper-fill
// clean, matching a real small-notional marketable order).
type PaperBroker struct {
	Data MarketData

	mu        sync.Mutex
	cash      float64
	positions map[string]*paperPosition
	orderSeq  int64
}

// NewPaperBroker returns a PaperBroker seeded with startingCash.
func NewPaperBroker(data MarketData, startingCash float64) *PaperBroker {
	return &PaperBroker{
		Data:      data,
		cash:      startingCash,
		positions: make(map[string]*paperPosition),
	}
}

func (b *PaperBroker) GetAccount(ctx context.Context) (ports.Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	equity := b.cash
	for symbol, pos := range b.positions {
		price := b.markPrice(ctx, symbol, pos.IsCrypto)
		equity += pos.Qty * price
	}
	return ports.Account{Cash: b.cash, Equity: equity, DaytradeCount: b.countDaytrades()}, nil
}

func (b *PaperBroker) GetPositions(ctx context.Context) ([]ports.Position, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]ports.Position, 0, len(b.positions))
	for symbol, pos := range b.positions {
		price := b.markPrice(ctx, symbol, pos.IsCrypto)
		marketValue := pos.Qty * price
		unrealized := marketValue - pos.Qty*pos.AvgEntryPrice
		plPct := 0.0
		if pos.AvgEntryPrice != 0 {
			plPct = (price - pos.AvgEntryPrice) / pos.AvgEntryPrice * 100
		}
		class := "us_equity"
		if pos.IsCrypto {
			class = "crypto"
		}
		out = append(out, ports.Position{
			Symbol:         symbol,
			Qty:            pos.Qty,
			MarketValue:    marketValue,
			CurrentPrice:   price,
			UnrealizedPL:   unrealized,
			UnrealizedPLPc: plPct,
			AvgEntryPrice:  pos.AvgEntryPrice,
			AssetClass:     class,
		})
	}
	return out, nil
}

func (b *PaperBroker) markPrice(ctx context.Context, symbol string, isCrypto bool) float64 {
	var snap ports.Snapshot
	var err error
	if isCrypto {
		snap, err = b.Data.GetCryptoSnapshot(ctx, symbol)
	} else {
		snap, err = b.Data.GetSnapshot(ctx, symbol)
	}
	if err != nil {
		return 0
	}
	return snap.Price
}

// countDaytrades is a conservative stand-in for Alpaca's real rolling
// 5-day day-trade counter: a paper account has no trade-confirmation feed
// to derive it from, so it always reports 0, which for the PDT guard
// (internal/equity/pdt.go) means "never blocked by day-trade count" —
// equivalent to running under the $25k PDT-exempt threshold.
func (b *PaperBroker) countDaytrades() int {
	return 0
}

func (b *PaperBroker) GetClock(ctx context.Context) (ports.Clock, error) {
	return b.Data.GetClock(ctx)
}

func (b *PaperBroker) GetAsset(ctx context.Context, symbol string) (ports.Asset, error) {
	return b.Data.GetAsset(ctx, symbol)
}

func (b *PaperBroker) GetSnapshot(ctx context.Context, symbol string) (ports.Snapshot, error) {
	return b.Data.GetSnapshot(ctx, symbol)
}

func (b *PaperBroker) GetCryptoSnapshot(ctx context.Context, symbol string) (ports.Snapshot, error) {
	return b.Data.GetCryptoSnapshot(ctx, symbol)
}

func (b *PaperBroker) Options() ports.OptionsService {
	return b.Data.Options()
}

// CreateOrder fills a market/limit order immediately at the current
// snapshot price (limit orders that would not fill in reality still fill
// here — the paper ledger optimizes for trading-logic fidelity, not
// execution-quality simulation).
func (b *PaperBroker) CreateOrder(ctx context.Context, req ports.OrderRequest) (ports.Order, error) {
	asset, err := b.Data.GetAsset(ctx, req.Symbol)
	if err != nil {
		return ports.Order{}, err
	}
	price := b.markPrice(ctx, req.Symbol, asset.IsCrypto)
	if price <= 0 {
		return ports.Order{}, fmt.Errorf("no price available for %s", req.Symbol)
	}

	qty := req.Qty
	if req.Notional > 0 {
		qty = req.Notional / price
	}
	if qty <= 0 {
		return ports.Order{}, fmt.Errorf("invalid order quantity for %s", req.Symbol)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	signedQty := qty
	if req.Side == ports.Sell {
		signedQty = -qty
	}
	notional := qty * price

	pos, held := b.positions[req.Symbol]
	switch req.Side {
	case ports.Buy:
		if notional > b.cash {
			return ports.Order{}, fmt.Errorf("insufficient paper cash for %s", req.Symbol)
		}
		b.cash -= notional
		if !held {
			pos = &paperPosition{IsCrypto: asset.IsCrypto}
			b.positions[req.Symbol] = pos
		}
		newQty := pos.Qty + qty
		pos.AvgEntryPrice = (pos.AvgEntryPrice*pos.Qty + price*qty) / newQty
		pos.Qty = newQty
	case ports.Sell:
		if !held || pos.Qty < qty {
			return ports.Order{}, fmt.Errorf("no sufficient paper position to sell %s", req.Symbol)
		}
		b.cash += notional
		pos.Qty += signedQty
		if pos.Qty <= 1e-9 {
			delete(b.positions, req.Symbol)
		}
	}

	b.orderSeq++
	return ports.Order{
		ID:          fmt.Sprintf("paper-%d", b.orderSeq),
		Symbol:      req.Symbol,
		Side:        req.Side,
		Status:      "filled",
		FilledQty:   qty,
		FilledPrice: price,
		SubmittedAt: time.Now(),
	}, nil
}

func (b *PaperBroker) ClosePosition(ctx context.Context, symbol string) error {
	b.mu.Lock()
	pos, held := b.positions[symbol]
	b.mu.Unlock()
	if !held {
		return fmt.Errorf("no paper position open for %s", symbol)
	}
	_, err := b.CreateOrder(ctx, ports.OrderRequest{
		Symbol:      symbol,
		Qty:         pos.Qty,
		Side:        ports.Sell,
		Type:        ports.OrderMarket,
		TimeInForce: ports.TIFDay,
	})
	return err
}
