// Package broker implements ports.Broker: AlpacaBroker talks to the real
// Alpaca Markets REST API for account, position, and market-data calls;
// PaperBroker layers an in-memory paper ledger on top of any MarketData
// source so DryRun mode never touches a live order endpoint.
package broker

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/darkhorse-quant/sentinel-agent/internal/ports"
	"github.com/darkhorse-quant/sentinel-agent/internal/risk"
)

// AlpacaBroker is a resty client over the Alpaca Markets trading and market
// data REST APIs. Order submission is gated by a CircuitBreaker so a run of
// rejected orders halts live trading instead of hammering the venue.
type AlpacaBroker struct {
	trading *resty.Client
	data    *resty.Client
	breaker *risk.CircuitBreaker
}

// New returns an AlpacaBroker. tradingBaseURL is either the paper or live
// trading endpoint; dataBaseURL is Alpaca's market-data endpoint.
func New(tradingBaseURL, dataBaseURL, keyID, secretKey string, breaker *risk.CircuitBreaker) *AlpacaBroker {
	newClient := func(base string) *resty.Client {
		return resty.New().
			SetBaseURL(base).
			SetTimeout(15*time.Second).
			SetRetryCount(2).
			SetRetryWaitTime(500*time.Millisecond).
			SetHeader("APCA-API-KEY-ID", keyID).
			SetHeader("APCA-API-SECRET-KEY", secretKey)
	}
	return &AlpacaBroker{
		trading: newClient(tradingBaseURL),
		data:    newClient(dataBaseURL),
		breaker: breaker,
	}
}

type alpacaAccount struct {
	Cash          string `json:"cash"`
	Equity        string `json:"equity"`
	DaytradeCount int    `json:"daytrade_count"`
}

func (b *AlpacaBroker) GetAccount(ctx context.Context) (ports.Account, error) {
	var out alpacaAccount
	resp, err := b.trading.R().SetContext(ctx).SetResult(&out).Get("/v2/account")
	if err := checkResp(resp, err); err != nil {
		return ports.Account{}, err
	}
	return ports.Account{
		Cash:          parseFloat(out.Cash),
		Equity:        parseFloat(out.Equity),
		DaytradeCount: out.DaytradeCount,
	}, nil
}

type alpacaPosition struct {
	Symbol         string `json:"symbol"`
	Qty            string `json:"qty"`
	MarketValue    string `json:"market_value"`
	CurrentPrice   string `json:"current_price"`
	UnrealizedPL   string `json:"unrealized_pl"`
	UnrealizedPLPC string `json:"unrealized_plpc"`
	AvgEntryPrice  string `json:"avg_entry_price"`
	AssetClass     string `json:"asset_class"`
}

func (b *AlpacaBroker) GetPositions(ctx context.Context) ([]ports.Position, error) {
	var out []alpacaPosition
	resp, err := b.trading.R().SetContext(ctx).SetResult(&out).Get("/v2/positions")
	if err := checkResp(resp, err); err != nil {
		return nil, err
	}
	positions := make([]ports.Position, 0, len(out))
	for _, p := range out {
		positions = append(positions, ports.Position{
			Symbol:         p.Symbol,
			Qty:            parseFloat(p.Qty),
			MarketValue:    parseFloat(p.MarketValue),
			CurrentPrice:   parseFloat(p.CurrentPrice),
			UnrealizedPL:   parseFloat(p.UnrealizedPL),
			UnrealizedPLPc: parseFloat(p.UnrealizedPLPC),
			AvgEntryPrice:  parseFloat(p.AvgEntryPrice),
			AssetClass:     p.AssetClass,
		})
	}
	return positions, nil
}

type alpacaClock struct {
	Timestamp time.Time `json:"timestamp"`
	IsOpen    bool      `json:"is_open"`
	NextOpen  time.Time `json:"next_open"`
	NextClose time.Time `json:"next_close"`
}

func (b *AlpacaBroker) GetClock(ctx context.Context) (ports.Clock, error) {
	var out alpacaClock
	resp, err := b.trading.R().SetContext(ctx).SetResult(&out).Get("/v2/clock")
	if err := checkResp(resp, err); err != nil {
		return ports.Clock{}, err
	}
	return ports.Clock{
		Timestamp: out.Timestamp,
		IsOpen:    out.IsOpen,
		NextOpen:  out.NextOpen,
		NextClose: out.NextClose,
	}, nil
}

type alpacaAsset struct {
	Symbol   string `json:"symbol"`
	Exchange string `json:"exchange"`
	Tradable bool   `json:"tradable"`
	Class    string `json:"class"`
}

func (b *AlpacaBroker) GetAsset(ctx context.Context, symbol string) (ports.Asset, error) {
	var out alpacaAsset
	resp, err := b.trading.R().SetContext(ctx).SetResult(&out).Get("/v2/assets/" + symbol)
	if err := checkResp(resp, err); err != nil {
		return ports.Asset{}, err
	}
	return ports.Asset{
		Symbol:   out.Symbol,
		Exchange: out.Exchange,
		Tradable: out.Tradable,
		IsCrypto: out.Class == "crypto",
	}, nil
}

type alpacaTrade struct {
	Trade struct {
		Price     float64   `json:"p"`
		Timestamp time.Time `json:"t"`
	} `json:"trade"`
}

func (b *AlpacaBroker) GetSnapshot(ctx context.Context, symbol string) (ports.Snapshot, error) {
	var out alpacaTrade
	resp, err := b.data.R().SetContext(ctx).SetResult(&out).Get("/v2/stocks/" + symbol + "/trades/latest")
	if err := checkResp(resp, err); err != nil {
		return ports.Snapshot{}, err
	}
	return ports.Snapshot{Symbol: symbol, Price: out.Trade.Price, Timestamp: out.Trade.Timestamp}, nil
}

type alpacaCryptoTrade struct {
	Trades map[string]struct {
		Price     float64   `json:"p"`
		Timestamp time.Time `json:"t"`
	} `json:"trades"`
}

func (b *AlpacaBroker) GetCryptoSnapshot(ctx context.Context, symbol string) (ports.Snapshot, error) {
	var out alpacaCryptoTrade
	resp, err := b.data.R().SetContext(ctx).SetResult(&out).
		SetQueryParam("symbols", symbol).
		Get("/v1beta3/crypto/us/latest/trades")
	if err := checkResp(resp, err); err != nil {
		return ports.Snapshot{}, err
	}
	t, ok := out.Trades[symbol]
	if !ok {
		return ports.Snapshot{}, fmt.Errorf("no crypto trade for %s", symbol)
	}
	return ports.Snapshot{Symbol: symbol, Price: t.Price, Timestamp: t.Timestamp}, nil
}

type alpacaOrderRequest struct {
	Symbol      string `json:"symbol"`
	Notional    string `json:"notional,omitempty"`
	Qty         string `json:"qty,omitempty"`
	Side        string `json:"side"`
	Type        string `json:"type"`
	LimitPrice  string `json:"limit_price,omitempty"`
	TimeInForce string `json:"time_in_force"`
}

type alpacaOrderResponse struct {
	ID             string    `json:"id"`
	Symbol         string    `json:"symbol"`
	Side           string    `json:"side"`
	Status         string    `json:"status"`
	FilledQty      string    `json:"filled_qty"`
	FilledAvgPrice string    `json:"filled_avg_price"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

// CreateOrder submits a live order, refusing to even attempt it while the
// circuit breaker is tripped (risk.ErrCircuitBreakerOpen) — consecutive
// venue-side rejections should stop the agent from live-trading blind, not
// just log and keep going.
func (b *AlpacaBroker) CreateOrder(ctx context.Context, req ports.OrderRequest) (ports.Order, error) {
	if err := b.breaker.AllowTrading(); err != nil {
		return ports.Order{}, err
	}

	body := alpacaOrderRequest{
		Symbol:      req.Symbol,
		Side:        string(req.Side),
		Type:        string(req.Type),
		TimeInForce: string(req.TimeInForce),
	}
	if req.Notional > 0 {
		body.Notional = formatFloat(req.Notional)
	}
	if req.Qty > 0 {
		body.Qty = formatFloat(req.Qty)
	}
	if req.LimitPrice != nil {
		body.LimitPrice = formatFloat(*req.LimitPrice)
	}

	var out alpacaOrderResponse
	resp, err := b.trading.R().SetContext(ctx).SetBody(body).SetResult(&out).Post("/v2/orders")
	if err := checkResp(resp, err); err != nil {
		b.breaker.OnError()
		return ports.Order{}, err
	}
	b.breaker.OnSuccess()

	return ports.Order{
		ID:          out.ID,
		Symbol:      out.Symbol,
		Side:        ports.OrderSide(out.Side),
		Status:      out.Status,
		FilledQty:   parseFloat(out.FilledQty),
		FilledPrice: parseFloat(out.FilledAvgPrice),
		SubmittedAt: out.SubmittedAt,
	}, nil
}

func (b *AlpacaBroker) ClosePosition(ctx context.Context, symbol string) error {
	if err := b.breaker.AllowTrading(); err != nil {
		return err
	}
	resp, err := b.trading.R().SetContext(ctx).Delete("/v2/positions/" + symbol)
	if err := checkResp(resp, err); err != nil {
		b.breaker.OnError()
		return err
	}
	b.breaker.OnSuccess()
	return nil
}

func (b *AlpacaBroker) Options() ports.OptionsService {
	return &alpacaOptions{trading: b.trading}
}

func checkResp(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if resp.IsError() {
		return errors.Errorf("alpaca request failed: %s: %s", resp.Status(), string(resp.Body()))
	}
	return nil
}

func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	var f float64
	_, _ = fmt.Sscanf(s, "%f", &f)
	return f
}

func formatFloat(f float64) string {
	return fmt.Sprintf("%g", f)
}
