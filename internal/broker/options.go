package broker

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/darkhorse-quant/sentinel-agent/internal/ports"
)

// alpacaOptions implements ports.OptionsService over Alpaca's options
// chain/snapshot endpoints.
type alpacaOptions struct {
	trading *resty.Client
}

type alpacaOptionContract struct {
	Symbol           string `json:"symbol"`
	UnderlyingSymbol string `json:"underlying_symbol"`
	ExpirationDate   string `json:"expiration_date"`
	StrikePrice      string `json:"strike_price"`
	Type             string `json:"type"` // "call" | "put"
}

func (o *alpacaOptions) GetExpirations(ctx context.Context, underlying string) ([]time.Time, error) {
	var out struct {
		OptionContracts []alpacaOptionContract `json:"option_contracts"`
	}
	resp, err := o.trading.R().SetContext(ctx).SetResult(&out).
		SetQueryParam("underlying_symbols", underlying).
		Get("/v2/options/contracts")
	if err := checkResp(resp, err); err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var expirations []time.Time
	for _, c := range out.OptionContracts {
		if seen[c.ExpirationDate] {
			continue
		}
		seen[c.ExpirationDate] = true
		if t, err := time.Parse("2006-01-02", c.ExpirationDate); err == nil {
			expirations = append(expirations, t)
		}
	}
	return expirations, nil
}

func (o *alpacaOptions) GetChain(ctx context.Context, underlying string, expiration time.Time) ([]ports.OptionContract, error) {
	var out struct {
		OptionContracts []alpacaOptionContract `json:"option_contracts"`
	}
	resp, err := o.trading.R().SetContext(ctx).SetResult(&out).
		SetQueryParam("underlying_symbols", underlying).
		SetQueryParam("expiration_date", expiration.Format("2006-01-02")).
		Get("/v2/options/contracts")
	if err := checkResp(resp, err); err != nil {
		return nil, err
	}

	chain := make([]ports.OptionContract, 0, len(out.OptionContracts))
	for _, c := range out.OptionContracts {
		snap, err := o.GetSnapshot(ctx, c.Symbol)
		if err != nil {
			continue
		}
		chain = append(chain, snap)
	}
	return chain, nil
}

type alpacaOptionSnapshot struct {
	Snapshots map[string]struct {
		LatestQuote struct {
			BidPrice float64 `json:"bp"`
			AskPrice float64 `json:"ap"`
		} `json:"latestQuote"`
		Greeks struct {
			Delta float64 `json:"delta"`
		} `json:"greeks"`
	} `json:"snapshots"`
}

func (o *alpacaOptions) GetSnapshot(ctx context.Context, contractSymbol string) (ports.OptionContract, error) {
	var out alpacaOptionSnapshot
	resp, err := o.trading.R().SetContext(ctx).SetResult(&out).
		SetQueryParam("symbols", contractSymbol).
		Get("/v1beta1/options/snapshots")
	if err := checkResp(resp, err); err != nil {
		return ports.OptionContract{}, err
	}
	s, ok := out.Snapshots[contractSymbol]
	if !ok {
		return ports.OptionContract{}, errContractNotFound(contractSymbol)
	}

	underlying, expiration, strike, isCall := parseOSIContractSymbol(contractSymbol)
	mid := (s.LatestQuote.BidPrice + s.LatestQuote.AskPrice) / 2

	return ports.OptionContract{
		Symbol:     contractSymbol,
		Underlying: underlying,
		Expiration: expiration,
		Strike:     strike,
		IsCall:     isCall,
		Delta:      s.Greeks.Delta,
		Bid:        s.LatestQuote.BidPrice,
		Ask:        s.LatestQuote.AskPrice,
		Mid:        mid,
	}, nil
}
