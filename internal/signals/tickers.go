// Package signals implements signal acquisition and scoring (spec.md 4.2):
// per-source gathering, ticker extraction/validation, and the weighted-
// sentiment pipeline.
package signals

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/darkhorse-quant/sentinel-agent/internal/ports"
	"github.com/darkhorse-quant/sentinel-agent/pkg/cache"
)

// tradingKeywords gates the bare (no "$") ticker form so "CEO crushed it"
// doesn't get read as a ticker named CEO — only a capitalized word directly
// followed by one of these is treated as a candidate symbol.
var tradingKeywords = []string{
	"calls?", "puts?", "shares?", "stock", "moon", "yolo", "long", "short",
}

// tickerPattern matches "$SYM" or a bare 2-5 letter uppercase word directly
// followed by one of tradingKeywords — the bare form exists because most
// WSB/StockTwits posts never bother with the dollar sign.
var tickerPattern = regexp.MustCompile(`\$([A-Z]{2,5})\b|\b([A-Z]{2,5})\b\s+(?:` + strings.Join(tradingKeywords, "|") + `)\b`)

// englishWordBlacklist is the static noise list of common short uppercase
// English words and trading slang that collide with real ticker symbols.
var englishWordBlacklist = map[string]bool{
	"THE": true, "FOR": true, "AND": true, "ARE": true, "YOU": true,
	"ALL": true, "NOT": true, "BUT": true, "CAN": true, "HAS": true,
	"WAS": true, "HIS": true, "HER": true, "ITS": true, "OUR": true,
	"OUT": true, "NEW": true, "NOW": true, "GET": true, "GOT": true,
	"SEE": true, "USE": true, "WAY": true, "WHO": true, "WHY": true,
	"YES": true, "YET": true, "BIG": true, "LOW": true, "TOP": true,
	"CEO": true, "CFO": true, "IPO": true, "ATH": true, "ATL": true,
	"USD": true, "USA": true, "EOD": true, "EOW": true, "FOMO": true,
	"DD": true, "PT": true, "IMO": true, "TBH": true, "WSB": true,
	"YOLO": true, "HODL": true, "RIP": true, "LOL": true, "OMG": true,
}

// ExtractTickers pulls every candidate symbol out of text, filtering the
// static blacklist and the caller-supplied user blacklist. Length is
// constrained to 2-5 characters per spec.md 4.2.
func ExtractTickers(text string, userBlacklist []string) []string {
	userSet := make(map[string]bool, len(userBlacklist))
	for _, t := range userBlacklist {
		userSet[strings.ToUpper(t)] = true
	}

	seen := map[string]bool{}
	var out []string
	for _, m := range tickerPattern.FindAllStringSubmatch(text, -1) {
		sym := m[1]
		if sym == "" {
			sym = m[2]
		}
		sym = strings.ToUpper(sym)
		if len(sym) < 2 || len(sym) > 5 {
			continue
		}
		if englishWordBlacklist[sym] || userSet[sym] || seen[sym] {
			continue
		}
		seen[sym] = true
		out = append(out, sym)
	}
	return out
}

// tickerCacheTTL is the 24h re-validation window named in spec.md 4.2.
const tickerCacheTTL = 24 * time.Hour

// Validator caches ticker validity for tickerCacheTTL (24h), checking a
// known-good set first and falling back to a broker asset lookup (which is
// itself cached) for anything unrecognized.
type Validator struct {
	broker   ports.Broker
	secKnown map[string]bool
	cache    *cache.InMemoryCache[string, bool]
}

// NewValidator seeds the validator with a static SEC-known ticker set and
// wires broker lookups for everything else.
func NewValidator(broker ports.Broker, secKnown []string) *Validator {
	known := make(map[string]bool, len(secKnown))
	for _, s := range secKnown {
		known[strings.ToUpper(s)] = true
	}
	return &Validator{
		broker:   broker,
		secKnown: known,
		cache:    cache.NewInMemoryCache[string, bool](tickerCacheTTL),
	}
}

// Valid reports whether symbol is a real, tradable ticker. A broker lookup
// failure reads as invalid for that call but is not cached, so a transient
// data outage does not blacklist a real symbol for the cache TTL.
func (v *Validator) Valid(ctx context.Context, symbol string) bool {
	symbol = strings.ToUpper(symbol)
	if v.secKnown[symbol] {
		return true
	}
	if ok, found := v.cache.Get(symbol); found {
		return ok
	}
	asset, err := v.broker.GetAsset(ctx, symbol)
	if err != nil {
		return false
	}
	valid := asset.Tradable
	v.cache.Set(symbol, valid, tickerCacheTTL)
	return valid
}
