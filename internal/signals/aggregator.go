package signals

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/darkhorse-quant/sentinel-agent/internal/domain"
	"github.com/darkhorse-quant/sentinel-agent/internal/ports"
)

// DefaultSubreddits is the fixed subreddit set named in spec.md 4.2.
var DefaultSubreddits = []string{"wsb", "stocks", "investing", "options"}

// Aggregator runs every configured gatherer concurrently and merges the
// results into state.SignalCache, isolating each source's failure from the
// rest (spec.md 4.2, "each gatherer's failure is isolated").
type Aggregator struct {
	StockTwits ports.StockTwitsProvider
	Reddit     ports.RedditProvider
	Crypto     ports.CryptoSnapshotSource
	Validator  *Validator
	Subreddits []string
}

// Gather polls every source, normalizes into weighted Signals, appends them
// to state.SignalCache, and trims the cache to its TTL/size bound.
func (a *Aggregator) Gather(ctx context.Context, state *domain.AgentState, now time.Time) {
	cfg := state.Config
	subs := a.Subreddits
	if len(subs) == 0 {
		subs = DefaultSubreddits
	}

	var fresh []domain.Signal
	var mu sync.Mutex
	add := func(sig domain.Signal) { mu.Lock(); fresh = append(fresh, sig); mu.Unlock() }
	warn := func(msg string) { mu.Lock(); state.AppendLog("warn", msg); mu.Unlock() }
	g, gctx := errgroup.WithContext(ctx)

	if a.StockTwits != nil {
		g.Go(func() error {
			posts, err := a.StockTwits.Trending(gctx)
			if err != nil {
				warn("stocktwits_gather_failed: " + err.Error())
				return nil
			}
			for _, p := range posts {
				if !a.Validator.Valid(gctx, p.Symbol) {
					continue
				}
				add(buildSignal(cfg, p.Symbol, domain.SourceStockTwits, p.RawSentiment, 1, now, nil, nil, domain.FlairOther, nil, false))
			}
			return nil
		})
	}

	for _, sub := range subs {
		sub := sub
		if a.Reddit == nil {
			continue
		}
		g.Go(func() error {
			posts, err := a.Reddit.TopPosts(gctx, sub)
			if err != nil {
				warn("reddit_gather_failed " + sub + ": " + err.Error())
				return nil
			}
			for _, p := range posts {
				for _, sym := range ExtractTickers(p.Title+" "+p.Body, cfg.TickerBlacklist) {
					if !a.Validator.Valid(gctx, sym) {
						continue
					}
					upv, com := p.Upvotes, p.Comments
					add(buildSignal(cfg, sym, sourceForSubreddit(sub), sentimentFromFlair(domain.Flair(p.Flair)), float64(p.Upvotes+p.Comments), now, &upv, &com, domain.Flair(p.Flair), []string{sub}, false))
				}
			}
			return nil
		})
	}

	if a.Crypto != nil && cfg.CryptoEnabled {
		g.Go(func() error {
			movers, err := a.Crypto.TopMovers(gctx)
			if err != nil {
				warn("crypto_gather_failed: " + err.Error())
				return nil
			}
			for _, m := range movers {
				raw := clamp(m.PriceChangePct/20, -1, 1)
				price := m.Price
				add(buildSignal(cfg, m.Symbol, domain.SourceCrypto, raw, m.Volume24h, now, nil, nil, domain.FlairOther, nil, true, withPrice(price)))
			}
			return nil
		})
	}

	_ = g.Wait()

	state.SignalCache = append(state.SignalCache, fresh...)
	state.TrimSignalCache(now)
	state.LastDataGather = now
}

func sourceForSubreddit(sub string) domain.Source {
	switch sub {
	case "wsb":
		return domain.SourceWSB
	case "stocks":
		return domain.SourceStocks
	case "investing":
		return domain.SourceInvesting
	case "options":
		return domain.SourceOptions
	default:
		return domain.SourceWSB
	}
}

// sentimentFromFlair gives a flair-only post a starting raw sentiment
// before the flair multiplier is applied, since Reddit posts carry no
// explicit bullish/bearish tag the way StockTwits messages do.
func sentimentFromFlair(f domain.Flair) float64 {
	switch f {
	case domain.FlairGain:
		return 0.6
	case domain.FlairLoss:
		return -0.6
	case domain.FlairDD:
		return 0.3
	default:
		return 0.2
	}
}

type signalOpt func(*domain.Signal)

func withPrice(price float64) signalOpt {
	return func(s *domain.Signal) { s.Price = &price }
}

func buildSignal(cfg domain.Config, symbol string, source domain.Source, rawSentiment, volume float64, now time.Time, upvotes, comments *int, flair domain.Flair, subreddits []string, isCrypto bool, opts ...signalOpt) domain.Signal {
	freshness := domain.TimeDecay(0, cfg.DecayHalfLifeMinutes) // freshly observed this tick
	engagement := EngagementMultiplier(upvotes, comments)
	flairMult := domain.FlairMultiplier(flair)
	weighted := rawSentiment * domain.SourceWeight(source) * freshness * engagement * flairMult
	if weighted > 1 {
		weighted = 1
	}
	if weighted < -1 {
		weighted = -1
	}

	sig := domain.Signal{
		Symbol:       symbol,
		Source:       source,
		RawSentiment: rawSentiment,
		Sentiment:    weighted,
		Volume:       volume,
		Freshness:    freshness,
		Timestamp:    now,
		Upvotes:      upvotes,
		Comments:     comments,
		Flair:        flair,
		Subreddits:   subreddits,
		IsCrypto:     isCrypto,
	}
	for _, opt := range opts {
		opt(&sig)
	}
	return sig
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
