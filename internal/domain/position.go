package domain

import "time"

// PositionEntry is the book-keeping record the agent keeps alongside a live
// broker position for an equity or crypto symbol. It is created on buy and
// destroyed on sell or stale-exit (spec.md 3).
type PositionEntry struct {
	Symbol            string
	EntryTime         time.Time
	EntryPrice        float64
	EntrySentiment    float64
	EntrySocialVolume float64
	EntrySources      []Source
	EntryReason       string
	PeakPrice         float64
	PeakSentiment     float64
}

// UpdatePeaks advances the high-water marks; it never moves them backwards.
func (p *PositionEntry) UpdatePeaks(price, sentiment float64) {
	if price > p.PeakPrice {
		p.PeakPrice = price
	}
	if sentiment > p.PeakSentiment {
		p.PeakSentiment = sentiment
	}
}

// PLPct is the unrealized P&L percentage off the entry price.
func (p PositionEntry) PLPct(currentPrice float64) float64 {
	if p.EntryPrice == 0 {
		return 0
	}
	return (currentPrice - p.EntryPrice) / p.EntryPrice * 100
}

// HoldHours is the time held as of now, in hours.
func (p PositionEntry) HoldHours(now time.Time) float64 {
	return now.Sub(p.EntryTime).Hours()
}
