package dex

import (
	"math"

	"github.com/darkhorse-quant/sentinel-agent/internal/domain"
)

// Metrics is the derived trading-performance summary computed from closed
// trades, exposed read-only through the admin interface (spec.md 6).
type Metrics struct {
	TotalTrades   int
	Wins          int
	Losses        int
	WinRatePct    float64
	AvgWinPct     float64
	AvgLossPct    float64
	ExpectancyPct float64
	ProfitFactor  float64
	Sharpe        float64
}

// ComputeMetrics derives the summary statistics from the closed-trade
// ledger. It is idempotent — calling it twice on the same history yields
// identical results, since it only ever reads DexTradeHistory.
func ComputeMetrics(history []domain.DexTradeRecord) Metrics {
	var m Metrics
	if len(history) == 0 {
		return m
	}

	var sumWinPct, sumLossPct, grossProfit, grossLoss float64
	returns := make([]float64, 0, len(history))

	for _, t := range history {
		m.TotalTrades++
		returns = append(returns, t.PnLPct)
		if t.PnLPct > 0 {
			m.Wins++
			sumWinPct += t.PnLPct
			grossProfit += t.PnLSOL
		} else {
			m.Losses++
			sumLossPct += t.PnLPct
			grossLoss += -t.PnLSOL
		}
	}

	m.WinRatePct = float64(m.Wins) / float64(m.TotalTrades) * 100
	if m.Wins > 0 {
		m.AvgWinPct = sumWinPct / float64(m.Wins)
	}
	if m.Losses > 0 {
		m.AvgLossPct = sumLossPct / float64(m.Losses)
	}
	winProb := float64(m.Wins) / float64(m.TotalTrades)
	lossProb := float64(m.Losses) / float64(m.TotalTrades)
	m.ExpectancyPct = winProb*m.AvgWinPct + lossProb*m.AvgLossPct

	if grossLoss > 0 {
		m.ProfitFactor = grossProfit / grossLoss
	} else if grossProfit > 0 {
		m.ProfitFactor = math.Inf(1)
	}

	m.Sharpe = sharpeRatio(returns)
	return m
}

// sharpeRatio is the mean-over-stddev of per-trade percentage returns, with
// no risk-free-rate adjustment — trade-level Sharpe rather than an
// annualized one, since trades are irregularly spaced.
func sharpeRatio(returns []float64) float64 {
	n := float64(len(returns))
	if n < 2 {
		return 0
	}
	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / n

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= n - 1
	stddev := math.Sqrt(variance)
	if stddev == 0 {
		return 0
	}
	return mean / stddev
}
