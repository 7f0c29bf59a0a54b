// Package metrics exposes the agent's Prometheus counters/gauges, served
// at /metrics by internal/adminserver — grounded on the pack's
// chidi150c-coinbase bot, which registers the same shape of
// orders/decisions/exit-reason counters for its own trading loop.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	TicksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "agent_ticks_total",
		Help: "Completed actor ticks, including ones that recovered from a panic.",
	})

	TickPanicsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "agent_tick_panics_total",
		Help: "Ticks that recovered from a panic.",
	})

	EquityOrdersTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agent_equity_orders_total",
		Help: "Equity/crypto orders submitted, by side.",
	}, []string{"side"})

	DexTradesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agent_dex_trades_total",
		Help: "Closed DEX paper trades, by exit reason.",
	}, []string{"reason"})

	DexPaperBalanceSOL = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "agent_dex_paper_balance_sol",
		Help: "Current DEX paper trading balance in SOL.",
	})

	CrisisLevel = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "agent_crisis_level",
		Help: "Current crisis monitor level, 0-3.",
	})

	LLMCostUSDTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "agent_llm_cost_usd_total",
		Help: "Cumulative LLM spend in USD since the process started tracking it.",
	})
)

func init() {
	prometheus.MustRegister(
		TicksTotal,
		TickPanicsTotal,
		EquityOrdersTotal,
		DexTradesTotal,
		DexPaperBalanceSOL,
		CrisisLevel,
		LLMCostUSDTotal,
	)
}
