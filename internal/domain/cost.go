package domain

import "github.com/darkhorse-quant/sentinel-agent/internal/metrics"

// modelRates holds the per-1M-token prompt/completion USD rates from
// spec.md 6. Keys are the model identifiers passed to the LLM client.
var modelRates = map[string][2]float64{
	"gpt-4o":      {2.5, 10.0},
	"gpt-4o-mini": {0.15, 0.6},
}

// ModelUsage accumulates token usage and spend for a single model.
type ModelUsage struct {
	PromptTokens     int64
	CompletionTokens int64
	Calls            int64
	USD              float64
}

// CostTracker is the ledger attached to AgentState (spec.md 3).
type CostTracker struct {
	TotalUSD float64
	ByModel  map[string]*ModelUsage
}

// NewCostTracker returns a ready-to-use, empty tracker.
func NewCostTracker() *CostTracker {
	return &CostTracker{ByModel: make(map[string]*ModelUsage)}
}

// Record books a completion call's token usage against the ledger using the
// rate table in spec.md 6. Unknown models are billed at the gpt-4o-mini
// rate, the cheaper of the two, so their recorded spend can be lower than
// what the provider charges.
func (c *CostTracker) Record(model string, promptTokens, completionTokens int64) float64 {
	if c.ByModel == nil {
		c.ByModel = make(map[string]*ModelUsage)
	}
	rates, ok := modelRates[model]
	if !ok {
		rates = modelRates["gpt-4o-mini"]
	}
	cost := float64(promptTokens)/1_000_000*rates[0] + float64(completionTokens)/1_000_000*rates[1]

	u, ok := c.ByModel[model]
	if !ok {
		u = &ModelUsage{}
		c.ByModel[model] = u
	}
	u.PromptTokens += promptTokens
	u.CompletionTokens += completionTokens
	u.Calls++
	u.USD += cost
	c.TotalUSD += cost
	metrics.LLMCostUSDTotal.Set(c.TotalUSD)
	return cost
}
