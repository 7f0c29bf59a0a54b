package equity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/darkhorse-quant/sentinel-agent/internal/domain"
	"github.com/darkhorse-quant/sentinel-agent/internal/ports"
)

// TwitterConfirmer is the narrow breaking-news confirmation capability used
// to adjust analyst confidence on held positions (spec.md 4.4). Declared
// here, next to its only caller, rather than in internal/ports — it is not
// part of the broker/data/LLM contract surface the rest of the agent shares.
type TwitterConfirmer interface {
	Confirm(ctx context.Context, symbol, thesis string) (domain.TwitterConfirmation, error)
}

type analystJSON struct {
	Verdict      string  `json:"verdict"`
	Confidence   float64 `json:"confidence"`
	Reasoning    string  `json:"reasoning"`
	EntryQuality string  `json:"entry_quality"`
}

// RunAnalyst asks the LLM for a BUY/SELL/HOLD verdict on symbol given the
// supporting signal context, books the call against cost, and returns the
// parsed verdict. A malformed response degrades to HOLD with zero
// confidence rather than erroring the whole tick (spec.md 9).
func RunAnalyst(ctx context.Context, llm ports.LLMClient, cost *domain.CostTracker, model, symbol, context_ string, now time.Time) (domain.ResearchResult, error) {
	prompt := fmt.Sprintf(
		"Symbol: %s\nContext:\n%s\n\nRespond with JSON: {\"verdict\":\"BUY|SELL|HOLD\",\"confidence\":0-1,\"reasoning\":\"...\",\"entry_quality\":\"excellent|good|marginal|poor\"}",
		symbol, context_,
	)
	resp, err := llm.Complete(ctx, ports.CompletionRequest{
		Model:          model,
		Messages:       []ports.ChatMessage{{Role: "user", Content: prompt}},
		MaxTokens:      400,
		Temperature:    0.2,
		ResponseFormat: "json_object",
	})
	if err != nil {
		return domain.ResearchResult{}, err
	}
	cost.Record(model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

	var parsed analystJSON
	if err := json.Unmarshal([]byte(resp.Content), &parsed); err != nil {
		return domain.ResearchResult{Symbol: symbol, Verdict: domain.VerdictHold, Timestamp: now}, nil
	}

	verdict := domain.Verdict(parsed.Verdict)
	switch verdict {
	case domain.VerdictBuy, domain.VerdictSell, domain.VerdictHold:
	default:
		verdict = domain.VerdictHold
	}

	return domain.ResearchResult{
		Symbol:       symbol,
		Verdict:      verdict,
		Confidence:   parsed.Confidence,
		Reasoning:    parsed.Reasoning,
		EntryQuality: parsed.EntryQuality,
		Timestamp:    now,
	}, nil
}

// ApplyTwitterAdjustment boosts or penalizes a research confidence score
// based on breaking-news confirmation, per the TwitterConfidenceBoost and
// TwitterConfidencePenalty config values (spec.md 4.4).
func ApplyTwitterAdjustment(cfg domain.Config, confidence float64, confirmation domain.TwitterConfirmation) float64 {
	switch {
	case confirmation.Confirmed:
		confidence *= cfg.TwitterConfidenceBoost
	case confirmation.Contradicted:
		confidence *= cfg.TwitterConfidencePenalty
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}
