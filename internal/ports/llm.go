package ports

import "context"

// ChatMessage is one turn in the completion request.
type ChatMessage struct {
	Role    string
	Content string
}

// CompletionRequest mirrors spec.md 6's LLM client contract.
type CompletionRequest struct {
	Model          string
	Messages       []ChatMessage
	MaxTokens      int
	Temperature    float64
	ResponseFormat string // "json_object" to request JSON mode
}

// Usage is the token accounting returned alongside a completion.
type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
}

// CompletionResponse is the LLM client's reply.
type CompletionResponse struct {
	Content string
	Usage   Usage
}

// LLMClient is the narrow text-completion capability used for research and
// the analyst pass.
type LLMClient interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
}
