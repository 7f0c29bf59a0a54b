// Package llm implements the OpenAI-compatible chat-completions client
// behind ports.LLMClient, grounded on the teacher's resty-based SDK client
// (pkg/sdk/http).
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/darkhorse-quant/sentinel-agent/internal/ports"
)

// Client calls an OpenAI-compatible /chat/completions endpoint.
type Client struct {
	http   *resty.Client
	apiKey string
}

// New returns a Client pointed at baseURL (no trailing slash required),
// authenticating with apiKey as a bearer token.
func New(baseURL, apiKey string) *Client {
	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(60 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(10 * time.Second).
		SetRetryAfter(func(c *resty.Client, resp *resty.Response) (time.Duration, error) {
			if resp.StatusCode() == 429 {
				if retryAfter := resp.Header().Get("Retry-After"); retryAfter != "" {
					if d, err := time.ParseDuration(retryAfter + "s"); err == nil {
						return d, nil
					}
				}
				return 10 * time.Second, nil
			}
			return 0, nil
		})
	return &Client{http: http, apiKey: apiKey}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
	} `json:"usage"`
}

// Complete implements ports.LLMClient.
func (c *Client) Complete(ctx context.Context, req ports.CompletionRequest) (ports.CompletionResponse, error) {
	messages := make([]chatMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, chatMessage{Role: m.Role, Content: m.Content})
	}
	body := chatRequest{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if req.ResponseFormat != "" {
		body.ResponseFormat = &responseFormat{Type: req.ResponseFormat}
	}

	var out chatResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+c.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&out).
		Post("/chat/completions")
	if err != nil {
		return ports.CompletionResponse{}, err
	}
	if resp.IsError() {
		var raw map[string]any
		_ = json.Unmarshal(resp.Body(), &raw)
		return ports.CompletionResponse{}, errors.Errorf("llm completion failed: %s: %v", resp.Status(), raw)
	}
	if len(out.Choices) == 0 {
		return ports.CompletionResponse{}, fmt.Errorf("llm completion returned no choices")
	}

	return ports.CompletionResponse{
		Content: out.Choices[0].Message.Content,
		Usage: ports.Usage{
			PromptTokens:     out.Usage.PromptTokens,
			CompletionTokens: out.Usage.CompletionTokens,
		},
	}, nil
}
