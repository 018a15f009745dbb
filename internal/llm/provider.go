package llm

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

// Client is the single capability the recommendation engine needs from a
// chat model. Keeping it to one method lets tests substitute a canned
// backend and lets any OpenAI-compatible server (hosted or local) serve
// production.
type Client interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIProvider adapts *openai.Client to Client.
type OpenAIProvider struct {
	Inner *openai.Client
}

func (p *OpenAIProvider) CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return p.Inner.CreateChatCompletion(ctx, request)
}

// New builds a provider for an OpenAI-compatible endpoint. An empty
// baseURL targets the hosted default.
func New(apiKey, baseURL string) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIProvider{Inner: openai.NewClientWithConfig(cfg)}
}
