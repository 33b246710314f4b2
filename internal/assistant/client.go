package assistant

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

var (
	ErrMissingAPIKey = errors.New("OPENAI_API_KEY is not set")
	ErrNoChoices     = errors.New("chat completion returned no choices")
)

// ChatCompleter is the part of the OpenAI client the gateway and the
// extractor need. *openai.Client satisfies it.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// NewOpenAIClient builds a go-openai client, optionally against a
// compatible endpoint at baseURL.
func NewOpenAIClient(apiKey, baseURL string) (*openai.Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return openai.NewClientWithConfig(cfg), nil
}

// FirstContent returns the content of the first choice.
func FirstContent(resp openai.ChatCompletionResponse) (string, error) {
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	return resp.Choices[0].Message.Content, nil
}
