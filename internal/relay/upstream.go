package relay

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Upstream defaults: Groq's OpenAI-compatible endpoint
const (
	DefaultUpstreamURL = "https://api.groq.com/openai/v1"
	DefaultModel       = "llama-3.1-8b-instant"
)

// Completer turns a prompt into completion text
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// generator is the part of an eino chat model the relay uses
type generator interface {
	Generate(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// UpstreamConfig selects the model provider
type UpstreamConfig struct {
	BaseURL string
	Model   string
	APIKey  string
}

// ChatCompleter sends each prompt as a single user message to an
// OpenAI-compatible chat completion API.
type ChatCompleter struct {
	model generator
	name  string
}

// NewChatCompleter builds a completer on the eino OpenAI chat model
func NewChatCompleter(ctx context.Context, cfg UpstreamConfig) (*ChatCompleter, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultUpstreamURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: cfg.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	return &ChatCompleter{model: chatModel, name: cfg.Model}, nil
}

// Model returns the upstream model name
func (c *ChatCompleter) Model() string {
	return c.name
}

// Complete returns the content of the first choice
func (c *ChatCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	msg, err := c.model.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		return "", err
	}
	if msg == nil {
		return "", fmt.Errorf("upstream returned no message")
	}
	return msg.Content, nil
}
