package model

import (
	"context"
	"fmt"

	"github.com/liushuangls/go-anthropic/v2"
)

// Anthropic generates through the Anthropic Messages API.
type Anthropic struct {
	client      *anthropic.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewAnthropic creates an Anthropic generator.
func NewAnthropic(cfg Config) (*Anthropic, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	var opts []anthropic.ClientOption
	if cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
	}

	return &Anthropic{
		client:      anthropic.NewClient(cfg.APIKey, opts...),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}, nil
}

func (g *Anthropic) Generate(ctx context.Context, conv Conversation) (string, error) {
	messages := make([]anthropic.Message, 0, len(conv.Messages))
	for _, m := range conv.Messages {
		if m.Role == RoleAssistant {
			messages = append(messages, anthropic.NewAssistantTextMessage(m.Content))
			continue
		}
		messages = append(messages, anthropic.NewUserTextMessage(m.Content))
	}

	req := anthropic.MessagesRequest{
		Model:     anthropic.Model(g.model),
		System:    conv.System,
		Messages:  messages,
		MaxTokens: g.maxTokens,
	}
	if g.temperature > 0 {
		t := g.temperature
		req.Temperature = &t
	}

	resp, err := g.client.CreateMessages(ctx, req)
	if err != nil {
		return "", WrapError(g.model, err)
	}
	if len(resp.Content) == 0 {
		return "", &GenerationError{Model: g.model, Err: fmt.Errorf("response has no content")}
	}
	return resp.GetFirstContentText(), nil
}
