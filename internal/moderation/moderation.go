package moderation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sashabaranov/go-openai"

	"github.com/voxcastlabs/voxcast-core/internal/config"
)

// Moderator decides whether a user message may reach synthesis and reply
// generation. A rejection is a normal outcome, not an error.
type Moderator interface {
	Allow(ctx context.Context, text string) (bool, error)
}

// OpenAI gates messages through the moderations API.
type OpenAI struct {
	client *openai.Client
	log    *slog.Logger
}

func NewOpenAI(cfg config.OpenAIConfig, log *slog.Logger) *OpenAI {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientCfg.BaseURL = cfg.Endpoint
	}
	return &OpenAI{
		client: openai.NewClientWithConfig(clientCfg),
		log:    log.With(slog.String("component", "moderation")),
	}
}

func (m *OpenAI) Allow(ctx context.Context, text string) (bool, error) {
	resp, err := m.client.Moderations(ctx, openai.ModerationRequest{Input: text})
	if err != nil {
		return false, fmt.Errorf("moderation request: %w", err)
	}
	for _, result := range resp.Results {
		if result.Flagged {
			m.log.Info("message rejected by moderation")
			return false, nil
		}
	}
	return true, nil
}

type allowAll struct{}

// NewAllowAll passes every message; used when moderation is disabled.
func NewAllowAll() Moderator { return allowAll{} }

func (allowAll) Allow(context.Context, string) (bool, error) { return true, nil }
