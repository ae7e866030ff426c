package reply

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/voxcastlabs/voxcast-core/internal/config"
	"github.com/voxcastlabs/voxcast-core/internal/prompts"
	"github.com/voxcastlabs/voxcast-core/internal/protocol"
)

// Request carries one reply generation. Kind names the triggering event
// (redemption, bits, sub, ...) and Stream is the latest channel state used
// as model context.
type Request struct {
	User    string
	Message string
	Kind    string
	Stream  protocol.StreamInfo
}

// Generator produces the assistant's chat reply for a triggering event.
type Generator interface {
	Reply(ctx context.Context, req Request) (string, error)
}

// OpenAI generates replies with the chat completions API.
type OpenAI struct {
	client  *openai.Client
	cfg     config.OpenAIConfig
	system  string
	channel string
	log     *slog.Logger
}

func NewOpenAI(cfg config.OpenAIConfig, set prompts.Set, channel string, log *slog.Logger) *OpenAI {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientCfg.BaseURL = cfg.Endpoint
	}
	return &OpenAI{
		client:  openai.NewClientWithConfig(clientCfg),
		cfg:     cfg,
		system:  set.SystemPrompt,
		channel: channel,
		log:     log.With(slog.String("component", "reply-generator")),
	}
}

// CheckModel verifies the configured model exists before the runtime starts
// taking events.
func (g *OpenAI) CheckModel(ctx context.Context) error {
	if _, err := g.client.GetModel(ctx, g.cfg.Model); err != nil {
		return fmt.Errorf("model %q is not available: %w", g.cfg.Model, err)
	}
	return nil
}

func (g *OpenAI) Reply(ctx context.Context, req Request) (string, error) {
	system := prompts.Render(g.system, map[string]string{
		"channel":     g.channel,
		"game":        req.Stream.Game,
		"title":       req.Stream.Title,
		"viewers":     strconv.Itoa(req.Stream.Viewers),
		"followers":   strconv.Itoa(req.Stream.Followers),
		"description": req.Stream.Description,
	})

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.cfg.Model,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: float32(g.cfg.Temperature),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: req.User + ": " + req.Message},
		},
	})
	if err != nil {
		return "", fmt.Errorf("reply generation: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("reply generation returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
