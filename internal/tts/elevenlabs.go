package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/voxcastlabs/voxcast-core/internal/config"
)

const (
	defaultElevenLabsEndpoint = "https://api.elevenlabs.io"
	defaultElevenLabsModel    = "eleven_multilingual_v1"
	defaultVoiceSetting       = 0.5
)

// ElevenLabs streams synthesized speech from the ElevenLabs HTTP API. The
// response body is handed to the caller as a live stream; nothing is
// buffered, so playback can start on the first byte.
type ElevenLabs struct {
	cfg    config.ElevenLabsConfig
	lang   string
	client *http.Client
	log    *slog.Logger
}

func NewElevenLabs(cfg config.ElevenLabsConfig, lang string, log *slog.Logger) *ElevenLabs {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultElevenLabsEndpoint
	}
	if cfg.ModelID == "" {
		cfg.ModelID = defaultElevenLabsModel
	}
	if cfg.Stability == 0 {
		cfg.Stability = defaultVoiceSetting
	}
	if cfg.SimilarityBoost == 0 {
		cfg.SimilarityBoost = defaultVoiceSetting
	}
	// No client-level timeout: it would cut the audio stream mid-read.
	// Callers bound the request with their context.
	return &ElevenLabs{
		cfg:    cfg,
		lang:   lang,
		client: &http.Client{},
		log:    log.With(slog.String("component", "elevenlabs-tts")),
	}
}

type synthesizePayload struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

func (e *ElevenLabs) Synthesize(ctx context.Context, text string) (io.ReadCloser, error) {
	spoken := Normalize(text, e.lang)
	body, err := json.Marshal(synthesizePayload{
		Text:    spoken,
		ModelID: e.cfg.ModelID,
		VoiceSettings: voiceSettings{
			Stability:       e.cfg.Stability,
			SimilarityBoost: e.cfg.SimilarityBoost,
		},
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s/stream", strings.TrimRight(e.cfg.Endpoint, "/"), e.cfg.VoiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", e.cfg.APIKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs synthesis request: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		return nil, ErrUnauthorized
	}
	if resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("elevenlabs returned status %s", resp.Status)
	}

	e.log.Debug("got audio stream", slog.Int("text_len", len(spoken)))
	return resp.Body, nil
}

// Voice describes one entry of the remote voice catalogue.
type Voice struct {
	ID   string `json:"voice_id"`
	Name string `json:"name"`
}

// Voices lists the voices available to the configured API key. Transient
// failures are returned to the caller, who is expected to retry.
func (e *ElevenLabs) Voices(ctx context.Context) ([]Voice, error) {
	url := strings.TrimRight(e.cfg.Endpoint, "/") + "/v1/voices"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("xi-api-key", e.cfg.APIKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs voices request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("elevenlabs returned status %s", resp.Status)
	}

	var payload struct {
		Voices []Voice `json:"voices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode voices response: %w", err)
	}
	return payload.Voices, nil
}
