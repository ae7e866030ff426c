package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/voxcastlabs/voxcast-core/internal/config"
)

// maxTranslateChars is a hard limit of the translation-hosted TTS endpoint,
// not something configurable.
const maxTranslateChars = 199

// Translate is the buffered, unauthenticated TTS backend. The remote API
// answers with base64-encoded audio which is decoded and wrapped as a
// finite in-memory stream. Short texts only; input beyond the cap is cut.
type Translate struct {
	endpoint string
	lang     string
	client   *http.Client
	log      *slog.Logger
}

func NewTranslate(cfg config.TranslateConfig, lang string, log *slog.Logger) *Translate {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "https://translate.google.com"
	}
	return &Translate{
		endpoint: strings.TrimRight(endpoint, "/"),
		lang:     lang,
		client:   &http.Client{},
		log:      log.With(slog.String("component", "translate-tts")),
	}
}

func (t *Translate) Synthesize(ctx context.Context, text string) (io.ReadCloser, error) {
	spoken := truncateChars(Normalize(text, t.lang), maxTranslateChars)

	query := url.Values{}
	query.Set("text", spoken)
	query.Set("lang", t.lang)
	query.Set("slow", "false")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.endpoint+"/tts?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("translate tts request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("translate tts returned status %s", resp.Status)
	}

	encoded, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read translate tts response: %w", err)
	}
	audio, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(encoded)))
	if err != nil {
		return nil, fmt.Errorf("decode translate tts audio: %w", err)
	}

	t.log.Debug("got buffered audio", slog.Int("bytes", len(audio)))
	return io.NopCloser(bytes.NewReader(audio)), nil
}

func truncateChars(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
