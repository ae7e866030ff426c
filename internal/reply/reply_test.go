package reply

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/voxcastlabs/voxcast-core/internal/config"
	"github.com/voxcastlabs/voxcast-core/internal/prompts"
	"github.com/voxcastlabs/voxcast-core/internal/protocol"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestReplyUsesStreamContext(t *testing.T) {
	var gotBody struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":" Nice cats! "}}]}`))
	}))
	defer srv.Close()

	gen := NewOpenAI(config.OpenAIConfig{
		APIKey:   "k",
		Endpoint: srv.URL + "/v1",
		Model:    "gpt-4o-mini",
	}, prompts.Defaults(), "streamer", testLogger())

	answer, err := gen.Reply(context.Background(), Request{
		User:    "Alice",
		Message: "I have 5 cats",
		Kind:    "redemption",
		Stream:  protocol.StreamInfo{Game: "Chess", Title: "ranked grind", Viewers: 42, Followers: 1000},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "Nice cats!" {
		t.Fatalf("expected trimmed reply, got %q", answer)
	}
	if gotBody.Model != "gpt-4o-mini" {
		t.Fatalf("unexpected model %q", gotBody.Model)
	}
	if len(gotBody.Messages) != 2 {
		t.Fatalf("expected system+user messages, got %d", len(gotBody.Messages))
	}
	system := gotBody.Messages[0]
	if system.Role != "system" || !strings.Contains(system.Content, "Chess") || !strings.Contains(system.Content, "42") {
		t.Fatalf("system prompt missing stream context: %q", system.Content)
	}
	user := gotBody.Messages[1]
	if user.Role != "user" || !strings.Contains(user.Content, "Alice") || !strings.Contains(user.Content, "I have 5 cats") {
		t.Fatalf("user message malformed: %q", user.Content)
	}
}

func TestReplySurfacesBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	gen := NewOpenAI(config.OpenAIConfig{APIKey: "k", Endpoint: srv.URL + "/v1", Model: "m"}, prompts.Defaults(), "c", testLogger())
	if _, err := gen.Reply(context.Background(), Request{User: "a", Message: "b"}); err == nil {
		t.Fatal("expected error for failing backend")
	}
}

func TestCheckModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/models/good" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"good","object":"model"}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	good := NewOpenAI(config.OpenAIConfig{APIKey: "k", Endpoint: srv.URL + "/v1", Model: "good"}, prompts.Defaults(), "c", testLogger())
	if err := good.CheckModel(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := NewOpenAI(config.OpenAIConfig{APIKey: "k", Endpoint: srv.URL + "/v1", Model: "missing"}, prompts.Defaults(), "c", testLogger())
	if err := bad.CheckModel(context.Background()); err == nil {
		t.Fatal("expected error for unavailable model")
	}
}
