package ingress

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/voxcastlabs/voxcast-core/internal/config"
)

type recordingTranscriber struct {
	mu    sync.Mutex
	texts []string
}

func (r *recordingTranscriber) HandleTranscription(_ context.Context, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
}

func (r *recordingTranscriber) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.texts...)
}

func newTestServer(t *testing.T, transcriber Transcriber, ready func() bool) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := NewServer(context.Background(), config.HTTPConfig{}, transcriber, nil, ready, logger)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestTranscriptionDispatch(t *testing.T) {
	rec := &recordingTranscriber{}
	srv := newTestServer(t, rec, nil)

	resp, err := http.Post(srv.URL+"/transcription", "application/json",
		strings.NewReader(`{"transcription":"hello there"}`))
	if err != nil {
		t.Fatalf("post failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if texts := rec.snapshot(); len(texts) == 1 {
			if texts[0] != "hello there" {
				t.Fatalf("unexpected transcription: %q", texts[0])
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("transcription was never dispatched")
}

func TestTranscriptionRejectsBadRequests(t *testing.T) {
	rec := &recordingTranscriber{}
	srv := newTestServer(t, rec, nil)

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{"transcription"`},
		{"empty text", `{"transcription":"  "}`},
	}
	for _, tc := range cases {
		resp, err := http.Post(srv.URL+"/transcription", "application/json", strings.NewReader(tc.body))
		if err != nil {
			t.Fatalf("%s: post failed: %v", tc.name, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tc.name, resp.StatusCode)
		}
	}

	resp, err := http.Get(srv.URL + "/transcription")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for GET, got %d", resp.StatusCode)
	}

	if len(rec.snapshot()) != 0 {
		t.Fatal("rejected requests must not be dispatched")
	}
}

func TestReadinessProbe(t *testing.T) {
	ready := false
	srv := newTestServer(t, &recordingTranscriber{}, func() bool { return ready })

	resp, err := http.Get(srv.URL + "/readyz")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before ready, got %d", resp.StatusCode)
	}

	ready = true
	resp, err = http.Get(srv.URL + "/readyz")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 once ready, got %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from healthz, got %d", resp.StatusCode)
	}
}
