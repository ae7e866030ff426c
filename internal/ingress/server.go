package ingress

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/voxcastlabs/voxcast-core/internal/config"
)

const dispatchTimeout = 2 * time.Minute

// Transcriber receives transcribed speech pushed by an external
// speech-to-text process.
type Transcriber interface {
	HandleTranscription(ctx context.Context, text string)
}

type transcriptionRequest struct {
	Transcription string `json:"transcription"`
}

// Server exposes the runtime's HTTP surface: transcription ingress,
// health probes and the metrics endpoint.
type Server struct {
	cfg         config.HTTPConfig
	transcriber Transcriber
	metrics     http.Handler
	ready       func() bool
	logger      *slog.Logger
	srv         *http.Server
	ctx         context.Context
	wg          sync.WaitGroup
}

func NewServer(parent context.Context, cfg config.HTTPConfig, transcriber Transcriber, metrics http.Handler, ready func() bool, logger *slog.Logger) *Server {
	return &Server{
		cfg:         cfg,
		transcriber: transcriber,
		metrics:     metrics,
		ready:       ready,
		logger:      logger.With(slog.String("component", "ingress")),
		ctx:         parent,
	}
}

// Handler builds the route table. Exposed separately so tests can drive
// it through httptest without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/transcription", s.handleTranscription)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics)
	}
	return mux
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Bind, s.cfg.Port)
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server failed", slog.String("error", err.Error()))
		}
	}()
	s.logger.Info("http server listening", slog.String("addr", addr))
	return nil
}

func (s *Server) Close(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	err := s.srv.Shutdown(ctx)
	s.wg.Wait()
	return err
}

// handleTranscription acknowledges immediately; the voice sequence runs
// in the background so the speech-to-text client never blocks on it.
func (s *Server) handleTranscription(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req transcriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	text := strings.TrimSpace(req.Transcription)
	if text == "" {
		http.Error(w, "transcription must not be empty", http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusOK)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(s.ctx, dispatchTimeout)
		defer cancel()
		s.transcriber.HandleTranscription(ctx, text)
	}()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if s.ready == nil || s.ready() {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte("not ready"))
}
