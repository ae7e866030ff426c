package tts

import (
	"bytes"
	"context"
	"io"
	"sync"
)

// Mock records synthesis requests and replays a fixed audio payload.
type Mock struct {
	mu       sync.Mutex
	audio    []byte
	err      error
	requests []string
}

func NewMock(audio []byte) *Mock {
	return &Mock{audio: audio}
}

// Fail makes every subsequent Synthesize call return err.
func (m *Mock) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *Mock) Synthesize(_ context.Context, text string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, text)
	if m.err != nil {
		return nil, m.err
	}
	return io.NopCloser(bytes.NewReader(m.audio)), nil
}

// Requests returns the texts synthesized so far.
func (m *Mock) Requests() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.requests...)
}
