package reply

import (
	"context"
	"sync"
)

// Mock returns a canned reply and records requests.
type Mock struct {
	mu       sync.Mutex
	response string
	err      error
	requests []Request
}

func NewMock(response string) *Mock {
	return &Mock{response: response}
}

func (m *Mock) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *Mock) Reply(_ context.Context, req Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *Mock) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}
