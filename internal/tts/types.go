package tts

import (
	"context"
	"errors"
	"io"
)

// ErrUnauthorized means the synthesis credentials were rejected or the quota
// is exhausted. The attempt is over; callers must not try to play anything.
var ErrUnauthorized = errors.New("tts: unauthorized")

// Synthesizer turns text into an audio stream. The returned stream has a
// single consumer, is read sequentially, and must be closed exactly once.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (io.ReadCloser, error)
}
