package audio

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

// Sink is what the queue serializes access to.
type Sink interface {
	PlayStream(ctx context.Context, stream io.Reader) error
	PlayFile(ctx context.Context, path string) error
}

type request struct {
	ctx    context.Context
	stream io.Reader
	path   string
	done   chan error
}

// Queue serializes all playback through a single worker so at most one
// player process writes to the audio device at a time. Callers block until
// their own request has been rendered.
type Queue struct {
	sink     Sink
	requests chan request
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	log      *slog.Logger
}

func NewQueue(parent context.Context, sink Sink, log *slog.Logger) *Queue {
	ctx, cancel := context.WithCancel(parent)
	return &Queue{
		sink:     sink,
		requests: make(chan request, 16),
		ctx:      ctx,
		cancel:   cancel,
		log:      log.With(slog.String("component", "playback-queue")),
	}
}

func (q *Queue) Start() {
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for {
			select {
			case <-q.ctx.Done():
				return
			case req := <-q.requests:
				req.done <- q.play(req)
			}
		}
	}()
}

func (q *Queue) Close() {
	q.cancel()
	q.wg.Wait()
}

func (q *Queue) play(req request) error {
	if req.ctx.Err() != nil {
		// The caller gave up while the request sat in the queue.
		return req.ctx.Err()
	}
	if req.path != "" {
		return q.sink.PlayFile(req.ctx, req.path)
	}
	return q.sink.PlayStream(req.ctx, req.stream)
}

// PlayStream enqueues the stream and blocks until it has been played.
func (q *Queue) PlayStream(ctx context.Context, stream io.Reader) error {
	return q.submit(request{ctx: ctx, stream: stream, done: make(chan error, 1)})
}

// PlayFile enqueues the file and blocks until it has been played.
func (q *Queue) PlayFile(ctx context.Context, path string) error {
	return q.submit(request{ctx: ctx, path: path, done: make(chan error, 1)})
}

func (q *Queue) submit(req request) error {
	select {
	case q.requests <- req:
	case <-req.ctx.Done():
		return req.ctx.Err()
	case <-q.ctx.Done():
		return q.ctx.Err()
	}
	select {
	case err := <-req.done:
		return err
	case <-q.ctx.Done():
		return q.ctx.Err()
	}
}
