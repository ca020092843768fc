// Package publisher is the entry point services use to emit audit events.
package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	audit "ghostpost/pkg/platform/audit"
	"ghostpost/pkg/platform/audit/worker"
)

// Publisher writes audit events synchronously, or through a buffered
// background worker when WithAsyncBuffer is set.
type Publisher struct {
	store  audit.Store
	sinks  []audit.Sink
	logger *slog.Logger
	clock  func() time.Time

	bufferSize int
	worker     *worker.Worker
	inbox      chan audit.Event
	done       chan struct{}

	mu     sync.RWMutex
	closed bool
}

type Option func(*Publisher)

// WithAsyncBuffer enables asynchronous delivery with a buffer of size n.
func WithAsyncBuffer(n int) Option {
	return func(p *Publisher) {
		p.bufferSize = n
	}
}

// WithSink forwards every stored event to sink.
func WithSink(sink audit.Sink) Option {
	return func(p *Publisher) {
		if sink != nil {
			p.sinks = append(p.sinks, sink)
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func WithClock(clock func() time.Time) Option {
	return func(p *Publisher) {
		if clock != nil {
			p.clock = clock
		}
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.New(slog.DiscardHandler),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.bufferSize > 0 {
		p.inbox = make(chan audit.Event, p.bufferSize)
		p.done = make(chan struct{})
	}
	p.worker = worker.NewWorker(store, p.inbox, p.logger, p.sinks...)
	if p.inbox != nil {
		go func() {
			defer close(p.done)
			_ = p.worker.Run(context.Background())
		}()
	}
	return p
}

// Emit records event. In async mode a full buffer falls back to synchronous
// delivery rather than dropping the event.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = p.clock()
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.inbox != nil && !p.closed {
		select {
		case p.inbox <- event:
			return nil
		default:
			p.logger.WarnContext(ctx, "audit buffer full, writing synchronously",
				"event_type", string(event.Type),
			)
		}
	}
	return p.worker.Handle(ctx, event)
}

// List returns every stored event.
func (p *Publisher) List(ctx context.Context) ([]audit.Event, error) {
	return p.store.ListAll(ctx)
}

// Close drains pending async events. It is safe to call more than once.
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.closed || p.inbox == nil {
		p.closed = true
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.inbox)
	p.mu.Unlock()
	<-p.done
}
