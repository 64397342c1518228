package event

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

const (
	defaultPoolSize = 1000
	defaultTimeout  = 30 * time.Second
)

type Event interface {
	Name() string
}

type Handler func(ctx context.Context, e Event) error

// Bus is an in-memory event bus. Handlers run asynchronously on a bounded pool,
// so Publish never waits for them to finish.
type Bus struct {
	pool    chan struct{}
	timeout time.Duration
	wg      *sync.WaitGroup

	mu       sync.RWMutex
	handlers map[string][]Handler
	stopped  bool
}

type Option func(b *Bus)

// WithPoolSize limits how many handlers may run at the same time.
func WithPoolSize(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.pool = make(chan struct{}, n)
		}
	}
}

// WithHandlerTimeout bounds the context each handler runs with.
func WithHandlerTimeout(d time.Duration) Option {
	return func(b *Bus) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// NewBus create a new event bus. Caller should call Stop for graceful shutdown the bus.
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		pool:     make(chan struct{}, defaultPoolSize),
		timeout:  defaultTimeout,
		wg:       new(sync.WaitGroup),
		handlers: make(map[string][]Handler),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Subscribe to an event
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[name] = append(b.handlers[name], h)
}

// Publish an event. Events published after Stop are dropped.
func (b *Bus) Publish(ctx context.Context, e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.stopped {
		slog.WarnContext(ctx, "event: bus stopped, dropping event", "event", e.Name())
		return
	}

	for _, h := range b.handlers[e.Name()] {
		b.dispatch(ctx, h, e)
	}
}

// dispatch never blocks the publisher: the handler waits for a pool slot in
// its own goroutine.
func (b *Bus) dispatch(ctx context.Context, h Handler, e Event) {
	b.wg.Add(1)

	go func() {
		b.pool <- struct{}{}

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.timeout)
		defer func() {
			if r := recover(); r != nil {
				slog.ErrorContext(ctx, "event: handler panic",
					"event", e.Name(),
					"error", fmt.Errorf("%v, stack: %s", r, debug.Stack()),
				)
			}

			cancel()
			<-b.pool
			b.wg.Done()
		}()

		if err := h(ctx, e); err != nil {
			slog.ErrorContext(ctx, "event: handle event failed",
				"event", e.Name(),
				"error", err,
			)
		}
	}()
}

// Stop rejects new events and waits for in-flight handlers to finish.
func (b *Bus) Stop() {
	b.mu.Lock()
	b.stopped = true
	b.mu.Unlock()

	b.wg.Wait()
}
