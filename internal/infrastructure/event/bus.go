// Package event delivers domain events to in-process handlers after the
// ledger transaction commits.
package event

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/schoolfees/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// BusOption configures an InMemoryEventBus
type BusOption func(*InMemoryEventBus)

// WithBufferSize sets the queue length used once the bus is started
func WithBufferSize(n int) BusOption {
	return func(b *InMemoryEventBus) {
		if n > 0 {
			b.bufferSize = n
		}
	}
}

// WithHandlerTimeout bounds each handler invocation
func WithHandlerTimeout(d time.Duration) BusOption {
	return func(b *InMemoryEventBus) {
		if d > 0 {
			b.handlerTimeout = d
		}
	}
}

// InMemoryEventBus implements EventBus with in-memory pub/sub.
//
// Before Start, Publish dispatches synchronously. After Start, events are
// queued and a single dispatcher delivers them in publish order; a full
// queue falls back to synchronous delivery so nothing is dropped.
type InMemoryEventBus struct {
	registry       *HandlerRegistry
	logger         *zap.Logger
	bufferSize     int
	handlerTimeout time.Duration

	mu      sync.RWMutex
	queue   chan envelope
	running atomic.Bool
	wg      sync.WaitGroup
}

type envelope struct {
	ctx   context.Context
	event shared.DomainEvent
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger, opts ...BusOption) *InMemoryEventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &InMemoryEventBus{
		registry:       NewHandlerRegistry(),
		logger:         logger,
		bufferSize:     256,
		handlerTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish hands events to every registered handler. Handler failures are
// logged and never returned: the caller's write has already committed.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, event := range events {
		if b.running.Load() {
			select {
			case b.queue <- envelope{ctx: context.WithoutCancel(ctx), event: event}:
				continue
			default:
				b.logger.Warn("event queue full, dispatching inline",
					zap.String("event_type", event.EventType()))
			}
		}
		b.dispatch(ctx, event)
	}
	return nil
}

// Subscribe registers a handler for specific event types
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("handler subscribed",
		zap.Strings("event_types", eventTypes),
	)
}

// Unsubscribe removes a handler
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
	b.logger.Debug("handler unsubscribed")
}

// Start switches the bus to queued delivery
func (b *InMemoryEventBus) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running.Load() {
		return nil
	}

	b.queue = make(chan envelope, b.bufferSize)
	b.running.Store(true)
	b.wg.Add(1)
	go b.loop(b.queue)

	b.logger.Info("event bus started", zap.Int("buffer_size", b.bufferSize))
	return nil
}

// Stop drains the queue and returns to synchronous delivery. It gives up
// waiting when ctx is done.
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.mu.Lock()
	if !b.running.Load() {
		b.mu.Unlock()
		return nil
	}
	b.running.Store(false)
	close(b.queue)
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		b.logger.Info("event bus stopped")
		return nil
	case <-ctx.Done():
		b.logger.Warn("event bus stop timed out with events pending")
		return ctx.Err()
	}
}

func (b *InMemoryEventBus) loop(queue <-chan envelope) {
	defer b.wg.Done()
	for env := range queue {
		b.dispatch(env.ctx, env.event)
	}
}

func (b *InMemoryEventBus) dispatch(ctx context.Context, event shared.DomainEvent) {
	for _, handler := range b.registry.GetHandlers(event.EventType()) {
		if err := b.dispatchToHandler(ctx, handler, event); err != nil {
			b.logger.Error("handler failed to process event",
				zap.String("event_type", event.EventType()),
				zap.String("event_id", event.EventID().String()),
				zap.Error(err),
			)
		}
	}
}

// dispatchToHandler runs one handler under the handler timeout and turns a
// panic into a log line.
func (b *InMemoryEventBus) dispatchToHandler(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("handler panicked",
				zap.String("event_type", event.EventType()),
				zap.Any("panic", r),
			)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, b.handlerTimeout)
	defer cancel()
	return handler.Handle(ctx, event)
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
