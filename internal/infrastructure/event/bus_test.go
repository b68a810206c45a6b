package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfees/backend/internal/domain/fee"
	"github.com/schoolfees/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEvent struct {
	shared.BaseDomainEvent
	Seq int
}

func newTestEvent(eventType string, seq int) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "StudentFee", uuid.New(), uuid.New()),
		Seq:             seq,
	}
}

type recordingHandler struct {
	eventTypes []string
	err        error
	panicMsg   string

	mu       sync.Mutex
	handled  []shared.DomainEvent
	deadline bool
}

func newRecordingHandler(eventTypes ...string) *recordingHandler {
	return &recordingHandler{eventTypes: eventTypes}
}

func (h *recordingHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	_, h.deadline = ctx.Deadline()
	if h.panicMsg != "" {
		panic(h.panicMsg)
	}
	return h.err
}

func (h *recordingHandler) EventTypes() []string { return h.eventTypes }

func (h *recordingHandler) seen() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.handled...)
}

func TestInMemoryEventBus_PublishBeforeStartIsSynchronous(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := newRecordingHandler(fee.EventTypeFeeMarkedPaid)
	bus.Subscribe(h)

	ev := newTestEvent(fee.EventTypeFeeMarkedPaid, 1)
	require.NoError(t, bus.Publish(context.Background(), ev))

	require.Len(t, h.seen(), 1)
	assert.Equal(t, ev, h.seen()[0])
	assert.True(t, h.deadline, "handler runs under the handler timeout")
}

func TestInMemoryEventBus_FanOut(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	receipt := newRecordingHandler(fee.EventTypeFeeMarkedPaid)
	email := newRecordingHandler(fee.EventTypeFeeMarkedPaid)
	other := newRecordingHandler(fee.EventTypeFeeMarkedUnpaid)
	all := newRecordingHandler()
	bus.Subscribe(receipt)
	bus.Subscribe(email)
	bus.Subscribe(other)
	bus.Subscribe(all)

	require.NoError(t, bus.Publish(context.Background(),
		newTestEvent(fee.EventTypeFeeMarkedPaid, 1),
		newTestEvent(fee.EventTypeFeeCorrected, 2),
	))

	assert.Len(t, receipt.seen(), 1)
	assert.Len(t, email.seen(), 1)
	assert.Empty(t, other.seen())
	assert.Len(t, all.seen(), 2)
}

func TestInMemoryEventBus_FailingHandlersDoNotStopOthers(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	failing := newRecordingHandler(fee.EventTypeFeeMarkedPaid)
	failing.err = errors.New("smtp down")
	panicking := newRecordingHandler(fee.EventTypeFeeMarkedPaid)
	panicking.panicMsg = "nil template"
	ok := newRecordingHandler(fee.EventTypeFeeMarkedPaid)
	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(ok)

	err := bus.Publish(context.Background(), newTestEvent(fee.EventTypeFeeMarkedPaid, 1))

	require.NoError(t, err)
	assert.Len(t, failing.seen(), 1)
	assert.Len(t, panicking.seen(), 1)
	assert.Len(t, ok.seen(), 1)
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := newRecordingHandler(fee.EventTypeFeeCorrected)
	bus.Subscribe(h)

	_ = bus.Publish(context.Background(), newTestEvent(fee.EventTypeFeeCorrected, 1))
	bus.Unsubscribe(h)
	_ = bus.Publish(context.Background(), newTestEvent(fee.EventTypeFeeCorrected, 2))

	assert.Len(t, h.seen(), 1)
}

func TestInMemoryEventBus_QueuedDeliveryKeepsOrder(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop(), WithBufferSize(64), WithHandlerTimeout(time.Second))
	h := newRecordingHandler(fee.EventTypeFeeCorrected)
	bus.Subscribe(h)

	require.NoError(t, bus.Start(context.Background()))
	for i := 0; i < 20; i++ {
		require.NoError(t, bus.Publish(context.Background(), newTestEvent(fee.EventTypeFeeCorrected, i)))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, bus.Stop(ctx))

	seen := h.seen()
	require.Len(t, seen, 20)
	for i, ev := range seen {
		assert.Equal(t, i, ev.(*testEvent).Seq)
	}
}

func TestInMemoryEventBus_QueuedDeliverySurvivesCallerCancel(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := newRecordingHandler(fee.EventTypeFeeMarkedPaid)
	bus.Subscribe(h)
	require.NoError(t, bus.Start(context.Background()))

	reqCtx, cancelReq := context.WithCancel(context.Background())
	require.NoError(t, bus.Publish(reqCtx, newTestEvent(fee.EventTypeFeeMarkedPaid, 1)))
	cancelReq()

	require.NoError(t, bus.Stop(context.Background()))
	assert.Len(t, h.seen(), 1)
}

func TestInMemoryEventBus_StartStopIdempotent(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	ctx := context.Background()

	require.NoError(t, bus.Stop(ctx))
	require.NoError(t, bus.Start(ctx))
	require.NoError(t, bus.Start(ctx))
	require.NoError(t, bus.Stop(ctx))
	require.NoError(t, bus.Stop(ctx))

	// back to synchronous delivery
	h := newRecordingHandler(fee.EventTypeFeeCorrected)
	bus.Subscribe(h)
	require.NoError(t, bus.Publish(ctx, newTestEvent(fee.EventTypeFeeCorrected, 1)))
	assert.Len(t, h.seen(), 1)
}

type blockingHandler struct {
	release chan struct{}
}

func (h *blockingHandler) Handle(ctx context.Context, _ shared.DomainEvent) error {
	<-h.release
	return nil
}

func (h *blockingHandler) EventTypes() []string { return []string{fee.EventTypeFeeCorrected} }

func TestInMemoryEventBus_StopGivesUpWhenContextEnds(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := &blockingHandler{release: make(chan struct{})}
	bus.Subscribe(h)
	require.NoError(t, bus.Start(context.Background()))
	require.NoError(t, bus.Publish(context.Background(), newTestEvent(fee.EventTypeFeeCorrected, 1)))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := bus.Stop(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	close(h.release)
}
