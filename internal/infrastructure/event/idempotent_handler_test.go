package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/schoolfees/backend/internal/domain/fee"
	"github.com/schoolfees/backend/internal/domain/shared"
	"github.com/schoolfees/backend/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockEventHandler struct {
	mock.Mock
}

func (m *MockEventHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventHandler) EventTypes() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Close() error {
	return m.Called().Error(0)
}

func TestIdempotentHandler_DuplicateDeliverySkipped(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	inner := new(MockEventHandler)
	ev := newTestEvent(fee.EventTypeFeeMarkedPaid, 1)
	inner.On("Handle", mock.Anything, ev).Return(nil).Once()

	h := NewIdempotentHandler("receipt", inner, store, zap.NewNop())
	for i := 0; i < 3; i++ {
		require.NoError(t, h.Handle(context.Background(), ev))
	}

	inner.AssertExpectations(t)
	stats := h.Metrics().Stats()
	assert.Equal(t, int64(1), stats.EventsProcessed)
	assert.Equal(t, int64(2), stats.EventsDuplicate)
}

func TestIdempotentHandler_HandlersSharingAStoreAreIndependent(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	receipt := new(MockEventHandler)
	email := new(MockEventHandler)
	ev := newTestEvent(fee.EventTypeFeeMarkedPaid, 1)
	receipt.On("Handle", mock.Anything, ev).Return(nil).Once()
	email.On("Handle", mock.Anything, ev).Return(nil).Once()

	metrics := &IdempotencyMetrics{}
	r := NewIdempotentHandler("receipt", receipt, store, nil, WithIdempotencyMetrics(metrics))
	e := NewIdempotentHandler("payment_email", email, store, nil, WithIdempotencyMetrics(metrics))

	require.NoError(t, r.Handle(context.Background(), ev))
	require.NoError(t, e.Handle(context.Background(), ev))

	receipt.AssertExpectations(t)
	email.AssertExpectations(t)
	assert.Equal(t, int64(2), metrics.Stats().EventsProcessed)
	assert.NotEqual(t, r.Key(ev), e.Key(ev))
}

func TestIdempotentHandler_FailureKeepsKey(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	inner := new(MockEventHandler)
	ev := newTestEvent(fee.EventTypeFeeMarkedPaid, 1)
	boom := errors.New("s3 unavailable")
	inner.On("Handle", mock.Anything, ev).Return(boom).Once()

	h := NewIdempotentHandler("receipt", inner, store, zap.NewNop())

	assert.ErrorIs(t, h.Handle(context.Background(), ev), boom)
	assert.NoError(t, h.Handle(context.Background(), ev))

	inner.AssertExpectations(t)
	assert.Equal(t, int64(1), h.Metrics().Stats().EventsFailed)
	assert.Equal(t, int64(1), h.Metrics().Stats().EventsDuplicate)
}

func TestIdempotentHandler_StoreErrorStillProcesses(t *testing.T) {
	store := new(MockIdempotencyStore)
	inner := new(MockEventHandler)
	ev := newTestEvent(fee.EventTypeFeeMarkedPaid, 1)

	h := NewIdempotentHandler("receipt", inner, store, zap.NewNop())
	store.On("MarkProcessed", mock.Anything, h.Key(ev), 24*time.Hour).Return(false, errors.New("redis timeout"))
	inner.On("Handle", mock.Anything, ev).Return(nil)

	require.NoError(t, h.Handle(context.Background(), ev))

	store.AssertExpectations(t)
	inner.AssertExpectations(t)
}

func TestIdempotentHandler_Disabled(t *testing.T) {
	store := new(MockIdempotencyStore)
	inner := new(MockEventHandler)
	ev := newTestEvent(fee.EventTypeFeeCorrected, 1)
	inner.On("Handle", mock.Anything, ev).Return(nil).Times(2)

	h := NewIdempotentHandler("audit_mirror", inner, store, zap.NewNop(),
		WithIdempotencyConfig(shared.IdempotencyConfig{Enabled: false}))

	require.NoError(t, h.Handle(context.Background(), ev))
	require.NoError(t, h.Handle(context.Background(), ev))

	inner.AssertExpectations(t)
	store.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything, mock.Anything)
}

func TestIdempotentHandler_CustomTTL(t *testing.T) {
	store := new(MockIdempotencyStore)
	inner := new(MockEventHandler)
	ev := newTestEvent(fee.EventTypeFeeMarkedPaid, 1)

	h := NewIdempotentHandler("receipt", inner, store, zap.NewNop(),
		WithIdempotencyConfig(shared.IdempotencyConfig{Enabled: true, TTL: time.Hour}))
	store.On("MarkProcessed", mock.Anything, h.Key(ev), time.Hour).Return(true, nil)
	inner.On("Handle", mock.Anything, ev).Return(nil)

	require.NoError(t, h.Handle(context.Background(), ev))
	store.AssertExpectations(t)
}

func TestIdempotentHandler_EventTypesDelegates(t *testing.T) {
	inner := new(MockEventHandler)
	inner.On("EventTypes").Return([]string{fee.EventTypeFeeMarkedPaid})

	h := NewIdempotentHandler("receipt", inner, new(MockIdempotencyStore), nil)

	assert.Equal(t, []string{fee.EventTypeFeeMarkedPaid}, h.EventTypes())
}

func TestIdempotentHandler_ThroughBus(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	rec := newRecordingHandler(fee.EventTypeFeeMarkedPaid)
	bus := NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(NewIdempotentHandler("receipt", rec, store, nil))

	ev := newTestEvent(fee.EventTypeFeeMarkedPaid, 1)
	require.NoError(t, bus.Publish(context.Background(), ev))
	require.NoError(t, bus.Publish(context.Background(), ev))

	assert.Len(t, rec.seen(), 1)
}
