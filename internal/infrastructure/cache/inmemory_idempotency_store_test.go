package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/schoolfees/backend/internal/domain/shared"
	"github.com/schoolfees/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)}
	store := NewInMemoryIdempotencyStore(WithStoreClock(clock.Now))
	defer store.Close()
	ctx := context.Background()

	isNew, err := store.MarkProcessed(ctx, "receipt:evt-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, isNew)

	isNew, err = store.MarkProcessed(ctx, "receipt:evt-1", time.Hour)
	require.NoError(t, err)
	assert.False(t, isNew)

	isNew, err = store.MarkProcessed(ctx, "payment_email:evt-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, isNew, "same event under another handler name is independent")

	clock.Advance(time.Hour)
	isNew, err = store.MarkProcessed(ctx, "receipt:evt-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, isNew, "expired key can be processed again")
}

func TestInMemoryIdempotencyStore_IsProcessed(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)}
	store := NewInMemoryIdempotencyStore(WithStoreClock(clock.Now))
	defer store.Close()
	ctx := context.Background()

	done, err := store.IsProcessed(ctx, "k")
	require.NoError(t, err)
	assert.False(t, done)

	_, _ = store.MarkProcessed(ctx, "k", time.Minute)
	done, _ = store.IsProcessed(ctx, "k")
	assert.True(t, done)

	clock.Advance(2 * time.Minute)
	done, _ = store.IsProcessed(ctx, "k")
	assert.False(t, done)
}

func TestInMemoryIdempotencyStore_Sweep(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)}
	store := NewInMemoryIdempotencyStore(WithStoreClock(clock.Now))
	defer store.Close()
	ctx := context.Background()

	_, _ = store.MarkProcessed(ctx, "short", time.Minute)
	_, _ = store.MarkProcessed(ctx, "long", time.Hour)
	clock.Advance(10 * time.Minute)

	store.sweep()
	assert.Equal(t, 1, store.Size())
}

func TestInMemoryIdempotencyStore_ConcurrentMarkHasOneWinner(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	var winners atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := store.MarkProcessed(context.Background(), "evt", time.Hour); ok {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load())
}

func TestInMemoryIdempotencyStore_CloseTwice(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}

func TestIdempotencyStoreFactory_CreateStore(t *testing.T) {
	ctx := context.Background()

	t.Run("no redis host uses memory", func(t *testing.T) {
		store, err := NewIdempotencyStoreFactory(config.RedisConfig{}).CreateStore(ctx)
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})

	unreachable := func(context.Context, config.RedisConfig) (shared.IdempotencyStore, error) {
		return nil, errors.New("connection refused")
	}

	t.Run("unreachable redis falls back", func(t *testing.T) {
		f := NewIdempotencyStoreFactory(config.RedisConfig{Host: "cache.local", Port: 6379})
		f.connect = unreachable

		store, err := f.CreateStore(ctx)
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})

	t.Run("unreachable redis without fallback fails", func(t *testing.T) {
		f := NewIdempotencyStoreFactory(config.RedisConfig{Host: "cache.local", Port: 6379}, WithInMemoryFallback(false))
		f.connect = unreachable

		_, err := f.CreateStore(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("reachable redis is used", func(t *testing.T) {
		want := NewInMemoryIdempotencyStore()
		defer want.Close()
		f := NewIdempotencyStoreFactory(config.RedisConfig{Host: "cache.local", Port: 6379})
		f.connect = func(context.Context, config.RedisConfig) (shared.IdempotencyStore, error) { return want, nil }

		store, err := f.CreateStore(ctx)
		require.NoError(t, err)
		assert.Same(t, want, store)
	})
}
