package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStubObjectStorage_RoundTrip(t *testing.T) {
	s := NewStubObjectStorage()
	ctx := context.Background()
	key := "receipts/org/FEE-1.json"

	exists, err := s.ObjectExists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	payload := []byte(`{"reference":"FEE-1"}`)
	require.NoError(t, s.Upload(ctx, key, payload, "application/json"))
	payload[0] = 'x'

	obj, ok := s.Object(key)
	require.True(t, ok)
	assert.Equal(t, `{"reference":"FEE-1"}`, string(obj.Data), "stub keeps its own copy")
	assert.Equal(t, "application/json", obj.ContentType)

	exists, _ = s.ObjectExists(ctx, key)
	assert.True(t, exists)

	require.NoError(t, s.DeleteObject(ctx, key))
	exists, _ = s.ObjectExists(ctx, key)
	assert.False(t, exists)
}

func TestStubObjectStorage_GenerateDownloadURL(t *testing.T) {
	s := NewStubObjectStorage()

	link, expiresAt, err := s.GenerateDownloadURL(context.Background(), "receipts/a.json", time.Hour)
	require.NoError(t, err)
	assert.Contains(t, link, "https://storage.example.com/download/receipts/a.json?expires=")
	assert.True(t, expiresAt.After(time.Now()))

	_, _, err = s.GenerateDownloadURL(context.Background(), "", time.Hour)
	assert.ErrorIs(t, err, ErrEmptyKey)
}

func TestStubObjectStorage_EmptyKey(t *testing.T) {
	s := NewStubObjectStorage()
	ctx := context.Background()

	assert.ErrorIs(t, s.Upload(ctx, "", nil, ""), ErrEmptyKey)
	assert.ErrorIs(t, s.DeleteObject(ctx, ""), ErrEmptyKey)
	_, err := s.ObjectExists(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyKey)
}
