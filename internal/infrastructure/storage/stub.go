package storage

import (
	"context"
	"net/url"
	"sync"
	"time"
)

// StubObjectStorage keeps objects in memory and returns fake links. Used in
// development and tests when no bucket is configured.
type StubObjectStorage struct {
	// BaseURL prefixes generated links
	BaseURL string

	mu      sync.RWMutex
	objects map[string]StubObject
}

// StubObject is one stored object
type StubObject struct {
	Data        []byte
	ContentType string
}

// NewStubObjectStorage creates an empty stub
func NewStubObjectStorage() *StubObjectStorage {
	return &StubObjectStorage{
		BaseURL: "https://storage.example.com",
		objects: make(map[string]StubObject),
	}
}

// Upload stores a copy of data under key
func (s *StubObjectStorage) Upload(_ context.Context, key string, data []byte, contentType string) error {
	if key == "" {
		return ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = StubObject{Data: append([]byte(nil), data...), ContentType: contentType}
	return nil
}

// GenerateDownloadURL returns BaseURL/download/<key>?expires=<rfc3339>
func (s *StubObjectStorage) GenerateDownloadURL(_ context.Context, key string, ttl time.Duration) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, ErrEmptyKey
	}
	expiresAt := time.Now().Add(ttl)
	q := url.Values{"expires": {expiresAt.UTC().Format(time.RFC3339)}}
	return s.BaseURL + "/download/" + key + "?" + q.Encode(), expiresAt, nil
}

// ObjectExists reports whether key was uploaded
func (s *StubObjectStorage) ObjectExists(_ context.Context, key string) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[key]
	return ok, nil
}

// DeleteObject forgets key
func (s *StubObjectStorage) DeleteObject(_ context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

// Object returns the stored object, if any
func (s *StubObjectStorage) Object(key string) (StubObject, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	return obj, ok
}
