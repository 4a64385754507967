// Package assetstore stores isolate images behind a thin S3-like
// abstraction keyed by opaque identifiers, so the API layer never touches
// backend specifics.
package assetstore

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
)

// KeyFromURL recovers the storage key from a URL previously returned by
// Upload. Returns "" when the reference is not one of ours.
func KeyFromURL(ref string) string {
	if key, ok := strings.CutPrefix(ref, "memory://"); ok {
		return key
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Path, "/")
}

// Store is the interface for asset storage backends.
type Store interface {
	// Upload stores the asset under key and returns a public URL.
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	// Delete removes an asset. Returns false when the key was absent.
	Delete(ctx context.Context, key string) (bool, error)
}

// MemoryStore is the in-memory backend used in tests and local dev.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: map[string][]byte{}}
}

// Upload stores the asset in memory.
func (s *MemoryStore) Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return fmt.Sprintf("memory://%s", key), nil
}

// Delete removes the asset from memory.
func (s *MemoryStore) Delete(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; !ok {
		return false, nil
	}
	delete(s.objects, key)
	return true, nil
}

// Len reports the number of stored assets.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}
