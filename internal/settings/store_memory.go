package settings

import (
	"context"
	"os"
	"strings"
	"sync"
)

// MemoryStore is an in-memory Store with an optional env fallback, used in
// dev mode and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	params map[string]string
}

// NewMemoryStore constructs a MemoryStore. SUMMARIZER_API_KEY from the
// environment seeds the summarizer key when present.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{params: make(map[string]string)}
	if key := strings.TrimSpace(os.Getenv("SUMMARIZER_API_KEY")); key != "" {
		s.params[KeySummarizerAPIKey] = key
	}
	return s
}

// GetParam returns the value for key or ErrNotFound.
func (s *MemoryStore) GetParam(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.params[key]
	if !ok || strings.TrimSpace(val) == "" {
		return "", ErrNotFound
	}
	return val, nil
}

// SetParam stores the value for key.
func (s *MemoryStore) SetParam(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params[key] = value
	return nil
}

var _ Store = (*MemoryStore)(nil)
