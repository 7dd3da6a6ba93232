package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/PabloGalante/counsel-agent/internal/domain"
)

// KVStore is an in-memory domain.KeyValueStore.
// It is NOT persistent and is only suitable for development / tests.
type KVStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var _ domain.KeyValueStore = (*KVStore)(nil)

func NewKVStore() *KVStore {
	return &KVStore{
		data: make(map[string][]byte),
	}
}

func (s *KVStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return nil, fmt.Errorf("memory get %q: %w", key, domain.ErrKeyNotFound)
	}

	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (s *KVStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := make([]byte, len(value))
	copy(v, value)
	s.data[key] = v
	return nil
}

func (s *KVStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	return nil
}

// Len returns the number of stored keys.
func (s *KVStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
