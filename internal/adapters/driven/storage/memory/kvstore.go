// Package memory provides in-memory implementations of driven ports for
// tests and for sessions where persistent storage is unavailable.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/docsrag/internal/core/domain"
	"github.com/custodia-labs/docsrag/internal/core/ports/driven"
)

// Ensure KVStore implements the interface.
var _ driven.KVStore = (*KVStore)(nil)

// KVStore is an in-memory implementation of driven.KVStore.
type KVStore struct {
	mu     sync.RWMutex
	values map[string]string

	// quota, when positive, caps the total bytes of stored values so
	// tests can exercise rejected writes.
	quota    int
	readOnly bool
	writes   int
}

// NewKVStore creates a new in-memory key-value store.
func NewKVStore() *KVStore {
	return &KVStore{
		values: make(map[string]string),
	}
}

// SetQuota caps the total size of stored values in bytes; 0 removes the cap.
func (s *KVStore) SetQuota(bytes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quota = bytes
}

// SetReadOnly makes every write fail, like disabled browser storage.
func (s *KVStore) SetReadOnly(readOnly bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readOnly = readOnly
}

// Writes returns how many Set calls succeeded.
func (s *KVStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

// Get returns the value for key.
func (s *KVStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.values[key]
	if !ok {
		return "", domain.ErrNotFound
	}
	return val, nil
}

// Set stores value under key.
func (s *KVStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.readOnly {
		return fmt.Errorf("set %q: storage disabled: %w", key, domain.ErrStorageUnavailable)
	}
	if s.quota > 0 && s.sizeWith(key, value) > s.quota {
		return fmt.Errorf("set %q: quota of %d bytes exceeded: %w", key, s.quota, domain.ErrStorageUnavailable)
	}

	s.values[key] = value
	s.writes++
	return nil
}

// sizeWith returns the total value size if key held value (caller must hold lock).
func (s *KVStore) sizeWith(key, value string) int {
	total := len(value)
	for k, v := range s.values {
		if k != key {
			total += len(v)
		}
	}
	return total
}

// Delete removes key.
func (s *KVStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readOnly {
		return fmt.Errorf("delete %q: storage disabled: %w", key, domain.ErrStorageUnavailable)
	}
	delete(s.values, key)
	return nil
}

// Keys lists keys starting with prefix, sorted.
func (s *KVStore) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
