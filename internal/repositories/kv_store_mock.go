package repositories

import (
	"sync"
)

// MockKVStore is an in-memory implementation of KVStore.
type MockKVStore struct {
	values   map[string]string
	writeErr error
	mu       sync.RWMutex
}

// NewMockKVStore creates a new instance of MockKVStore.
func NewMockKVStore() *MockKVStore {
	return &MockKVStore{
		values: make(map[string]string),
	}
}

// Get returns the value stored under key.
func (s *MockKVStore) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	return value, ok, nil
}

// Set stores value under key, or fails with the configured write error.
func (s *MockKVStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.writeErr != nil {
		return s.writeErr
	}
	s.values[key] = value
	return nil
}

// Delete removes key.
func (s *MockKVStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.writeErr != nil {
		return s.writeErr
	}
	delete(s.values, key)
	return nil
}

// FailWrites makes every subsequent Set and Delete return err. Pass nil to recover.
func (s *MockKVStore) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeErr = err
}
