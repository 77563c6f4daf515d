// ABOUTME: Storage interface for the local key-value store
// ABOUTME: Defines the opaque string-keyed contract the item cache is built on

package storage

import (
	"errors"
	"sort"
	"sync"
)

// ErrNotFound is returned by KV.Get when the key has never been written.
var ErrNotFound = errors.New("key not found")

// KV is a synchronous string-keyed byte store.
type KV interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(key string, value []byte) error

	// Delete removes key. Missing keys are not an error.
	Delete(key string) error

	// Close releases resources.
	Close() error
}

// MemoryKV is an in-process KV for tests. It counts writes and can be made
// to fail them.
type MemoryKV struct {
	mu      sync.RWMutex
	data    map[string][]byte
	writes  int
	failErr error
}

// NewMemoryKV creates an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

// Get implements KV.
func (m *MemoryKV) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Set implements KV.
func (m *MemoryKV) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	v := make([]byte, len(value))
	copy(v, value)
	m.data[key] = v
	m.writes++
	return nil
}

// Writes returns the number of successful Set calls.
func (m *MemoryKV) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}

// FailWrites makes every subsequent Set return err. A nil err clears it.
func (m *MemoryKV) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failErr = err
}

// Delete implements KV.
func (m *MemoryKV) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Keys returns the stored keys in order.
func (m *MemoryKV) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Close implements KV.
func (m *MemoryKV) Close() error {
	return nil
}
