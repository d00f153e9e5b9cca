package localstore

import (
	"bytes"
	"sync"
)

// Memory is a process-local Store. Snapshots do not survive a restart.
//
// Thread-safety: safe for concurrent use.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

// Read returns a copy of the snapshot stored under key.
func (m *Memory) Read(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false
	}
	return bytes.Clone(v), true
}

// Write stores a copy of snapshot under key.
func (m *Memory) Write(key string, snapshot []byte) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = bytes.Clone(snapshot)
	return true
}

// Erase deletes key. Erasing a missing key succeeds.
func (m *Memory) Erase(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return true
}

// Keys returns the number of stored keys.
func (m *Memory) Keys() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Unavailable models a disabled storage medium: every read is absent and
// every write fails.
type Unavailable struct{}

func (Unavailable) Read(string) ([]byte, bool) { return nil, false }
func (Unavailable) Write(string, []byte) bool  { return false }
func (Unavailable) Erase(string) bool          { return false }
