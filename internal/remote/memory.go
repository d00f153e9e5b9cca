package remote

import (
	"bytes"
	"context"
	"sync"
)

// MemoryRecords is an in-memory RecordStore with failure injection, used by
// tests and the "memory" backend.
//
// Thread-safety: safe for concurrent use.
type MemoryRecords struct {
	mu       sync.Mutex
	records  map[RecordKey]Record
	fetchErr error
	putErr   error
	gets     int
	puts     int
	onPut    func(Record)
}

// NewMemoryRecords creates an empty store.
func NewMemoryRecords() *MemoryRecords {
	return &MemoryRecords{records: make(map[RecordKey]Record)}
}

// GetRecord implements RecordStore.
func (m *MemoryRecords) GetRecord(ctx context.Context, key RecordKey) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++

	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	if m.fetchErr != nil {
		return Record{}, m.fetchErr
	}
	rec, ok := m.records[key]
	if !ok {
		return Record{}, ErrRecordNotFound
	}
	rec.Payload = bytes.Clone(rec.Payload)
	return rec, nil
}

// PutRecord implements RecordStore.
func (m *MemoryRecords) PutRecord(ctx context.Context, rec Record) error {
	m.mu.Lock()
	m.puts++
	hook := m.onPut
	err := m.putErr
	if err == nil {
		err = ctx.Err()
	}
	if err == nil {
		rec.Payload = bytes.Clone(rec.Payload)
		m.records[rec.Key] = rec
	}
	m.mu.Unlock()

	// The hook runs outside the lock so it may block.
	if hook != nil {
		hook(rec)
	}
	return err
}

// Seed stores a raw payload directly, bypassing normalization. Useful for
// simulating records written by other clients.
func (m *MemoryRecords) Seed(key RecordKey, payload []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[key] = Record{Key: key, Payload: bytes.Clone(payload)}
}

// Payload returns the stored payload for key.
func (m *MemoryRecords) Payload(key RecordKey) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[key]
	if !ok {
		return nil, false
	}
	return bytes.Clone(rec.Payload), true
}

// FailFetches makes every GetRecord return err (nil restores normal behavior).
func (m *MemoryRecords) FailFetches(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchErr = err
}

// FailPuts makes every PutRecord return err (nil restores normal behavior).
func (m *MemoryRecords) FailPuts(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putErr = err
}

// OnPut installs a hook called after every PutRecord attempt.
func (m *MemoryRecords) OnPut(hook func(Record)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onPut = hook
}

// Gets returns how many GetRecord calls were made.
func (m *MemoryRecords) Gets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gets
}

// Puts returns how many PutRecord calls were made.
func (m *MemoryRecords) Puts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}
