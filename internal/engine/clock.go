package engine

import (
	"sync/atomic"
	"time"
)

// Sequence stamps change events with a strictly increasing number.
//
// Each engine owns one Sequence, so Seq values order the events of one
// collection key. Seq never uses wall-clock time.
//
// Thread-safety: safe for concurrent use (atomic operations).
type Sequence struct {
	seq atomic.Int64
}

// NewSequenceAt creates a sequence whose next value is start+1.
func NewSequenceAt(start int64) *Sequence {
	s := &Sequence{}
	s.seq.Store(start)
	return s
}

// Next returns the next sequence number.
func (s *Sequence) Next() int64 {
	return s.seq.Add(1)
}

// Current returns the last issued sequence number without incrementing.
func (s *Sequence) Current() int64 {
	return s.seq.Load()
}

// TimeSource supplies the wall-clock time used for UpdatedAt and AddedAt.
// Tests substitute a deterministic source.
type TimeSource interface {
	Now() time.Time
}

// SystemTime reads the system clock in UTC.
type SystemTime struct{}

// Now returns time.Now in UTC, without a monotonic reading, so values
// survive a JSON round trip unchanged.
func (SystemTime) Now() time.Time {
	return time.Now().UTC().Round(0)
}
