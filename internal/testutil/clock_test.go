package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStepClock_FirstCallReturnsStart(t *testing.T) {
	c := NewStepClock()
	assert.Equal(t, Epoch, c.Now())
	assert.Equal(t, int64(1), c.Calls())
}

func TestStepClock_AdvancesByStep(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	c := NewStepClockAt(start, time.Minute)

	assert.Equal(t, start, c.Now())
	assert.Equal(t, start.Add(time.Minute), c.Now())
	assert.Equal(t, start.Add(2*time.Minute), c.Now())
}

func TestStepClock_Reset(t *testing.T) {
	c := NewStepClock()
	c.Now()
	c.Now()

	c.Reset()

	assert.Equal(t, Epoch, c.Now())
}

func TestStepClock_ThreadSafe(t *testing.T) {
	c := NewStepClock()
	const goroutines = 20
	const callsPerGoroutine = 50

	var wg sync.WaitGroup
	seen := make(chan time.Time, goroutines*callsPerGoroutine)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < callsPerGoroutine; j++ {
				seen <- c.Now()
			}
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[time.Time]bool)
	for ts := range seen {
		assert.False(t, unique[ts], "timestamp %v returned twice", ts)
		unique[ts] = true
	}
	assert.Len(t, unique, goroutines*callsPerGoroutine)
}
