package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTrace() []TraceEvent {
	return []TraceEvent{
		{Seq: 1, Device: "default", Topic: "cart:item:added", EntryID: "entry-1", Item: "a", Quantity: 1, Count: 1, Total: 100},
		{Seq: 2, Device: "default", Topic: "wishlist:item:added", EntryID: "entry-2", Item: "b", Quantity: 1, Count: 1, Total: 50},
		{Seq: 3, Device: "default", Topic: "cart:item:added", EntryID: "entry-1", Item: "a", Quantity: 2, Count: 2, Total: 200},
		{Seq: 4, Device: "phone", Topic: "cart:synced", Count: 2, Total: 200},
	}
}

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }

func TestAssertEventCount(t *testing.T) {
	trace := sampleTrace()

	require.NoError(t, assertEventCount(trace, Assertion{Topic: "cart:item:added", Count: 2}))
	require.NoError(t, assertEventCount(trace, Assertion{Topic: "cart:cleared", Count: 0}))

	err := assertEventCount(trace, Assertion{Topic: "cart:item:added", Count: 1})
	require.Error(t, err)

	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, AssertEventCount, ae.Type)
	assert.Contains(t, ae.Actual, "occurs 2 time(s)")
}

func TestAssertEventOrder(t *testing.T) {
	trace := sampleTrace()

	tests := []struct {
		name   string
		topics []string
		ok     bool
	}{
		{"exact", []string{"cart:item:added", "wishlist:item:added", "cart:item:added", "cart:synced"}, true},
		{"with gaps", []string{"cart:item:added", "cart:synced"}, true},
		{"repeated topic", []string{"cart:item:added", "cart:item:added"}, true},
		{"too many repeats", []string{"cart:item:added", "cart:item:added", "cart:item:added"}, false},
		{"wrong order", []string{"cart:synced", "wishlist:item:added"}, false},
		{"missing topic", []string{"cart:cleared"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assertEventOrder(trace, Assertion{Topics: tt.topics})
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestAssertFinalState(t *testing.T) {
	result := NewResult()
	result.State["default/cart"] = StateSnapshot{Count: 3, Total: 250, Items: []string{"a", "b"}, Quantities: []int{2, 1}}
	result.State["remote/wishlist"] = StateSnapshot{Missing: true, Items: []string{}, Quantities: []int{}}

	tests := []struct {
		name    string
		a       Assertion
		wantErr string
	}{
		{
			name: "all fields match",
			a: Assertion{Kind: "cart", Expect: &StateExpect{
				Count: intPtr(3), Total: int64Ptr(250), Items: []string{"a", "b"}, Quantities: []int{2, 1},
			}},
		},
		{
			name: "subset",
			a:    Assertion{Kind: "cart", Expect: &StateExpect{Count: intPtr(3)}},
		},
		{
			name: "missing remote record",
			a:    Assertion{Device: RemoteDevice, Kind: "wishlist", Expect: &StateExpect{Missing: true}},
		},
		{
			name:    "count mismatch",
			a:       Assertion{Kind: "cart", Expect: &StateExpect{Count: intPtr(1)}},
			wantErr: "count=1, got 3",
		},
		{
			name:    "total mismatch",
			a:       Assertion{Kind: "cart", Expect: &StateExpect{Total: int64Ptr(10)}},
			wantErr: "total=10, got 250",
		},
		{
			name:    "item order matters",
			a:       Assertion{Kind: "cart", Expect: &StateExpect{Items: []string{"b", "a"}}},
			wantErr: "items=[b a], got [a b]",
		},
		{
			name:    "present when missing expected",
			a:       Assertion{Kind: "cart", Expect: &StateExpect{Missing: true}},
			wantErr: "missing=true, got false",
		},
		{
			name:    "unknown device",
			a:       Assertion{Device: "tablet", Kind: "cart", Expect: &StateExpect{}},
			wantErr: "state for tablet/cart",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assertFinalState(result, tt.a)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEvaluateAssertions_CollectsAll(t *testing.T) {
	result := NewResult()
	result.Trace = sampleTrace()

	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertEventCount, Topic: "cart:synced", Count: 1},
		{Type: AssertEventCount, Topic: "cart:cleared", Count: 1},
		{Type: AssertEventOrder, Topics: []string{"cart:synced", "cart:item:added"}},
	})

	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "assertions[1]")
	assert.Contains(t, errs[1], "assertions[2]")
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{
		Type:     AssertEventCount,
		Expected: "cart:cleared occurs 1 time(s)",
		Actual:   "occurs 0 time(s)",
		Trace:    sampleTrace()[:1],
	}

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: event_count")
	assert.Contains(t, msg, "Expected: cart:cleared occurs 1 time(s)")
	assert.Contains(t, msg, "[1] default cart:item:added entry-1 (a x1) count=1 total=1.00")
}
