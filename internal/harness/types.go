package harness

import (
	"github.com/roach88/cartsync/internal/collection"
	"github.com/roach88/cartsync/internal/engine"
)

// TraceEvent is one change event as observed by the harness.
type TraceEvent struct {
	Seq      int64            `json:"seq"`
	Device   string           `json:"device"`
	Topic    string           `json:"topic"`
	EntryID  string           `json:"entry_id,omitempty"`
	Item     string           `json:"item,omitempty"`
	Quantity int              `json:"quantity,omitempty"`
	Count    int              `json:"count"`
	Total    collection.Money `json:"total"`
}

// newTraceEvent flattens ev. seq is the harness-wide position, not the
// per-engine sequence.
func newTraceEvent(seq int64, device string, ev engine.ChangeEvent) TraceEvent {
	te := TraceEvent{
		Seq:     seq,
		Device:  device,
		Topic:   ev.Topic,
		EntryID: ev.EntryID,
		Count:   ev.Collection.Count,
		Total:   ev.Collection.Total,
	}
	if ev.Entry != nil {
		te.Item = string(ev.Entry.Item.Key())
		te.Quantity = ev.Entry.Quantity
	}
	return te
}

// StateSnapshot summarizes a collection for assertions and golden files.
type StateSnapshot struct {
	Missing    bool             `json:"missing,omitempty"`
	Count      int              `json:"count"`
	Total      collection.Money `json:"total"`
	Items      []string         `json:"items"`
	Quantities []int            `json:"quantities"`
}

func snapshotOf(c collection.Collection) StateSnapshot {
	s := StateSnapshot{
		Count:      c.Count,
		Total:      c.Total,
		Items:      make([]string, 0, len(c.Entries)),
		Quantities: make([]int, 0, len(c.Entries)),
	}
	for _, e := range c.Entries {
		s.Items = append(s.Items, string(e.Item.Key()))
		s.Quantities = append(s.Quantities, e.Quantity)
	}
	return s
}

// StateKey names a collection in Result.State, e.g. "phone/cart".
func StateKey(device string, kind collection.Kind) string {
	return device + "/" + kind.String()
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every step behaved as expected and every assertion
	// held.
	Pass bool `json:"pass"`

	// Trace holds every change event in delivery order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State holds the final collections keyed by StateKey, including the
	// remote snapshots when an owner is configured.
	State map[string]StateSnapshot `json:"state"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		State:  make(map[string]StateSnapshot),
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
