package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/cartsync/internal/collection"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, ev := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s %s", ev.Seq, ev.Device, ev.Topic)
		if ev.EntryID != "" {
			fmt.Fprintf(&buf, " %s (%s x%d)", ev.EntryID, ev.Item, ev.Quantity)
		}
		fmt.Fprintf(&buf, " count=%d total=%s\n", ev.Count, ev.Total)
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion against result and returns the
// failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertEventCount:
			err = assertEventCount(result.Trace, a)
		case AssertEventOrder:
			err = assertEventOrder(result.Trace, a)
		case AssertFinalState:
			err = assertFinalState(result, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

// assertEventCount checks the topic appears exactly Count times.
func assertEventCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if ev.Topic == a.Topic {
			count++
		}
	}

	if count != a.Count {
		return &AssertionError{
			Type:     AssertEventCount,
			Expected: fmt.Sprintf("%s occurs %d time(s)", a.Topic, a.Count),
			Actual:   fmt.Sprintf("occurs %d time(s)", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertEventOrder checks the topics occur in order. Other events may be
// interleaved; each expected topic matches the first occurrence after the
// previous match.
func assertEventOrder(trace []TraceEvent, a Assertion) error {
	pos := 0
	for _, want := range a.Topics {
		found := false
		for pos < len(trace) {
			ev := trace[pos]
			pos++
			if ev.Topic == want {
				found = true
				break
			}
		}
		if !found {
			return &AssertionError{
				Type:     AssertEventOrder,
				Expected: fmt.Sprintf("topics in order: %v", a.Topics),
				Actual:   fmt.Sprintf("%s not found after position %d", want, pos),
				Trace:    trace,
			}
		}
	}
	return nil
}

// assertFinalState checks one collection's final state.
func assertFinalState(result *Result, a Assertion) error {
	kind, err := collection.ParseKind(a.Kind)
	if err != nil {
		return err
	}
	device := a.Device
	if device == "" {
		device = DefaultDevice
	}
	key := StateKey(device, kind)

	got, ok := result.State[key]
	if !ok {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("state for %s", key),
			Actual:   "no such device or remote disabled",
			Trace:    result.Trace,
		}
	}

	var diffs []string
	exp := a.Expect
	if exp.Missing != got.Missing {
		diffs = append(diffs, fmt.Sprintf("missing=%t, got %t", exp.Missing, got.Missing))
	}
	if exp.Count != nil && *exp.Count != got.Count {
		diffs = append(diffs, fmt.Sprintf("count=%d, got %d", *exp.Count, got.Count))
	}
	if exp.Total != nil && collection.Money(*exp.Total) != got.Total {
		diffs = append(diffs, fmt.Sprintf("total=%d, got %d", *exp.Total, int64(got.Total)))
	}
	if exp.Items != nil && !slices.Equal(exp.Items, got.Items) {
		diffs = append(diffs, fmt.Sprintf("items=%v, got %v", exp.Items, got.Items))
	}
	if exp.Quantities != nil && !slices.Equal(exp.Quantities, got.Quantities) {
		diffs = append(diffs, fmt.Sprintf("quantities=%v, got %v", exp.Quantities, got.Quantities))
	}

	if len(diffs) > 0 {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: key + " " + strings.Join(diffs, "; "),
			Actual:   fmt.Sprintf("%+v", got),
			Trace:    result.Trace,
		}
	}
	return nil
}
