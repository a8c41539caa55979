package harness

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/gavel/internal/ir"
)

// AssertionError is a failed assertion with enough context to debug it.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string

	// Events is the full event trace, printed after the summary.
	Events []TraceEntry
}

func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if len(e.Events) > 0 {
		fmt.Fprintf(&buf, "\nEvents:\n")
		for _, ev := range e.Events {
			fmt.Fprintf(&buf, "  [%d.%d] %s %s\n", ev.Block, ev.Index, ev.Kind, describe(ev.Payload))
		}
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion and returns the failure
// messages, in assertion order.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertEventEmitted:
			err = assertEventEmitted(result.Events(), a)
		case AssertEventOrder:
			err = assertEventOrder(result.Events(), a)
		case AssertEventCount:
			err = assertEventCount(result.Events(), a)
		case AssertFinalState:
			err = assertFinalState(result.State, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func assertEventEmitted(events []TraceEntry, a Assertion) error {
	for _, ev := range events {
		if ev.Kind == a.Kind && matchObject(ev.Payload, a.Payload) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertEventEmitted,
		Expected: fmt.Sprintf("event %s with payload %v", a.Kind, a.Payload),
		Actual:   "not found",
		Events:   events,
	}
}

// assertEventOrder checks that the first occurrences of the kinds appear in
// the given order. Other events may come in between.
func assertEventOrder(events []TraceEntry, a Assertion) error {
	positions := make(map[string]int, len(a.Kinds))
	for i, ev := range events {
		if _, seen := positions[ev.Kind]; !seen {
			positions[ev.Kind] = i
		}
	}
	for _, kind := range a.Kinds {
		if _, ok := positions[kind]; !ok {
			return &AssertionError{
				Type:     AssertEventOrder,
				Expected: fmt.Sprintf("all kinds present: %v", a.Kinds),
				Actual:   fmt.Sprintf("missing kind: %s", kind),
				Events:   events,
			}
		}
	}
	for i := 1; i < len(a.Kinds); i++ {
		prev, curr := a.Kinds[i-1], a.Kinds[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertEventOrder,
				Expected: fmt.Sprintf("kinds in order: %v", a.Kinds),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev]+1, curr, positions[curr]+1),
				Events: events,
			}
		}
	}
	return nil
}

func assertEventCount(events []TraceEntry, a Assertion) error {
	count := 0
	for _, ev := range events {
		if ev.Kind == a.Kind {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertEventCount,
			Expected: fmt.Sprintf("%d occurrences of %s", a.Count, a.Kind),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Events:   events,
		}
	}
	return nil
}

func assertFinalState(state ir.IRObject, a Assertion) error {
	got, ok := lookup(state, a.Path)
	if a.Absent {
		if ok {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("nothing at %s", a.Path),
				Actual:   describe(got),
			}
		}
		return nil
	}
	if !ok {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("%v at %s", a.Expect, a.Path),
			Actual:   "path not found",
		}
	}
	if !matchValue(got, a.Expect) {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("%v at %s", a.Expect, a.Path),
			Actual:   describe(got),
		}
	}
	return nil
}

// lookup follows a dot separated path through objects and arrays.
// Array elements are addressed by index.
func lookup(root ir.IRObject, path string) (ir.IRValue, bool) {
	var cur ir.IRValue = root
	for _, seg := range strings.Split(path, ".") {
		switch v := cur.(type) {
		case ir.IRObject:
			next, ok := v[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case ir.IRArray:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(v) {
				return nil, false
			}
			cur = v[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// matchObject reports whether every key of want matches in got.
func matchObject(got ir.IRObject, want map[string]any) bool {
	for k, w := range want {
		g, ok := got[k]
		if !ok || !matchValue(g, w) {
			return false
		}
	}
	return true
}

// matchValue compares a state value with a YAML expectation. Objects match
// as subsets, arrays element by element. Balances are decimal strings in
// the state, so an integer expectation matches its decimal form.
func matchValue(got ir.IRValue, want any) bool {
	switch w := want.(type) {
	case map[string]any:
		obj, ok := got.(ir.IRObject)
		return ok && matchObject(obj, w)
	case []any:
		arr, ok := got.(ir.IRArray)
		if !ok || len(arr) != len(w) {
			return false
		}
		for i := range arr {
			if !matchValue(arr[i], w[i]) {
				return false
			}
		}
		return true
	case bool:
		b, ok := got.(ir.IRBool)
		return ok && bool(b) == w
	case string:
		s, ok := got.(ir.IRString)
		return ok && string(s) == w
	case int:
		return matchInt(got, strconv.Itoa(w))
	case int64:
		return matchInt(got, strconv.FormatInt(w, 10))
	case uint64:
		return matchInt(got, strconv.FormatUint(w, 10))
	default:
		return false
	}
}

func matchInt(got ir.IRValue, want string) bool {
	switch g := got.(type) {
	case ir.IRInt:
		return strconv.FormatInt(int64(g), 10) == want
	case ir.IRString:
		return string(g) == want
	default:
		return false
	}
}

// describe renders a value as canonical JSON for messages.
func describe(v ir.IRValue) string {
	if v == nil {
		return "{}"
	}
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
