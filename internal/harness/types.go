package harness

import "github.com/roach88/gavel/internal/ir"

// Trace entry types.
const (
	TraceCall  = "call"
	TraceEvent = "event"
)

// TraceEntry is one call or event of a scenario run, in block order.
// Sweep events of a block come before its first call; each call is followed
// by the events it emitted.
type TraceEntry struct {
	Type  string `json:"type"`
	Block int64  `json:"block"`
	Index int    `json:"index"`

	// Call entries.
	Origin  string      `json:"origin,omitempty"`
	Args    ir.IRObject `json:"args,omitempty"`
	Outcome string      `json:"outcome,omitempty"`

	// Kind is the call kind or the event kind.
	Kind string `json:"kind"`

	// Event entries.
	Payload ir.IRObject `json:"payload,omitempty"`
}

// Object returns the canonical form of the entry. Call IDs are left out:
// they are covered by replay and would make traces unreadable.
func (e TraceEntry) Object() ir.IRObject {
	obj := ir.IRObject{
		"type":  ir.IRString(e.Type),
		"block": ir.IRInt(e.Block),
		"index": ir.IRInt(int64(e.Index)),
		"kind":  ir.IRString(e.Kind),
	}
	switch e.Type {
	case TraceCall:
		args := e.Args
		if args == nil {
			args = ir.IRObject{}
		}
		obj["origin"] = ir.IRString(e.Origin)
		obj["args"] = args
		obj["outcome"] = ir.IRString(e.Outcome)
	case TraceEvent:
		payload := e.Payload
		if payload == nil {
			payload = ir.IRObject{}
		}
		obj["payload"] = payload
	}
	return obj
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every call expectation and assertion held.
	Pass bool `json:"pass"`

	Trace  []TraceEntry `json:"trace"`
	Errors []string     `json:"errors,omitempty"`

	// State is the final chain snapshot that final_state assertions read.
	State ir.IRObject `json:"state,omitempty"`

	Head      int64  `json:"head"`
	StateRoot string `json:"state_root"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEntry{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Events returns the event entries of the trace.
func (r *Result) Events() []TraceEntry {
	var out []TraceEntry
	for _, e := range r.Trace {
		if e.Type == TraceEvent {
			out = append(out, e)
		}
	}
	return out
}
