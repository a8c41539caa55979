package ir

// OriginRoot is the origin string of privileged calls. Any other origin is a
// signed account id.
const OriginRoot = "root"

// OutcomeOK is the receipt outcome of a call that applied successfully.
// Failed calls carry their error code instead.
const OutcomeOK = "Ok"

// Call is a submitted call. ID, Block and Index are assigned at inclusion.
type Call struct {
	ID     string   `json:"id"`
	Block  int64    `json:"block"`
	Index  int      `json:"index"`
	Origin string   `json:"origin"`
	Kind   string   `json:"kind"`
	Args   IRObject `json:"args"`
}

// Receipt records how a call ended.
type Receipt struct {
	CallID  string `json:"call_id"`
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

// OK reports whether the call applied.
func (r Receipt) OK() bool {
	return r.Outcome == OutcomeOK
}

// EventRecord is an emitted event positioned in its block.
// CallID is empty for events raised by the block-start sweep.
type EventRecord struct {
	Block   int64    `json:"block"`
	Index   int      `json:"index"`
	CallID  string   `json:"call_id,omitempty"`
	Kind    string   `json:"kind"`
	Payload IRObject `json:"payload"`
}

// Object returns the canonical form of the event.
func (e EventRecord) Object() IRObject {
	payload := e.Payload
	if payload == nil {
		payload = IRObject{}
	}
	return IRObject{
		"block":   IRInt(e.Block),
		"index":   IRInt(int64(e.Index)),
		"call_id": IRString(e.CallID),
		"kind":    IRString(e.Kind),
		"payload": payload,
	}
}

// SweepStats summarizes the block-start timeout sweep.
type SweepStats struct {
	Resolved int `json:"resolved"`
	Failed   int `json:"failed"`
	Deferred int `json:"deferred"`
}

// Block is everything a node persists for one block.
type Block struct {
	Number        int64         `json:"number"`
	StateRoot     string        `json:"state_root"`
	EventsHash    string        `json:"events_hash"`
	Sweep         SweepStats    `json:"sweep"`
	Calls         []Call        `json:"calls"`
	Receipts      []Receipt     `json:"receipts"`
	Events        []EventRecord `json:"events"`
	EngineVersion string        `json:"engine_version"`
}
