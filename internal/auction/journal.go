package auction

import (
	"errors"
)

// journal records compensating actions for the steps of a multi-step
// mutation. On failure the steps are undone in reverse order.
type journal struct {
	undo   []func() error
	events []Event
}

// record registers the inverse of a step that just succeeded.
func (j *journal) record(undo func() error) {
	j.undo = append(j.undo, undo)
}

// emit stages an event. Staged events are published only on commit.
func (j *journal) emit(ev Event) {
	j.events = append(j.events, ev)
}

// rollback runs every compensating action, newest first, and reports the ones
// that failed.
func (j *journal) rollback() error {
	var errs []error
	for i := len(j.undo) - 1; i >= 0; i-- {
		if err := j.undo[i](); err != nil {
			errs = append(errs, err)
		}
	}
	j.undo = nil
	j.events = nil
	return errors.Join(errs...)
}
