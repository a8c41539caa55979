package chain

import (
	"sync"

	"github.com/roach88/gavel/internal/ir"
)

// callQueue is a thread-safe FIFO of submitted calls waiting for a block.
//
// Submitters may be any goroutine (the node's stdin reader, tests); only the
// block producer takes from it. The signal channel lets Run wait for work
// without polling.
type callQueue struct {
	mu     sync.Mutex
	calls  []ir.Call
	closed bool
	signal chan struct{}
}

func newCallQueue() *callQueue {
	return &callQueue{signal: make(chan struct{}, 1)}
}

// Push appends a call. Returns false once the queue is closed.
func (q *callQueue) Push(c ir.Call) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.calls = append(q.calls, c)
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// Take removes up to n calls from the front, or every call when n <= 0.
// Calls beyond n stay queued in order.
func (q *callQueue) Take(n int) []ir.Call {
	q.mu.Lock()
	defer q.mu.Unlock()
	if n <= 0 || n > len(q.calls) {
		n = len(q.calls)
	}
	out := make([]ir.Call, n)
	copy(out, q.calls[:n])
	// Zero the taken slots so their args can be collected.
	clear(q.calls[:n])
	q.calls = q.calls[n:]
	if len(q.calls) == 0 {
		q.calls = nil
	}
	return out
}

// Wait returns a channel that receives when calls may be available. It is
// closed when the queue closes.
func (q *callQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of waiting calls.
func (q *callQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.calls)
}

// Close stops accepting calls and wakes any waiter.
func (q *callQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	// Drop a pending wakeup so the first receive after Close sees the close.
	select {
	case <-q.signal:
	default:
	}
	close(q.signal)
}

// Closed reports whether Close was called.
func (q *callQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
