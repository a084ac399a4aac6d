package nodes

import (
	"context"

	"go.uber.org/atomic"
)

// settlement states for a future. Mirrors the PENDING/FULFILLED/REJECTED
// trio in quantcast/promise's CompletablePromise, narrowed to the two
// terminal states this engine needs.
const (
	statePending uint32 = iota
	stateSucceeded
	stateFailed
)

// Future is the one-shot result handle returned by Node.Apply. It never
// transitions more than once: Wait returns as soon as the underlying Node
// has settled to success or failure, or earlier if ctx is done first.
type Future interface {
	// Wait blocks until the future settles or ctx is cancelled, whichever
	// happens first. A ctx cancellation does not affect the underlying
	// computation, which keeps running to completion in the background:
	// the engine never cancels a node's own work on a caller's behalf.
	Wait(ctx context.Context) error

	// Done returns a channel that is closed once the future has settled.
	Done() <-chan struct{}
}

// future is the concrete settlement primitive backing every Node. State
// transitions use an atomic word (go.uber.org/atomic, as pulled in by
// uber-go/dig) guarded by a compare-and-swap so that concurrent settlers
// agree on exactly one winner; the losing settle calls are no-ops. A future
// transitions exactly once and the result is permanent thereafter.
type future struct {
	state atomic.Uint32
	done  chan struct{}
	value any
	err   error
}

func newFuture() *future {
	return &future{done: make(chan struct{})}
}

// settleValue transitions the future to success exactly once. Subsequent
// calls (success or failure) are ignored.
func (f *future) settleValue(v any) {
	if !f.state.CAS(statePending, stateSucceeded) {
		return
	}
	f.value = v
	close(f.done)
}

// settleError transitions the future to failure exactly once. Subsequent
// calls (success or failure) are ignored.
func (f *future) settleError(err error) {
	if !f.state.CAS(statePending, stateFailed) {
		return
	}
	f.err = err
	close(f.done)
}

func (f *future) Settled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

func (f *future) Failed() bool {
	return f.state.Load() == stateFailed
}

func (f *future) Done() <-chan struct{} {
	return f.done
}

func (f *future) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// result returns the settled value/error. Callers must only invoke it after
// the future has settled (Done is closed); it does not block.
func (f *future) result() (any, error) {
	return f.value, f.err
}
