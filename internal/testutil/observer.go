package testutil

import (
	"sync"

	"github.com/twitter/nodes"
)

// RecordingObserver is a minimal nodes.Observer for assertions in the
// nodes package's own tests, independent of the trace package's Recorder
// so those tests do not depend on the trace package.
type RecordingObserver struct {
	mu     sync.Mutex
	events []nodes.Event
}

// NewRecordingObserver returns an empty RecordingObserver.
func NewRecordingObserver() *RecordingObserver {
	return &RecordingObserver{}
}

// ObserveNode implements nodes.Observer.
func (r *RecordingObserver) ObserveNode(e nodes.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a snapshot of every recorded event.
func (r *RecordingObserver) Events() []nodes.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]nodes.Event, len(r.events))
	copy(out, r.events)
	return out
}

// CountType returns how many recorded events have the given type.
func (r *RecordingObserver) CountType(t nodes.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == t {
			n++
		}
	}
	return n
}
