// Package trace provides concrete Observer implementations over the nodes
// package's lifecycle event stream: an in-memory recorder, a predicate
// filter, and a multi-target fan-out, composable the way a logging
// middleware's handlers chain.
package trace

import (
	"sync"

	"github.com/twitter/nodes"
)

// Recorder is a nodes.Observer that appends every Event it receives to an
// in-memory, thread-safe log, for use in tests and local debugging.
type Recorder struct {
	mu     sync.Mutex
	events []nodes.Event
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// ObserveNode implements nodes.Observer.
func (r *Recorder) ObserveNode(e nodes.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a snapshot of every Event recorded so far, in arrival
// order.
func (r *Recorder) Events() []nodes.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]nodes.Event, len(r.events))
	copy(out, r.events)
	return out
}

// ForNode filters the recorded events down to those for the named node.
func (r *Recorder) ForNode(name string) []nodes.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []nodes.Event
	for _, e := range r.events {
		if e.Node == name {
			out = append(out, e)
		}
	}
	return out
}

// Reset clears the recorded log.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// Filter wraps a nodes.Observer so only events matching Keep are forwarded
// to Next.
type Filter struct {
	Keep func(nodes.Event) bool
	Next nodes.Observer
}

// ObserveNode implements nodes.Observer.
func (f *Filter) ObserveNode(e nodes.Event) {
	if f.Keep == nil || f.Keep(e) {
		f.Next.ObserveNode(e)
	}
}

// FanOut broadcasts every Event to each of Targets.
type FanOut struct {
	Targets []nodes.Observer
}

// ObserveNode implements nodes.Observer.
func (fo *FanOut) ObserveNode(e nodes.Event) {
	for _, t := range fo.Targets {
		t.ObserveNode(e)
	}
}
