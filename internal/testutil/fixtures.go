// Package testutil provides fixture Nodes and a recording Observer shared
// across the nodes package's test files.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/twitter/nodes"
)

// Fixtures builds small, purpose-built Nodes for exercising the engine
// without each test hand-rolling a Builder call.
type Fixtures struct{}

// NewFixtures returns a Fixtures helper.
func NewFixtures() *Fixtures {
	return &Fixtures{}
}

// Passthrough returns a Node that emits dep's own settled value unchanged.
func (f *Fixtures) Passthrough(name string, dep nodes.Node) nodes.Node {
	return nodes.Map(dep, name, func(v any) (any, error) {
		return v, nil
	})
}

// Transform returns a Node that applies fn to dep's settled value.
func (f *Fixtures) Transform(name string, dep nodes.Node, fn func(any) any) nodes.Node {
	return nodes.Map(dep, name, func(v any) (any, error) {
		return fn(v), nil
	})
}

// Failing returns a Node whose body always fails with err.
func (f *Fixtures) Failing(name string, err error) nodes.Node {
	return nodes.WrapFuture(func(ctx context.Context) (any, error) {
		return nil, err
	}, name)
}

// Delayed returns a Node that sleeps for delay before settling to value,
// honoring ctx cancellation while it waits.
func (f *Fixtures) Delayed(name string, delay time.Duration, value any) nodes.Node {
	return nodes.WrapFuture(func(ctx context.Context) (any, error) {
		select {
		case <-time.After(delay):
			return value, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}, name)
}

// Counter is a shared in-memory count that a CounterNode's body increments
// each time it runs, so tests can assert a body ran exactly once even
// under concurrent Apply calls.
type Counter struct {
	mu    sync.Mutex
	count int
}

// Count returns how many times the counter's body has executed so far.
func (c *Counter) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// CounterNode returns a Node backed by c: every execution of its body
// increments c and the node settles to the post-increment count.
func (f *Fixtures) CounterNode(name string, c *Counter) nodes.Node {
	return nodes.WrapFuture(func(ctx context.Context) (any, error) {
		c.mu.Lock()
		c.count++
		n := c.count
		c.mu.Unlock()
		return n, nil
	}, name)
}

// Panicking returns a Node whose body panics with msg, exercising the
// engine's recover-into-NodeError path.
func (f *Fixtures) Panicking(name, msg string) nodes.Node {
	return nodes.WrapFuture(func(ctx context.Context) (any, error) {
		panic(msg)
	}, name)
}

// Flag is a settable boolean a test can flip between node applications, for
// building deciders.
type Flag struct {
	mu sync.Mutex
	v  bool
}

// NewFlag returns a Flag initialized to v.
func NewFlag(v bool) *Flag {
	return &Flag{v: v}
}

// Set updates the flag's value.
func (f *Flag) Set(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.v = v
}

// Get reads the flag's current value; it also serves directly as a
// decider function.
func (f *Flag) Get() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.v
}

// GatedNode returns a Node whose decider is decide.Get and whose body settles to
// value when the decider passes.
func (f *Fixtures) GatedNode(name string, decide *Flag, value any) nodes.Node {
	n, err := nodes.NewBuilder(anonKind0).
		Named(name).
		WithDecider(name+".decider", decide.Get).
		WithBody(func(ctx context.Context, in nodes.Inputs) (any, error) {
			return value, nil
		}).
		Build()
	if err != nil {
		panic(fmt.Sprintf("testutil: GatedNode build: %v", err))
	}
	return n
}

// anonKind0 is a fixture-local, zero-slot Kind for building standalone test
// nodes directly through Builder rather than through this package's
// internal-only anonymous-kind cache.
var anonKind0 = nodes.NewKind("testutil.node")
