// Package nodes implements an asynchronous dependency-graph evaluator: a
// small runtime for composing computations as a directed acyclic graph of
// Nodes, where each Node is a deferred, at-most-once computation that runs
// only after all of its required inputs complete successfully.
//
// A Node is built with a Builder (see builder.go) that binds named slots to
// child Nodes, wraps optional slots so their failure or null value degrades
// to "absent" rather than propagating, and defaults any unbound optional
// slot to a shared absent sentinel. Applying the root Node triggers
// recursive, at-most-once evaluation of the whole graph; downstream and
// sibling requests for the same Node observe the same settled result.
package nodes

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Node is a handle to a single, lazily and at-most-once computed value.
type Node interface {
	// Apply schedules this node's (and transitively, its dependencies')
	// evaluation on first call and returns a Future for the result.
	// Subsequent calls are idempotent and return the same Future.
	Apply(ctx context.Context) Future

	// Emit reads the already-settled value. It is only valid after the
	// node's Future has resolved to success; calling it on a pending or
	// failed node reports an error rather than blocking or panicking.
	Emit() (any, error)

	// Name returns the node's display name (kind name, or an explicit
	// override), with its instance key appended if one was set.
	Name() string
}

// Body is the deferred computation a Node runs once its dependency join and
// decider gate both pass. in provides access to each bound slot's settled
// value (already unwrapped for required slots, still Optional-wrapped for
// optional ones).
type Body func(ctx context.Context, in Inputs) (any, error)

// Inputs exposes the settled values of a node's bound dependencies, keyed
// by slot.
type Inputs map[SlotID]any

// Value returns the raw settled value bound to id, or nil if absent.
func (in Inputs) Value(id SlotID) any {
	return in[id]
}

// Optional returns the slot's value as an Optional, regardless of whether
// the underlying slot was declared required or optional.
func (in Inputs) Optional(id SlotID) Optional {
	v, ok := in[id]
	if !ok || v == nil {
		return Optional{}
	}
	if o, ok := v.(Optional); ok {
		return o
	}
	return Optional{Present: true, Value: v}
}

// Optional is the presence-wrapped value produced by an optional edge, by
// Optionalize, and by ToSafeHandle's intermediate representation.
type Optional struct {
	Present bool
	Value   any
}

// ValueOr returns the wrapped value, or fallback if the Optional is absent.
func (o Optional) ValueOr(fallback any) any {
	if !o.Present {
		return fallback
	}
	return o.Value
}

func isNullish(v any) bool {
	if v == nil {
		return true
	}
	if o, ok := v.(Optional); ok {
		return !o.Present
	}
	return false
}

// peeker is satisfied by every concrete Node implementation in this
// package; it lets the join barrier read a settled dependency's verbatim
// result (value and error, distinctly) without going through the
// programmer-facing Emit contract, which collapses both "pending" and
// "failed" into opaque sentinel errors.
type peeker interface {
	peekResult() (value any, err error, settled bool)
}

func peek(n Node) (any, error, bool) {
	p, ok := n.(peeker)
	if !ok {
		return nil, fmt.Errorf("nodes: %T does not support result introspection", n), false
	}
	return p.peekResult()
}

// node is the engine's concrete Node implementation, produced by Builder.
type node struct {
	kind  Kind
	name  string
	key   string
	order []SlotID
	deps  map[SlotID]Node

	sinks      []Node
	decider    func() bool
	deciderKey string

	canEmitNull     bool
	optionalWrapper bool

	body Body

	subgraph *Subgraph

	once       sync.Once
	settlement *future
	startedAt  time.Time
}

func (n *node) Name() string {
	if n.key == "" {
		return n.name
	}
	return n.name + "[" + n.key + "]"
}

func (n *node) Apply(ctx context.Context) Future {
	n.once.Do(func() {
		observe(n, Event{Type: EventApplied, Node: n.Name()})
		go n.run(ctx)
	})
	return n.settlement
}

func (n *node) Emit() (any, error) {
	return emitFuture(n.settlement)
}

func (n *node) peekResult() (any, error, bool) {
	return peekFuture(n.settlement)
}

func (n *node) run(ctx context.Context) {
	n.startedAt = time.Now()

	defer func() {
		for _, s := range n.sinks {
			s := s
			observe(n, Event{Type: EventSinkStarted, Node: s.Name()})
			go s.Apply(ctx)
		}
	}()

	observe(n, Event{Type: EventJoining, Node: n.Name()})
	values, err := n.join(ctx)
	if err != nil {
		n.settlement.settleError(err)
		observe(n, Event{Type: EventSettled, Node: n.Name(), Err: err})
		return
	}

	observe(n, Event{Type: EventGated, Node: n.Name()})
	if n.decider != nil && !n.decider() {
		n.settleGated()
		return
	}

	observe(n, Event{Type: EventRunning, Node: n.Name()})
	n.runBody(ctx, values)
}

// join evaluates every bound slot concurrently via errgroup.Group and waits
// for all of them to settle before returning. The errgroup stage only
// blocks for settlement (or ctx cancellation); it deliberately ignores a
// dependency's own settled error, since an optional slot's failure must not
// abort the join before the peek loop below gets a chance to absorb it. The
// first required slot in declared order that failed has its error returned
// verbatim as this node's own settlement cause, and one that settled null
// or absent yields a RequiredNullError; an optional slot's failure degrades
// to Optional{} instead.
func (n *node) join(ctx context.Context) (Inputs, error) {
	var g errgroup.Group
	for _, id := range n.order {
		dep := n.deps[id]
		g.Go(func() error {
			f := dep.Apply(ctx)
			select {
			case <-f.Done():
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	required := requiredSlotsFor(n.kind)
	values := make(Inputs, len(n.order))
	for _, id := range n.order {
		val, depErr, settled := peek(n.deps[id])
		if !settled {
			return nil, fmt.Errorf("nodes: %q: dependency %q reported not settled after join", n.Name(), id)
		}

		if required[id] {
			if depErr != nil {
				return nil, depErr
			}
			if isNullish(val) {
				return nil, &RequiredNullError{Node: n.Name(), Slot: id}
			}
			values[id] = val
			continue
		}

		// Optional slot: absorb a failure into Optional{}. Builder binds
		// optional slots through Optionalize, and Optionalize itself binds
		// its operand to an optional slot, so this is where that operand's
		// failure is absorbed.
		if depErr != nil {
			values[id] = Optional{}
			continue
		}
		values[id] = val
	}
	return values, nil
}

func (n *node) settleGated() {
	switch {
	case n.optionalWrapper:
		n.settlement.settleValue(Optional{})
	case n.canEmitNull:
		n.settlement.settleValue(nil)
	default:
		err := &DeciderError{Node: n.Name(), Key: n.deciderKey}
		n.settlement.settleError(err)
		observe(n, Event{Type: EventSettled, Node: n.Name(), Err: err})
		return
	}
	observe(n, Event{Type: EventSettled, Node: n.Name()})
}

func (n *node) runBody(ctx context.Context, values Inputs) {
	result, err := n.safeBody(ctx, values)
	if err != nil {
		wrapped := newNodeError(n.Name(), err)
		n.settlement.settleError(wrapped)
		observe(n, Event{Type: EventSettled, Node: n.Name(), Err: wrapped})
		return
	}

	if isNullish(result) {
		switch {
		case n.optionalWrapper:
			n.settlement.settleValue(Optional{})
		case n.canEmitNull:
			n.settlement.settleValue(nil)
		default:
			nullErr := fmt.Errorf("nodes: %q: %w", n.Name(), ErrNullResult)
			n.settlement.settleError(nullErr)
			observe(n, Event{Type: EventSettled, Node: n.Name(), Err: nullErr})
			return
		}
		observe(n, Event{Type: EventSettled, Node: n.Name()})
		return
	}

	if n.optionalWrapper {
		result = Optional{Present: true, Value: result}
	}
	n.settlement.settleValue(result)
	observe(n, Event{Type: EventSettled, Node: n.Name()})
}

func (n *node) safeBody(ctx context.Context, values Inputs) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return n.body(ctx, values)
}

// emitFuture implements the Emit contract shared by every concrete Node
// kind in this package.
func emitFuture(f *future) (any, error) {
	if !f.Settled() {
		return nil, ErrNotSettled
	}
	if f.Failed() {
		_, cause := f.result()
		return nil, fmt.Errorf("%w: %v", ErrAlreadyFailed, cause)
	}
	v, _ := f.result()
	return v, nil
}

func peekFuture(f *future) (any, error, bool) {
	if !f.Settled() {
		return nil, nil, false
	}
	v, err := f.result()
	return v, err, true
}

// readOptional applies wrapped (expected to be an Optionalize-produced node,
// which never itself fails) and reads its settled Optional directly via
// peek. It deliberately bypasses the slot/join machinery: binding an
// Optional-valued node to a *required* slot would make join's required-null
// check misfire, since it can't tell an Optional{Present:false} success
// value apart from an actual null result.
func readOptional(ctx context.Context, wrapped Node) Optional {
	_ = wrapped.Apply(ctx).Wait(ctx)
	v, err, settled := peek(wrapped)
	if !settled || err != nil {
		return Optional{}
	}
	if o, ok := v.(Optional); ok {
		return o
	}
	return Optional{Present: true, Value: v}
}

// ToSafeHandle returns a Node that always succeeds: n's failure or null
// result becomes a nil value, n's non-null success passes through
// unchanged. It is Optionalize followed by an unwrap.
func ToSafeHandle(n Node) Node {
	wrapped := Optionalize(n, n.Name()+".safe")
	name := n.Name() + ".safe"
	nd, err := assemble(nodeSpec{
		kind:        anonymousKind(0),
		name:        name,
		canEmitNull: true,
		body: func(ctx context.Context, in Inputs) (any, error) {
			return readOptional(ctx, wrapped).ValueOr(nil), nil
		},
	})
	if err != nil {
		panic(err)
	}
	return nd
}
