package nodes

import (
	"context"
	"sync"
)

// valueSlotKind is the one-slot kind backing Optionalize. Its slot is
// declared optional so that a failed or null-settling operand never
// propagates through join as an error. join absorbs an optional slot's
// failure into Optional{} instead, which is exactly the behavior Optionalize
// needs from its own operand. Optionalize binds this slot directly, never
// through Builder, so there's no risk of Builder's auto-wrap recursing back
// into Optionalize.
var valueSlotKind = NewKind("value", SlotSpec{ID: "0", Required: false})

func preSettled(kind Kind, name string) *node {
	n := &node{
		kind:       kind,
		name:       name,
		deps:       map[SlotID]Node{},
		settlement: newFuture(),
	}
	n.once.Do(func() {})
	return n
}

// Value returns a Node whose promise is already settled at construction
// time to v: applying or emitting it never blocks on a body execution.
// Null-admissible, since a caller can legitimately want a settled nil.
func Value(v any, name string) Node {
	if name == "" {
		name = "value"
	}
	n := preSettled(anonymousKind(0), name)
	n.canEmitNull = true
	n.settlement.settleValue(v)
	return n
}

// Fail returns a Node whose promise is already settled to err at
// construction time.
func Fail(err error, name string) Node {
	if name == "" {
		name = "fail"
	}
	n := preSettled(anonymousKind(0), name)
	n.settlement.settleError(err)
	return n
}

// NoValue returns a pre-settled, null-admissible Node whose value is nil.
func NoValue() Node {
	return Value(nil, "noValue")
}

// True and False are literal boolean value nodes.
func True() Node  { return Value(true, "true") }
func False() Node { return Value(false, "false") }

// Null is an alias for NoValue, named for parity with True/False as a
// literal constant node.
func Null() Node { return Value(nil, "null") }

// ValueFromSupplier returns a Node that computes its value by calling fn
// exactly once, on the first Apply, and caches the result thereafter. Unlike
// Value, evaluation is deferred; unlike a body-bearing node built through
// Builder, it has no dependencies to join.
func ValueFromSupplier(fn func() (any, error), name string) Node {
	if name == "" {
		name = "supplier"
	}
	nd, err := assemble(nodeSpec{
		kind:        anonymousKind(0),
		name:        name,
		canEmitNull: true,
		body: func(ctx context.Context, in Inputs) (any, error) {
			return fn()
		},
	})
	if err != nil {
		// anonymousKind(0) has no required slots; assemble cannot fail here.
		panic(err)
	}
	return nd
}

// AsyncFunc adapts an external asynchronous producer (a remote call, a
// background computation already in flight) into a Node via WrapFuture.
type AsyncFunc func(ctx context.Context) (any, error)

// WrapFuture returns a Node whose body is fn, run at most once on first
// Apply. It is the uniform adapter for any externally-asynchronous producer;
// this package makes no assumption about what fn actually does.
func WrapFuture(fn AsyncFunc, name string) Node {
	if name == "" {
		name = "wrapped"
	}
	nd, err := assemble(nodeSpec{
		kind: anonymousKind(0),
		name: name,
		body: func(ctx context.Context, in Inputs) (any, error) {
			return fn(ctx)
		},
	})
	if err != nil {
		panic(err)
	}
	return nd
}

var (
	absentOnce sync.Once
	absentNode Node
)

// Absent returns the shared, pre-settled optional-wrapped Node representing
// "no value", used by Builder to default unbound optional slots.
func Absent() Node {
	absentOnce.Do(func() {
		n := preSettled(anonymousKind(0), "absent")
		n.optionalWrapper = true
		n.settlement.settleValue(Optional{})
		absentNode = n
	})
	return absentNode
}

// Optionalize wraps n so its result is always an Optional: present(v) if n
// settles successfully to a non-null v, absent if n fails or settles to
// null. Optionalize itself never fails. name defaults to n's name plus a
// ".optional" suffix.
func Optionalize(n Node, name string) Node {
	if name == "" {
		name = n.Name() + ".optional"
	}
	nd, err := assemble(nodeSpec{
		kind:            valueSlotKind,
		name:            name,
		bound:           map[SlotID]Node{"0": n},
		optionalWrapper: true,
		body: func(ctx context.Context, in Inputs) (any, error) {
			return in.Value("0"), nil
		},
	})
	if err != nil {
		panic(err)
	}
	return nd
}
