package nodes

import (
	"context"
	"fmt"
)

// mapNode is the shared low-level constructor behind Map, FlatMap,
// Predicate and Not: a single required dependency bound
// to anonymous slot "0", whose settled value (after join, already unwrapped
// per the usual required-slot rules) is handed to fn.
func mapNode(dep Node, name string, fn func(ctx context.Context, in Inputs) (any, error), canEmitNull bool) Node {
	nd, err := assemble(nodeSpec{
		kind:        anonymousKind(1),
		name:        name,
		bound:       map[SlotID]Node{"0": dep},
		canEmitNull: canEmitNull,
		body:        fn,
	})
	if err != nil {
		panic(err)
	}
	return nd
}

// mapNodeN is mapNode generalized to an arbitrary slice of dependencies,
// bound to positional slots "0".."len(deps)-1" in order. Backs Map2..Map4,
// FlatMap2, Equals and Collect (and so SplitAndCollect), which (unlike the small fixed-arity
// anonymousKind slots) may need far more than DefaultSlotCardinality
// positions, so it builds its own uncapped Kind rather than going through
// the capped anonymousKind cache.
func mapNodeN(deps []Node, name string, fn func(ctx context.Context, in Inputs) (any, error), canEmitNull bool) Node {
	bound := make(map[SlotID]Node, len(deps))
	slots := make([]SlotSpec, len(deps))
	for i, d := range deps {
		id := SlotID(fmt.Sprintf("%d", i))
		bound[id] = d
		slots[i] = SlotSpec{ID: id, Required: true}
	}
	kind := &staticKind{name: fmt.Sprintf("positional[%d]", len(deps)), slots: slots}
	nd, err := assemble(nodeSpec{
		kind:        kind,
		name:        name,
		bound:       bound,
		canEmitNull: canEmitNull,
		body:        fn,
	})
	if err != nil {
		panic(err)
	}
	return nd
}

func slot(i int) SlotID { return SlotID(fmt.Sprintf("%d", i)) }

// Map returns a Node that applies fn to dep's settled value once dep
// succeeds. A failure of dep propagates verbatim; fn is never called. Map
// nodes are null-admissible: fn legitimately returning nil is a settled
// success, not ErrNullResult.
func Map(dep Node, name string, fn func(v any) (any, error)) Node {
	return mapNode(dep, name, func(ctx context.Context, in Inputs) (any, error) {
		return fn(in.Value("0"))
	}, true)
}

// MapOnSuccess is identical to Map, except that a failing or null-settling
// dep yields a null result instead of propagating the failure, and fn is
// never invoked. dep is read through Optionalize rather than bound as a
// required slot, since a required slot would turn dep's failure/null back
// into this node's own failure.
func MapOnSuccess(dep Node, name string, fn func(v any) (any, error)) Node {
	if name == "" {
		name = dep.Name() + ".mapOnSuccess"
	}
	wrapped := Optionalize(dep, "")
	nd, err := assemble(nodeSpec{
		kind:        anonymousKind(0),
		name:        name,
		canEmitNull: true,
		body: func(ctx context.Context, in Inputs) (any, error) {
			opt := readOptional(ctx, wrapped)
			if !opt.Present {
				return nil, nil
			}
			return fn(opt.Value)
		},
	})
	if err != nil {
		panic(err)
	}
	return nd
}

// FlatMap returns a Node that applies fn to dep's settled value to obtain a
// child Node, then applies and adopts that child's own settlement as its
// own. It is Map composed with a join on the produced Node.
func FlatMap(dep Node, name string, fn func(v any) (Node, error)) Node {
	return mapNode(dep, name, func(ctx context.Context, in Inputs) (any, error) {
		child, err := fn(in.Value("0"))
		if err != nil {
			return nil, err
		}
		if err := child.Apply(ctx).Wait(ctx); err != nil {
			return nil, err
		}
		return child.Emit()
	}, false)
}

// FlatMapWithDecider is FlatMap gated by a decider: when decide returns
// false the node settles to null instead of calling fn (or absent, if this
// node is itself bound into an optional slot elsewhere).
func FlatMapWithDecider(dep Node, name, deciderKey string, decide func() bool, fn func(v any) (Node, error)) Node {
	nd, err := assemble(nodeSpec{
		kind:        anonymousKind(1),
		name:        name,
		bound:       map[SlotID]Node{"0": dep},
		canEmitNull: true,
		decider:     decide,
		deciderKey:  deciderKey,
		body: func(ctx context.Context, in Inputs) (any, error) {
			child, err := fn(in.Value("0"))
			if err != nil {
				return nil, err
			}
			if err := child.Apply(ctx).Wait(ctx); err != nil {
				return nil, err
			}
			return child.Emit()
		},
	})
	if err != nil {
		panic(err)
	}
	return nd
}

// MapWithDecider is Map gated by a decider: when decide returns false the
// node settles to null instead of calling fn (or absent, if this node is
// itself bound into an optional slot elsewhere).
func MapWithDecider(dep Node, name, deciderKey string, decide func() bool, fn func(v any) (any, error)) Node {
	nd, err := assemble(nodeSpec{
		kind:        anonymousKind(1),
		name:        name,
		bound:       map[SlotID]Node{"0": dep},
		canEmitNull: true,
		decider:     decide,
		deciderKey:  deciderKey,
		body: func(ctx context.Context, in Inputs) (any, error) {
			return fn(in.Value("0"))
		},
	})
	if err != nil {
		panic(err)
	}
	return nd
}

// Predicate returns a boolean-valued Node computed from dep's settled value.
func Predicate(dep Node, name string, pred func(v any) bool) Node {
	return mapNode(dep, name, func(ctx context.Context, in Inputs) (any, error) {
		return pred(in.Value("0")), nil
	}, false)
}

// IsNull reports whether dep settled successfully to a null value. Unlike
// a plain Predicate, IsNull treats dep's own failure as "produced nothing"
// rather than propagating it: IsNull(dep) is true for a failed dep too. The
// wrapped node is read directly (readOptional), not through a required
// slot, since its Optional-typed success value would otherwise confuse
// join's required-null check.
func IsNull(dep Node, name string) Node {
	if name == "" {
		name = dep.Name() + ".isNull"
	}
	wrapped := Optionalize(dep, "")
	nd, err := assemble(nodeSpec{
		kind: anonymousKind(0),
		name: name,
		body: func(ctx context.Context, in Inputs) (any, error) {
			return !readOptional(ctx, wrapped).Present, nil
		},
	})
	if err != nil {
		panic(err)
	}
	return nd
}

// IsNotNull is the negation of IsNull.
func IsNotNull(dep Node, name string) Node {
	if name == "" {
		name = dep.Name() + ".isNotNull"
	}
	wrapped := Optionalize(dep, "")
	nd, err := assemble(nodeSpec{
		kind: anonymousKind(0),
		name: name,
		body: func(ctx context.Context, in Inputs) (any, error) {
			return readOptional(ctx, wrapped).Present, nil
		},
	})
	if err != nil {
		panic(err)
	}
	return nd
}

// Map2 applies fn to the settled values of a and b once both succeed.
func Map2[A, B, R any](a, b Node, name string, fn func(A, B) (R, error)) Node {
	return mapNodeN([]Node{a, b}, name, func(ctx context.Context, in Inputs) (any, error) {
		return fn(in.Value(slot(0)).(A), in.Value(slot(1)).(B))
	}, false)
}

// Map3 applies fn to the settled values of a, b, c once all three succeed.
func Map3[A, B, C, R any](a, b, c Node, name string, fn func(A, B, C) (R, error)) Node {
	return mapNodeN([]Node{a, b, c}, name, func(ctx context.Context, in Inputs) (any, error) {
		return fn(in.Value(slot(0)).(A), in.Value(slot(1)).(B), in.Value(slot(2)).(C))
	}, false)
}

// Map4 applies fn to the settled values of four dependencies once all
// succeed.
func Map4[A, B, C, D, R any](a, b, c, d Node, name string, fn func(A, B, C, D) (R, error)) Node {
	return mapNodeN([]Node{a, b, c, d}, name, func(ctx context.Context, in Inputs) (any, error) {
		return fn(
			in.Value(slot(0)).(A), in.Value(slot(1)).(B),
			in.Value(slot(2)).(C), in.Value(slot(3)).(D),
		)
	}, false)
}

// FlatMap2 is Map2 whose fn returns a child Node to adopt instead of a bare
// value.
func FlatMap2[A, B any](a, b Node, name string, fn func(A, B) (Node, error)) Node {
	return mapNodeN([]Node{a, b}, name, func(ctx context.Context, in Inputs) (any, error) {
		child, err := fn(in.Value(slot(0)).(A), in.Value(slot(1)).(B))
		if err != nil {
			return nil, err
		}
		if err := child.Apply(ctx).Wait(ctx); err != nil {
			return nil, err
		}
		return child.Emit()
	}, false)
}
