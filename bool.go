package nodes

import (
	"context"
	"fmt"
	"reflect"
)

// booleanNode builds a combinator node with no declared slots: operands are
// applied and inspected directly from the closure via peek, rather than
// through the generic required/optional join, because the eager/lazy
// short-circuit rules these combinators need don't map onto "some required
// slots failed, propagate the first one". A false operand must win over a
// later operand's failure, which plain slot joining can't express.
func booleanNode(name string, body Body) Node {
	nd, err := assemble(nodeSpec{
		kind: anonymousKind(0),
		name: name,
		body: body,
	})
	if err != nil {
		panic(err)
	}
	return nd
}

func settledBool(op Node, index int) (bool, error, bool) {
	val, err, settled := peek(op)
	if !settled {
		return false, fmt.Errorf("nodes: operand %d reported not settled after wait", index), false
	}
	if err != nil {
		return false, err, false
	}
	b, ok := val.(bool)
	if !ok {
		return false, fmt.Errorf("nodes: operand %d settled to a non-bool value: %v", index, val), false
	}
	return b, nil, true
}

// And returns the eager conjunction of operands: every operand is applied
// concurrently, but the result is resolved in declared order. A false
// operand wins over a later operand's failure, preserving short-circuit
// evaluation order for the eager variant.
func And(name string, operands ...Node) Node {
	return booleanNode(name, func(ctx context.Context, in Inputs) (any, error) {
		for _, op := range operands {
			op.Apply(ctx)
		}
		for _, op := range operands {
			_ = op.Apply(ctx).Wait(ctx)
		}
		for i, op := range operands {
			b, err, ok := settledBool(op, i)
			if ok && !b {
				return false, nil
			}
			if err != nil {
				return nil, err
			}
		}
		return true, nil
	})
}

// Or is the eager disjunction counterpart to And: a true operand wins over a
// later operand's failure.
func Or(name string, operands ...Node) Node {
	return booleanNode(name, func(ctx context.Context, in Inputs) (any, error) {
		for _, op := range operands {
			op.Apply(ctx)
		}
		for _, op := range operands {
			_ = op.Apply(ctx).Wait(ctx)
		}
		for i, op := range operands {
			b, err, ok := settledBool(op, i)
			if ok && b {
				return true, nil
			}
			if err != nil {
				return nil, err
			}
		}
		return false, nil
	})
}

// LazyAnd evaluates operands strictly left to right, applying operand i+1
// only once operand i has settled true. A false or failed operand stops
// evaluation immediately: later operands are never applied.
func LazyAnd(name string, operands ...Node) Node {
	return booleanNode(name, func(ctx context.Context, in Inputs) (any, error) {
		for i, op := range operands {
			if err := op.Apply(ctx).Wait(ctx); err != nil {
				return nil, err
			}
			b, err, ok := settledBool(op, i)
			if err != nil {
				return nil, err
			}
			if !ok || !b {
				return false, nil
			}
		}
		return true, nil
	})
}

// LazyOr is the true-short-circuiting counterpart to LazyAnd.
func LazyOr(name string, operands ...Node) Node {
	return booleanNode(name, func(ctx context.Context, in Inputs) (any, error) {
		for i, op := range operands {
			if err := op.Apply(ctx).Wait(ctx); err != nil {
				return nil, err
			}
			b, err, ok := settledBool(op, i)
			if err != nil {
				return nil, err
			}
			if ok && b {
				return true, nil
			}
		}
		return false, nil
	})
}

// Not negates dep's settled boolean value. dep's failure propagates
// verbatim.
func Not(dep Node, name string) Node {
	if name == "" {
		name = dep.Name() + ".not"
	}
	return mapNode(dep, name, func(ctx context.Context, in Inputs) (any, error) {
		b, ok := in.Value("0").(bool)
		if !ok {
			return nil, fmt.Errorf("nodes: not: operand settled to a non-bool value: %v", in.Value("0"))
		}
		return !b, nil
	}, false)
}

// Equals compares a and b's settled values with reflect.DeepEqual once both
// succeed.
func Equals(a, b Node, name string) Node {
	return mapNodeN([]Node{a, b}, name, func(ctx context.Context, in Inputs) (any, error) {
		return reflect.DeepEqual(in.Value(slot(0)), in.Value(slot(1))), nil
	}, false)
}
