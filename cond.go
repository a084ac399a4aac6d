package nodes

import "context"

func conditionalNode(name string, canEmitNull bool, body Body) Node {
	nd, err := assemble(nodeSpec{
		kind:        anonymousKind(0),
		name:        name,
		canEmitNull: canEmitNull,
		body:        body,
	})
	if err != nil {
		panic(err)
	}
	return nd
}

func evalCond(ctx context.Context, cond Node) (bool, error) {
	if err := cond.Apply(ctx).Wait(ctx); err != nil {
		return false, err
	}
	v, err, _ := peek(cond)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, &NodeError{Node: cond.Name(), err: ErrNullResult}
	}
	return b, nil
}

// IfThenElse applies cond; on true it applies and adopts thenNode's
// settlement, on false it adopts elseNode's. Only the selected branch is
// ever applied (true short-circuit): the other branch's cost is never paid.
func IfThenElse(cond, thenNode, elseNode Node, name string) Node {
	if name == "" {
		name = "ifThenElse"
	}
	return conditionalNode(name, false, func(ctx context.Context, in Inputs) (any, error) {
		b, err := evalCond(ctx, cond)
		if err != nil {
			return nil, err
		}
		branch := elseNode
		if b {
			branch = thenNode
		}
		if err := branch.Apply(ctx).Wait(ctx); err != nil {
			return nil, err
		}
		return branch.Emit()
	})
}

// IfThen applies thenNode only if cond settles true; otherwise the node
// settles to null.
func IfThen(cond, thenNode Node, name string) Node {
	if name == "" {
		name = "ifThen"
	}
	return conditionalNode(name, true, func(ctx context.Context, in Inputs) (any, error) {
		b, err := evalCond(ctx, cond)
		if err != nil {
			return nil, err
		}
		if !b {
			return nil, nil
		}
		if err := thenNode.Apply(ctx).Wait(ctx); err != nil {
			return nil, err
		}
		return thenNode.Emit()
	})
}

// When is an alias for IfThen, named for readability at call sites that
// read as a guard rather than a branch.
func When(cond, thenNode Node, name string) Node {
	if name == "" {
		name = "when"
	}
	return IfThen(cond, thenNode, name)
}

// Unless applies thenNode only if cond settles false.
func Unless(cond, thenNode Node, name string) Node {
	if name == "" {
		name = "unless"
	}
	return IfThen(Not(cond, ""), thenNode, name)
}

// IfSuccessThenElse gates on whether dep itself settles successfully,
// ignoring dep's value: on success it applies thenNode, on failure
// elseNode. dep's failure is absorbed rather than propagated.
func IfSuccessThenElse(dep, thenNode, elseNode Node, name string) Node {
	if name == "" {
		name = "ifSuccessThenElse"
	}
	return conditionalNode(name, false, func(ctx context.Context, in Inputs) (any, error) {
		err := dep.Apply(ctx).Wait(ctx)
		branch := elseNode
		if err == nil {
			if _, depErr, _ := peek(dep); depErr == nil {
				branch = thenNode
			}
		}
		if err := branch.Apply(ctx).Wait(ctx); err != nil {
			return nil, err
		}
		return branch.Emit()
	})
}

// IfSuccessThen is IfSuccessThenElse with a null-settling else branch.
func IfSuccessThen(dep, thenNode Node, name string) Node {
	if name == "" {
		name = "ifSuccessThen"
	}
	return conditionalNode(name, true, func(ctx context.Context, in Inputs) (any, error) {
		if err := dep.Apply(ctx).Wait(ctx); err != nil {
			return nil, nil
		}
		if _, depErr, _ := peek(dep); depErr != nil {
			return nil, nil
		}
		if err := thenNode.Apply(ctx).Wait(ctx); err != nil {
			return nil, err
		}
		return thenNode.Emit()
	})
}

// OrElse returns primary's value if primary settles successfully to a
// non-null value; otherwise it applies and adopts fallback.
func OrElse(primary, fallback Node, name string) Node {
	if name == "" {
		name = primary.Name() + ".orElse"
	}
	return conditionalNode(name, false, func(ctx context.Context, in Inputs) (any, error) {
		_ = primary.Apply(ctx).Wait(ctx)
		if v, err, settled := peek(primary); settled && err == nil && !isNullish(v) {
			return v, nil
		}
		if err := fallback.Apply(ctx).Wait(ctx); err != nil {
			return nil, err
		}
		return fallback.Emit()
	})
}

// LightDark always applies both light and dark concurrently, the shadow
// traffic / dark-launch comparison pattern, but resolves to whichever one
// cond selects. Both branches' costs are always paid; only the chosen one's
// value is surfaced.
func LightDark(cond, light, dark Node, name string) Node {
	if name == "" {
		name = "lightDark"
	}
	return conditionalNode(name, false, func(ctx context.Context, in Inputs) (any, error) {
		light.Apply(ctx)
		dark.Apply(ctx)
		b, err := evalCond(ctx, cond)
		lightErr := light.Apply(ctx).Wait(ctx)
		darkErr := dark.Apply(ctx).Wait(ctx)
		if err != nil {
			return nil, err
		}
		if b {
			if lightErr != nil {
				return nil, lightErr
			}
			return light.Emit()
		}
		if darkErr != nil {
			return nil, darkErr
		}
		return dark.Emit()
	})
}
