package nodes

import (
	"context"
	"fmt"
	"sort"
)

// NodeKind is a Kind that also knows how to compute its own result. Passing
// a NodeKind to NewBuilder lets Builder derive the node's body automatically;
// a plain Kind instead requires an explicit Builder.WithBody call.
type NodeKind interface {
	Kind
	Run(ctx context.Context, in Inputs) (any, error)
}

// Builder constructs a Node of a given Kind by binding slots to child
// Nodes, the way dig's container resolves a constructor's parameter struct
// one field at a time before validating the whole thing is satisfiable.
type Builder struct {
	kind Kind
	name string
	key  string

	bound map[SlotID]Node
	errs  []error

	body            Body
	canEmitNull     bool
	optionalWrapper bool
	decider         func() bool
	deciderKey      string
	sinks           []Node
}

// NewBuilder starts building a node of the given kind.
func NewBuilder(kind Kind) *Builder {
	return &Builder{
		kind:  kind,
		name:  kind.KindName(),
		bound: make(map[SlotID]Node),
	}
}

// Named overrides the node's display name (defaults to the kind's name).
func (b *Builder) Named(name string) *Builder {
	b.name = name
	return b
}

// WithKey sets the instance key appended to the display name for
// disambiguating multiple nodes of the same kind.
func (b *Builder) WithKey(key string) *Builder {
	b.key = key
	return b
}

// DependsOn binds slot to child. Binding an unknown slot or double-binding
// a slot records a build error that surfaces from Build.
func (b *Builder) DependsOn(slot SlotID, child Node) *Builder {
	if !slotKnown(b.kind, slot) {
		b.errs = append(b.errs, newBuildError(b.kind.KindName(), ErrUnknownSlot, slot))
		return b
	}
	if _, exists := b.bound[slot]; exists {
		b.errs = append(b.errs, newBuildError(b.kind.KindName(), ErrDoubleBoundSlot, slot))
		return b
	}
	b.bound[slot] = child
	return b
}

// WithBody supplies the node's computation explicitly, overriding any
// NodeKind.Run the kind itself provides.
func (b *Builder) WithBody(fn Body) *Builder {
	b.body = fn
	return b
}

// WithCanEmitNull marks the node as null-admissible: a nil body result is a
// valid success rather than a Body-returned-null error.
func (b *Builder) WithCanEmitNull(v bool) *Builder {
	b.canEmitNull = v
	return b
}

// WithOptionalWrapper marks the node's result type as presence-wrapped
// (Optional), so a null body result and a decider-off gate both settle as
// Optional{}. A failed dependency or a failing body still settles the node
// with an error.
func (b *Builder) WithOptionalWrapper(v bool) *Builder {
	b.optionalWrapper = v
	return b
}

// WithDecider attaches a decider: a boolean supplier recomputed on every
// evaluation that can suppress the node's body. key identifies the decider
// in DeciderError if it suppresses a node with no way to absorb that.
func (b *Builder) WithDecider(key string, decide func() bool) *Builder {
	b.decider = decide
	b.deciderKey = key
	return b
}

// WithSinks attaches sinks: nodes applied (fire-and-forget) once this node
// settles, whatever the outcome: success, failure, a failed join, or a
// decider-off gate.
func (b *Builder) WithSinks(sinks ...Node) *Builder {
	b.sinks = append(b.sinks, sinks...)
	return b
}

// Build validates the bound slots against the kind's declared slot set and
// constructs the Node. Optional slots left unbound default to the shared
// absent sentinel; optional slots that were bound are wrapped with
// Optionalize unless the supplied child is already optional-wrapped.
func (b *Builder) Build() (Node, error) {
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}

	required := requiredSlotsFor(b.kind)
	optional := optionalSlotsFor(b.kind)

	var missing []SlotID
	for id := range required {
		if _, ok := b.bound[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		sortSlotIDs(missing)
		return nil, newBuildError(b.kind.KindName(), ErrMissingRequiredSlot, missing...)
	}

	deps := make(map[SlotID]Node, len(b.bound))
	for id, child := range b.bound {
		if optional[id] {
			deps[id] = ensureOptional(child)
		} else {
			deps[id] = child
		}
	}

	body := b.body
	if body == nil {
		if nk, ok := b.kind.(NodeKind); ok {
			body = nk.Run
		} else {
			return nil, newBuildError(b.kind.KindName(), fmt.Errorf("no body supplied and kind %T does not implement NodeKind", b.kind))
		}
	}

	return assemble(nodeSpec{
		kind:            b.kind,
		name:            b.name,
		key:             b.key,
		bound:           deps,
		body:            body,
		canEmitNull:     b.canEmitNull,
		optionalWrapper: b.optionalWrapper,
		decider:         b.decider,
		deciderKey:      b.deciderKey,
		sinks:           b.sinks,
	})
}

// BuildNode is the positional counterpart to Builder: pass alternating
// slot/Node pairs. The number of arguments must be even.
func BuildNode(kind Kind, args ...any) (Node, error) {
	if len(args)%2 != 0 {
		return nil, newBuildError(kind.KindName(), ErrOddPositionalArgs)
	}

	b := NewBuilder(kind)
	for i := 0; i < len(args); i += 2 {
		slot, err := asSlotID(args[i])
		if err != nil {
			return nil, newBuildError(kind.KindName(), err)
		}
		child, ok := args[i+1].(Node)
		if !ok {
			return nil, newBuildError(kind.KindName(), fmt.Errorf("positional argument %d is not a Node", i+1))
		}
		b.DependsOn(slot, child)
	}
	return b.Build()
}

func asSlotID(v any) (SlotID, error) {
	switch s := v.(type) {
	case SlotID:
		return s, nil
	case string:
		return SlotID(s), nil
	default:
		return "", fmt.Errorf("positional slot identifier must be a SlotID or string, got %T", v)
	}
}

func sortSlotIDs(ids []SlotID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

// nodeSpec is the fully-resolved description assemble turns into a *node.
// Unlike Builder, it performs no optional-wrapping or default-slot
// discovery of its own. Callers (Builder.Build, and this package's
// combinator constructors) are expected to have already decided exactly
// what each slot should be bound to.
type nodeSpec struct {
	kind            Kind
	name            string
	key             string
	bound           map[SlotID]Node
	body            Body
	canEmitNull     bool
	optionalWrapper bool
	decider         func() bool
	deciderKey      string
	sinks           []Node
}

func assemble(spec nodeSpec) (*node, error) {
	required := requiredSlotsFor(spec.kind)

	var missing []SlotID
	for id := range required {
		if _, ok := spec.bound[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		sortSlotIDs(missing)
		return nil, newBuildError(spec.kind.KindName(), ErrMissingRequiredSlot, missing...)
	}

	slots := spec.kind.Slots()
	order := make([]SlotID, len(slots))
	deps := make(map[SlotID]Node, len(slots))
	for i, s := range slots {
		order[i] = s.ID
		if child, ok := spec.bound[s.ID]; ok {
			deps[s.ID] = child
		} else {
			deps[s.ID] = Absent()
		}
	}

	name := spec.name
	if name == "" {
		name = spec.kind.KindName()
	}

	return &node{
		kind:            spec.kind,
		name:            name,
		key:             spec.key,
		order:           order,
		deps:            deps,
		sinks:           append([]Node(nil), spec.sinks...),
		decider:         spec.decider,
		deciderKey:      spec.deciderKey,
		canEmitNull:     spec.canEmitNull,
		optionalWrapper: spec.optionalWrapper,
		body:            spec.body,
		settlement:      newFuture(),
	}, nil
}

// ensureOptional wraps child in Optionalize unless it is already
// optional-wrapped, so a node bound into an optional slot twice over
// doesn't get double-wrapped.
func ensureOptional(child Node) Node {
	if nd, ok := child.(*node); ok && nd.optionalWrapper {
		return child
	}
	return Optionalize(child, "")
}
