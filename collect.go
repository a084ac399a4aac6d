package nodes

import (
	"context"
	"sort"
)

// Collect joins a list of Nodes, all required, and settles to their values
// in the same order once every one of them succeeds. The first failure in
// declared order propagates, matching the generic join barrier's rule.
func Collect(items []Node, name string) Node {
	if name == "" {
		name = "collect"
	}
	return mapNodeN(items, name, func(ctx context.Context, in Inputs) (any, error) {
		out := make([]any, len(items))
		for i := range items {
			out[i] = in.Value(slot(i))
		}
		return out, nil
	}, false)
}

// CollectMap joins a map of Nodes, all required, and settles to a
// map[string]any of their values once every one of them succeeds. Each
// branch is evaluated concurrently with its key fixed, mirroring the
// per-branch isolation of a single-item Collect.
func CollectMap(items map[string]Node, name string) Node {
	if name == "" {
		name = "collectMap"
	}
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	slots := make([]SlotSpec, len(keys))
	bound := make(map[SlotID]Node, len(keys))
	for i, k := range keys {
		slots[i] = SlotSpec{ID: SlotID(k), Required: true}
		bound[SlotID(k)] = items[k]
	}
	kind := &staticKind{name: name, slots: slots}

	nd, err := assemble(nodeSpec{
		kind:  kind,
		name:  name,
		bound: bound,
		body: func(ctx context.Context, in Inputs) (any, error) {
			out := make(map[string]any, len(keys))
			for _, k := range keys {
				out[k] = in.Value(SlotID(k))
			}
			return out, nil
		},
	})
	if err != nil {
		panic(err)
	}
	return nd
}

// SplitAndCollect applies fn to every item to produce one child Node per
// item, then Collects their results in the same order as items.
func SplitAndCollect[T any](items []T, name string, fn func(item T) Node) Node {
	children := make([]Node, len(items))
	for i, it := range items {
		children[i] = fn(it)
	}
	return Collect(children, name)
}

// WaitOn settles to primary's value once primary succeeds and every extra
// has settled, one way or another; extras' own values are discarded and an
// extra's failure does not propagate. primary is bound as a required slot,
// so its own failure still propagates; extras are bound through Optionalize
// so join awaits them without letting their failure become this node's own.
func WaitOn(primary Node, name string, extras ...Node) Node {
	if name == "" {
		name = primary.Name() + ".waitOn"
	}
	slots := make([]SlotSpec, len(extras)+1)
	bound := make(map[SlotID]Node, len(extras)+1)
	slots[0] = SlotSpec{ID: "0", Required: true}
	bound["0"] = primary
	for i, extra := range extras {
		id := slot(i + 1)
		slots[i+1] = SlotSpec{ID: id, Required: false}
		bound[id] = Optionalize(extra, "")
	}
	kind := &staticKind{name: name, slots: slots}
	nd, err := assemble(nodeSpec{
		kind:  kind,
		name:  name,
		bound: bound,
		body: func(ctx context.Context, in Inputs) (any, error) {
			return in.Value("0"), nil
		},
	})
	if err != nil {
		panic(err)
	}
	return nd
}
