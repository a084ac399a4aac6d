package nodes_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/twitter/nodes"
)

// TestPromiseStabilityRepeatsTheSameValue covers property 2: once a handle
// has resolved, every later observation (Emit, or a fresh Wait on the same
// Future) sees the identical value.
func TestPromiseStabilityRepeatsTheSameValue(t *testing.T) {
	n := nodes.Value(7, "stable")
	ctx := context.Background()
	future := n.Apply(ctx)
	require.NoError(t, future.Wait(ctx))

	for i := 0; i < 3; i++ {
		require.NoError(t, n.Apply(ctx).Wait(ctx))
		v, err := n.Emit()
		require.NoError(t, err)
		require.Equal(t, 7, v)
	}
}

// TestNullResultFailsWhenNotNullAdmissible covers property 5: a node whose
// canEmitNull is false never resolves to a success carrying a null value.
func TestNullResultFailsWhenNotNullAdmissible(t *testing.T) {
	n, err := nodes.NewBuilder(nodes.NewKind("nullBody")).
		WithBody(func(ctx context.Context, in nodes.Inputs) (any, error) {
			return nil, nil
		}).
		Build()
	require.NoError(t, err)

	ctx := context.Background()
	applyErr := n.Apply(ctx).Wait(ctx)
	require.Error(t, applyErr)
	require.ErrorIs(t, applyErr, nodes.ErrNullResult)
}

// TestSumWithRequiredAndOptionalSlots is scenario A: a required {A,B,C} +
// optional {D} kind computing A + 10B + 100C + 1000(D or 0).
func TestSumWithRequiredAndOptionalSlots(t *testing.T) {
	sumKind := nodes.NewKind("sum",
		nodes.SlotSpec{ID: "A", Required: true},
		nodes.SlotSpec{ID: "B", Required: true},
		nodes.SlotSpec{ID: "C", Required: true},
		nodes.SlotSpec{ID: "D", Required: false},
	)
	body := func(ctx context.Context, in nodes.Inputs) (any, error) {
		a := in.Value("A").(int)
		b := in.Value("B").(int)
		c := in.Value("C").(int)
		d := in.Optional("D").ValueOr(0).(int)
		return a + 10*b + 100*c + 1000*d, nil
	}

	withD, err := nodes.NewBuilder(sumKind).
		DependsOn("A", nodes.Value(1, "")).
		DependsOn("B", nodes.Value(2, "")).
		DependsOn("C", nodes.Value(3, "")).
		DependsOn("D", nodes.Value(4, "")).
		WithBody(body).
		Build()
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, withD.Apply(ctx).Wait(ctx))
	v, err := withD.Emit()
	require.NoError(t, err)
	require.Equal(t, 4321, v)

	withoutD, err := nodes.NewBuilder(sumKind).
		DependsOn("A", nodes.Value(1, "")).
		DependsOn("B", nodes.Value(2, "")).
		DependsOn("C", nodes.Value(3, "")).
		WithBody(body).
		Build()
	require.NoError(t, err)
	require.NoError(t, withoutD.Apply(ctx).Wait(ctx))
	v, err = withoutD.Emit()
	require.NoError(t, err)
	require.Equal(t, 321, v)
}

// TestEagerOrObservesBothOperands is scenario D: an eager Or over two
// always-false operands resolves to false only after both recordings fire.
func TestEagerOrObservesBothOperands(t *testing.T) {
	var mu sync.Mutex
	var recorded []string
	record := func(label string) nodes.Node {
		return nodes.WrapFuture(func(ctx context.Context) (any, error) {
			mu.Lock()
			recorded = append(recorded, label)
			mu.Unlock()
			return false, nil
		}, label)
	}

	or := nodes.Or("or", record("a"), record("b"))
	ctx := context.Background()
	require.NoError(t, or.Apply(ctx).Wait(ctx))
	v, err := or.Emit()
	require.NoError(t, err)
	require.Equal(t, false, v)

	mu.Lock()
	defer mu.Unlock()
	require.ElementsMatch(t, []string{"a", "b"}, recorded)
}

// TestWaitOnObservesAllMarksBeforeSettling is scenario F: waitOn over a
// primary plus several marker nodes only settles once every mark has run.
func TestWaitOnObservesAllMarksBeforeSettling(t *testing.T) {
	var mu sync.Mutex
	var log []int
	mark := func(id int) nodes.Node {
		return nodes.WrapFuture(func(ctx context.Context) (any, error) {
			mu.Lock()
			log = append(log, id)
			mu.Unlock()
			return id, nil
		}, "")
	}

	primary := nodes.Value(999, "")
	n := nodes.WaitOn(primary, "", mark(1), mark(2), mark(3))
	ctx := context.Background()
	require.NoError(t, n.Apply(ctx).Wait(ctx))
	v, err := n.Emit()
	require.NoError(t, err)
	require.Equal(t, 999, v)

	mu.Lock()
	defer mu.Unlock()
	require.ElementsMatch(t, []int{1, 2, 3}, log)
}
