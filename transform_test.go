package nodes_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/twitter/nodes"
	"github.com/twitter/nodes/internal/testutil"
)

func TestMapAllowsNilResult(t *testing.T) {
	n := nodes.Map(nodes.Value(1, ""), "", func(v any) (any, error) {
		return nil, nil
	})
	ctx := context.Background()
	require.NoError(t, n.Apply(ctx).Wait(ctx))
	v, err := n.Emit()
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestMapOnSuccessAbsorbsFailure(t *testing.T) {
	fx := testutil.NewFixtures()
	failing := fx.Failing("failing", errors.New("boom"))
	called := false
	n := nodes.MapOnSuccess(failing, "", func(v any) (any, error) {
		called = true
		return v, nil
	})

	ctx := context.Background()
	require.NoError(t, n.Apply(ctx).Wait(ctx))
	v, err := n.Emit()
	require.NoError(t, err)
	require.Nil(t, v)
	require.False(t, called)
}

func TestMapOnSuccessAbsorbsNull(t *testing.T) {
	called := false
	n := nodes.MapOnSuccess(nodes.Null(), "", func(v any) (any, error) {
		called = true
		return v, nil
	})

	ctx := context.Background()
	require.NoError(t, n.Apply(ctx).Wait(ctx))
	v, err := n.Emit()
	require.NoError(t, err)
	require.Nil(t, v)
	require.False(t, called)
}

func TestMapOnSuccessAppliesFnOnSuccess(t *testing.T) {
	n := nodes.MapOnSuccess(nodes.Value(3, ""), "", func(v any) (any, error) {
		return v.(int) * 2, nil
	})

	ctx := context.Background()
	require.NoError(t, n.Apply(ctx).Wait(ctx))
	v, err := n.Emit()
	require.NoError(t, err)
	require.Equal(t, 6, v)
}

func TestMapWithDeciderOffSettlesNull(t *testing.T) {
	flag := testutil.NewFlag(false)
	called := false
	n := nodes.MapWithDecider(nodes.Value(1, ""), "", "gate", flag.Get, func(v any) (any, error) {
		called = true
		return v, nil
	})

	ctx := context.Background()
	require.NoError(t, n.Apply(ctx).Wait(ctx))
	v, err := n.Emit()
	require.NoError(t, err)
	require.Nil(t, v)
	require.False(t, called)
}

func TestMapWithDeciderOnRunsBody(t *testing.T) {
	flag := testutil.NewFlag(true)
	n := nodes.MapWithDecider(nodes.Value(5, ""), "", "gate", flag.Get, func(v any) (any, error) {
		return v.(int) + 1, nil
	})

	ctx := context.Background()
	require.NoError(t, n.Apply(ctx).Wait(ctx))
	v, err := n.Emit()
	require.NoError(t, err)
	require.Equal(t, 6, v)
}

func TestFlatMapWithDeciderOffSettlesNull(t *testing.T) {
	flag := testutil.NewFlag(false)
	called := false
	n := nodes.FlatMapWithDecider(nodes.Value(1, ""), "", "gate", flag.Get, func(v any) (nodes.Node, error) {
		called = true
		return nodes.Value(v, ""), nil
	})

	ctx := context.Background()
	require.NoError(t, n.Apply(ctx).Wait(ctx))
	v, err := n.Emit()
	require.NoError(t, err)
	require.Nil(t, v)
	require.False(t, called)
}

func TestFlatMapWithDeciderOnAdoptsChild(t *testing.T) {
	flag := testutil.NewFlag(true)
	n := nodes.FlatMapWithDecider(nodes.Value(1, ""), "", "gate", flag.Get, func(v any) (nodes.Node, error) {
		return nodes.Value(v.(int)*10, ""), nil
	})

	ctx := context.Background()
	require.NoError(t, n.Apply(ctx).Wait(ctx))
	v, err := n.Emit()
	require.NoError(t, err)
	require.Equal(t, 10, v)
}
