package nodes_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/twitter/nodes"
	"github.com/twitter/nodes/internal/testutil"
)

func TestValueSettlesImmediately(t *testing.T) {
	v := nodes.Value(42, "answer")
	got, err := v.Emit()
	require.NoError(t, err)
	require.Equal(t, 42, got)
}

func TestMapPropagatesFailureVerbatim(t *testing.T) {
	cause := errors.New("boom")
	fx := testutil.NewFixtures()
	failing := fx.Failing("failing", cause)
	mapped := nodes.Map(failing, "mapped", func(v any) (any, error) {
		t.Fatal("fn must not run when dependency fails")
		return nil, nil
	})

	ctx := context.Background()
	err := mapped.Apply(ctx).Wait(ctx)
	require.Error(t, err)
	require.ErrorIs(t, err, cause)
}

func TestAtMostOnceExecution(t *testing.T) {
	fx := testutil.NewFixtures()
	counter := &testutil.Counter{}
	n := fx.CounterNode("counter", counter)

	ctx := context.Background()
	const concurrency = 20
	done := make(chan error, concurrency)
	for i := 0; i < concurrency; i++ {
		go func() { done <- n.Apply(ctx).Wait(ctx) }()
	}
	for i := 0; i < concurrency; i++ {
		require.NoError(t, <-done)
	}
	require.Equal(t, 1, counter.Count())

	v, err := n.Emit()
	require.NoError(t, err)
	require.Equal(t, 1, v)
}

func TestRequiredNullFails(t *testing.T) {
	kind := nodes.NewKind("sum", nodes.SlotSpec{ID: "a", Required: true})
	n, err := nodes.NewBuilder(kind).
		DependsOn("a", nodes.Null()).
		WithBody(func(ctx context.Context, in nodes.Inputs) (any, error) {
			return in.Value("a"), nil
		}).
		Build()
	require.NoError(t, err)

	ctx := context.Background()
	err = n.Apply(ctx).Wait(ctx)
	require.Error(t, err)
	var nullErr *nodes.RequiredNullError
	require.ErrorAs(t, err, &nullErr)
}

func TestOptionalSlotDefaultsToAbsent(t *testing.T) {
	kind := nodes.NewKind("greet",
		nodes.SlotSpec{ID: "name", Required: true},
		nodes.SlotSpec{ID: "title", Required: false},
	)
	n, err := nodes.NewBuilder(kind).
		DependsOn("name", nodes.Value("Ada", "")).
		WithBody(func(ctx context.Context, in nodes.Inputs) (any, error) {
			title := in.Optional("title")
			return title.ValueOr("plain"), nil
		}).
		Build()
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, n.Apply(ctx).Wait(ctx))
	v, err := n.Emit()
	require.NoError(t, err)
	require.Equal(t, "plain", v)
}

func TestOptionalSlotAbsorbsFailure(t *testing.T) {
	fx := testutil.NewFixtures()
	kind := nodes.NewKind("greet",
		nodes.SlotSpec{ID: "name", Required: true},
		nodes.SlotSpec{ID: "title", Required: false},
	)
	n, err := nodes.NewBuilder(kind).
		DependsOn("name", nodes.Value("Ada", "")).
		DependsOn("title", fx.Failing("title", errors.New("no title service"))).
		WithBody(func(ctx context.Context, in nodes.Inputs) (any, error) {
			return in.Optional("title").ValueOr("plain"), nil
		}).
		Build()
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, n.Apply(ctx).Wait(ctx))
	v, err := n.Emit()
	require.NoError(t, err)
	require.Equal(t, "plain", v)
}

func TestDeciderOffWithoutAbsorptionFails(t *testing.T) {
	fx := testutil.NewFixtures()
	flag := testutil.NewFlag(false)
	n := fx.GatedNode("gated", flag, "value")

	ctx := context.Background()
	err := n.Apply(ctx).Wait(ctx)
	require.Error(t, err)
	var deciderErr *nodes.DeciderError
	require.ErrorAs(t, err, &deciderErr)
}

func TestToSafeHandleNeverFails(t *testing.T) {
	fx := testutil.NewFixtures()
	failing := fx.Failing("failing", errors.New("boom"))
	safe := nodes.ToSafeHandle(failing)

	ctx := context.Background()
	require.NoError(t, safe.Apply(ctx).Wait(ctx))
	v, err := safe.Emit()
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestSinksFireAfterSettlementRegardlessOfOutcome(t *testing.T) {
	fx := testutil.NewFixtures()
	sinkCounter := &testutil.Counter{}
	sink := fx.CounterNode("sink", sinkCounter)

	n, err := nodes.NewBuilder(nodes.NewKind("producer")).
		WithSinks(sink).
		WithBody(func(ctx context.Context, in nodes.Inputs) (any, error) {
			return nil, errors.New("producer failed")
		}).
		Build()
	require.NoError(t, err)

	ctx := context.Background()
	_ = n.Apply(ctx).Wait(ctx)

	require.Eventually(t, func() bool {
		return sinkCounter.Count() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestWaitDoesNotCancelUnderlyingComputation(t *testing.T) {
	fx := testutil.NewFixtures()
	slow := fx.Delayed("slow", 80*time.Millisecond, "done")

	shortCtx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := slow.Apply(context.Background()).Wait(shortCtx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	time.Sleep(120 * time.Millisecond)
	v, err := slow.Emit()
	require.NoError(t, err)
	require.Equal(t, "done", v)
}

func TestObserverReceivesLifecycleEvents(t *testing.T) {
	rec := testutil.NewRecordingObserver()
	unsubscribe := nodes.Subscribe(rec)
	defer unsubscribe()

	n := nodes.Value("x", "observed-value")
	ctx := context.Background()
	require.NoError(t, n.Apply(ctx).Wait(ctx))

	fx := testutil.NewFixtures()
	body := fx.Passthrough("observed-body", n)
	require.NoError(t, body.Apply(ctx).Wait(ctx))

	require.GreaterOrEqual(t, rec.CountType(nodes.EventSettled), 1)
}
