package single

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vnykmshr/rxflow/internal/testutil"
	rxerrors "github.com/vnykmshr/rxflow/pkg/common/errors"
	"github.com/vnykmshr/rxflow/pkg/metrics"
	"github.com/vnykmshr/rxflow/pkg/reactive/lifecycle"
	"github.com/vnykmshr/rxflow/pkg/reactive/observable"
	"github.com/vnykmshr/rxflow/pkg/scheduling/scheduler"
)

type outcome[T any] struct {
	values []T
	errs   []error
}

func subscribe[T any](s Single[T], opts ...lifecycle.Option) (*outcome[T], lifecycle.Subscription) {
	out := &outcome[T]{}
	sub := s.Subscribe(context.Background(),
		func(v T) { out.values = append(out.values, v) },
		func(err error) { out.errs = append(out.errs, err) },
		opts...,
	)
	return out, sub
}

func TestJust(t *testing.T) {
	out, sub := subscribe(Just(1))

	testutil.AssertSliceEqual(t, out.values, []int{1})
	testutil.AssertEqual(t, len(out.errs), 0)
	testutil.AssertEqual(t, sub.State(), lifecycle.Completed)
}

func TestOnSuccessPanicPropagates(t *testing.T) {
	var onErrorCalled, returned bool
	var recovered interface{}

	func() {
		defer func() { recovered = recover() }()
		Just(1).Map(func(v int) (int, error) { return v + 1, nil }).Subscribe(context.Background(),
			func(int) { panic("thrown from onSuccess") },
			func(error) { onErrorCalled = true },
		)
		returned = true
	}()

	testutil.AssertEqual(t, returned, false)
	testutil.AssertEqual(t, recovered, interface{}("thrown from onSuccess"))
	testutil.AssertEqual(t, onErrorCalled, false)
}

func TestMapTo_ErrorAsValue(t *testing.T) {
	out, _ := subscribe(MapTo(Just(1), func(int) (error, error) {
		return errors.New("Hello"), nil
	}))

	testutil.AssertEqual(t, len(out.errs), 0)
	testutil.AssertEqual(t, len(out.values), 1)
	testutil.AssertEqual(t, out.values[0].Error(), "Hello")
}

func TestMap_Failure(t *testing.T) {
	cause := rxerrors.NewTransformError("Hello")

	tests := []struct {
		name   string
		single Single[int]
	}{
		{"plain", Just(1).Map(func(int) (int, error) { return 0, cause })},
		{"re-raised", Just(1).Map(func(int) (int, error) { return 0, cause }).
			OnErrorResumeNext(func(err error) Single[int] { return Error[int](err) })},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, sub := subscribe(tt.single)

			testutil.AssertEqual(t, len(out.values), 0)
			testutil.AssertEqual(t, len(out.errs), 1)
			if out.errs[0] != error(cause) {
				t.Fatalf("got %v, want identical error", out.errs[0])
			}
			testutil.AssertEqual(t, sub.State(), lifecycle.Failed)
		})
	}
}

func TestMap_Panic(t *testing.T) {
	_, err := Just(1).Map(func(int) (int, error) { panic("mapper") }).Get(context.Background())
	if !rxerrors.IsPanic(err) {
		t.Fatalf("expected PanicError, got %v", err)
	}
}

func TestOnErrorReturn(t *testing.T) {
	failing := Just(1).Map(func(int) (int, error) { return 0, errors.New("Hello") })

	v, err := failing.OnErrorReturn(func(error) int { return 2 }).Get(context.Background())
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, v, 2)

	v, err = failing.OnErrorReturnItem(2).Get(context.Background())
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, v, 2)
}

func TestOnErrorResumeNext_Fallback(t *testing.T) {
	calls := 0
	v, err := Error[string](errors.New("x")).
		OnErrorResumeNext(func(error) Single[string] {
			calls++
			return Just("fallback")
		}).
		Get(context.Background())

	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, v, "fallback")
	testutil.AssertEqual(t, calls, 1)

	_, err = Error[string](errors.New("x")).
		OnErrorResumeNext(func(error) Single[string] { return nil }).
		Get(context.Background())
	testutil.AssertErrorIs(t, err, rxerrors.ErrNilSource)
}

func TestFromFunc(t *testing.T) {
	calls := 0
	s := FromFunc(func(ctx context.Context) (int, error) {
		calls++
		return calls * 10, nil
	})

	first, err := s.Get(context.Background())
	testutil.AssertNoError(t, err)
	second, err := s.Get(context.Background())
	testutil.AssertNoError(t, err)

	testutil.AssertEqual(t, first, 10)
	testutil.AssertEqual(t, second, 20)

	_, err = FromFunc(func(context.Context) (int, error) { panic("boom") }).Get(context.Background())
	if !rxerrors.IsPanic(err) {
		t.Fatalf("expected PanicError, got %v", err)
	}
}

func TestCreate_PanicBeforeSignal(t *testing.T) {
	_, err := Create(func(context.Context, Emitter[int]) { panic("early") }).Get(context.Background())
	if !rxerrors.IsPanic(err) {
		t.Fatalf("expected PanicError, got %v", err)
	}
}

func TestCreate_OnlyFirstSignal(t *testing.T) {
	out, _ := subscribe(Create(func(_ context.Context, e Emitter[int]) {
		e.Success(1)
		e.Success(2)
		e.Error(errors.New("late"))
	}))

	testutil.AssertSliceEqual(t, out.values, []int{1})
	testutil.AssertEqual(t, len(out.errs), 0)
}

func TestFromObservable(t *testing.T) {
	v, err := FromObservable(observable.Range(5, 100)).Get(context.Background())
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, v, 5)

	_, err = FromObservable(observable.Empty[int]()).Get(context.Background())
	testutil.AssertErrorIs(t, err, rxerrors.ErrNoElements)

	cause := errors.New("upstream")
	_, err = FromObservable(observable.Error[int](cause)).Get(context.Background())
	testutil.AssertErrorIs(t, err, cause)
}

func TestFromObservable_StopsUpstream(t *testing.T) {
	pulled := 0
	_, err := FromObservable(observable.Range(0, 1000).DoOnNext(func(int) { pulled++ })).Get(context.Background())

	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, pulled, 1)
}

func TestToObservable(t *testing.T) {
	got, err := Just(7).ToObservable().ToSlice(context.Background())
	testutil.AssertNoError(t, err)
	testutil.AssertSliceEqual(t, got, []int{7})

	cause := errors.New("x")
	_, err = Error[int](cause).ToObservable().ToSlice(context.Background())
	testutil.AssertErrorIs(t, err, cause)
}

func TestDefer(t *testing.T) {
	n := 0
	d := Defer(func() Single[int] {
		n++
		return Just(n)
	})

	a, _ := d.Get(context.Background())
	b, _ := d.Get(context.Background())
	testutil.AssertEqual(t, a, 1)
	testutil.AssertEqual(t, b, 2)
}

func TestSubscribeOn(t *testing.T) {
	s := scheduler.NewGoroutine(nil)
	defer s.Wait()

	v, err := FromFunc(func(ctx context.Context) (string, error) {
		return "async", nil
	}).SubscribeOn(s).Get(context.Background())

	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, v, "async")
}

func TestGet_ContextDeadline(t *testing.T) {
	s := scheduler.NewGoroutine(nil)
	defer s.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := FromFunc(func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	}).SubscribeOn(s).Get(ctx)

	testutil.AssertErrorIs(t, err, context.DeadlineExceeded)
}

func TestSubscribe_Metrics(t *testing.T) {
	reg := metrics.NewRegistry(prometheus.NewRegistry())

	_, _ = subscribe(Error[int](errors.New("x")).OnErrorReturnItem(1),
		lifecycle.WithName("single_test"), lifecycle.WithMetrics(reg))

	testutil.AssertEqual(t, promtest.ToFloat64(reg.Completions.WithLabelValues("single_test")), 1.0)
	testutil.AssertEqual(t, promtest.ToFloat64(reg.ItemsEmitted.WithLabelValues("single_test")), 1.0)
	testutil.AssertEqual(t, promtest.ToFloat64(reg.Recoveries.WithLabelValues("single_test", observable.StrategyReturnItem)), 1.0)
}
