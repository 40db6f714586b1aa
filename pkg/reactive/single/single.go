package single

import (
	"context"
	"runtime/debug"

	rxerrors "github.com/vnykmshr/rxflow/pkg/common/errors"
	"github.com/vnykmshr/rxflow/pkg/reactive/lifecycle"
	"github.com/vnykmshr/rxflow/pkg/reactive/observable"
	"github.com/vnykmshr/rxflow/pkg/scheduling/scheduler"
)

// Emitter receives exactly one of Success or Error from a running source.
type Emitter[T any] interface {
	Success(value T)
	Error(err error)
}

// Single is a lazy source that signals either one value or a failure.
type Single[T any] interface {
	// Intermediate operations

	// Map transforms the value. A returned error or a panic fails the single.
	Map(mapper func(T) (T, error)) Single[T]

	// OnErrorResumeNext replaces a failure with the single returned by resume.
	OnErrorResumeNext(resume func(error) Single[T]) Single[T]

	// OnErrorReturn replaces a failure with a value computed from it.
	OnErrorReturn(fn func(error) T) Single[T]

	// OnErrorReturnItem replaces a failure with item.
	OnErrorReturnItem(item T) Single[T]

	// SubscribeOn runs the source on s.
	SubscribeOn(s scheduler.Scheduler) Single[T]

	// ToObservable emits the value and completes, or fails.
	ToObservable() observable.Observable[T]

	// Subscription

	// Subscribe starts the single. A panic raised by onSuccess is not
	// converted into a failure: the success signal was already delivered, so
	// the panic propagates to the goroutine running the source.
	Subscribe(ctx context.Context, onSuccess func(T), onError func(error), opts ...lifecycle.Option) lifecycle.Subscription

	// Run drives the source into e without lifecycle tracking.
	Run(ctx context.Context, e Emitter[T])

	// Terminal operations

	// Get blocks until the single terminates and returns its value or failure.
	Get(ctx context.Context) (T, error)
}

type single[T any] struct {
	onSubscribe func(ctx context.Context, e Emitter[T])
}

// Create builds a Single from a function that signals e exactly once.
func Create[T any](onSubscribe func(ctx context.Context, e Emitter[T])) Single[T] {
	if onSubscribe == nil {
		return Error[T](rxerrors.ErrNilSource)
	}
	return &single[T]{onSubscribe: onSubscribe}
}

// Run implementation. A panic in the source before it signals becomes a
// failure delivered to e.
func (s *single[T]) Run(ctx context.Context, e Emitter[T]) {
	guard := &onceEmitter[T]{down: e}
	defer func() {
		if r := recover(); r != nil {
			if guard.signaled {
				panic(r)
			}
			guard.Error(rxerrors.NewPanicError("source", r, debug.Stack()))
		}
	}()
	s.onSubscribe(ctx, guard)
}

// onceEmitter drops every signal after the first.
type onceEmitter[T any] struct {
	down     Emitter[T]
	signaled bool
}

func (o *onceEmitter[T]) Success(value T) {
	if o.signaled {
		return
	}
	o.signaled = true
	o.down.Success(value)
}

func (o *onceEmitter[T]) Error(err error) {
	if o.signaled {
		return
	}
	o.signaled = true
	o.down.Error(err)
}

// Subscribe implementation
func (s *single[T]) Subscribe(ctx context.Context, onSuccess func(T), onError func(error), opts ...lifecycle.Option) lifecycle.Subscription {
	tracker := lifecycle.NewTracker(ctx, append([]lifecycle.Option{lifecycle.WithName("single")}, opts...)...)
	sink := &singleSink[T]{tracker: tracker, onSuccess: onSuccess, onError: onError}

	tracker.Start()
	s.Run(tracker.Context(), sink)
	return tracker
}

type singleSink[T any] struct {
	tracker   *lifecycle.Tracker
	onSuccess func(T)
	onError   func(error)
}

func (s *singleSink[T]) Success(value T) {
	if !s.tracker.Complete() {
		return
	}
	defer s.tracker.Finish()

	s.tracker.RecordItem()
	if s.onSuccess != nil {
		s.onSuccess(value)
	}
}

func (s *singleSink[T]) Error(err error) {
	if !s.tracker.Fail(err) {
		s.tracker.Dropped(err)
		return
	}
	defer s.tracker.Finish()

	if s.onError == nil {
		s.tracker.Unhandled(err)
		return
	}
	if perr := lifecycle.Guard("onError", func() { s.onError(err) }); perr != nil {
		s.tracker.Unhandled(perr)
	}
}

// Get implementation
func (s *single[T]) Get(ctx context.Context) (T, error) {
	var value T
	sub := s.Subscribe(ctx, func(v T) { value = v }, func(error) {}, lifecycle.WithName("get"))

	select {
	case <-sub.Done():
		if err := sub.Err(); err != nil {
			var zero T
			return zero, err
		}
		return value, nil
	case <-ctx.Done():
		sub.Dispose()
		var zero T
		return zero, ctx.Err()
	}
}
