package observable

import (
	"context"
	"runtime/debug"

	rxerrors "github.com/vnykmshr/rxflow/pkg/common/errors"
	"github.com/vnykmshr/rxflow/pkg/reactive/lifecycle"
	"github.com/vnykmshr/rxflow/pkg/scheduling/scheduler"
)

// Emitter receives the signals of a running source. Calls are serialized:
// zero or more Next, then at most one of Error or Complete.
type Emitter[T any] interface {
	// Next delivers an element. It returns false when downstream no longer
	// accepts elements, after which the source should stop.
	Next(value T) bool

	// Error delivers the failure signal.
	Error(err error)

	// Complete delivers the completion signal.
	Complete()
}

// Observer groups the callbacks of a terminal subscriber. Any field may be nil.
type Observer[T any] struct {
	OnNext     func(T)
	OnError    func(error)
	OnComplete func()
}

// Observable is a lazy, push-based sequence. Nothing runs until a terminal
// operation subscribes, and each subscription is an independent stream instance.
type Observable[T any] interface {
	// Intermediate operations (lazy, return new Observable)

	// Map transforms each element. A returned error or a panic fails the
	// stream and the mapper is not invoked again.
	Map(mapper func(T) (T, error)) Observable[T]

	// Filter forwards elements matching predicate.
	Filter(predicate func(T) bool) Observable[T]

	// Take forwards at most n elements and then completes.
	Take(n int) Observable[T]

	// DoOnNext invokes action for each element before forwarding it.
	DoOnNext(action func(T)) Observable[T]

	// DoOnError invokes action with the failure before forwarding it.
	DoOnError(action func(error)) Observable[T]

	// OnErrorResumeNext replaces an upstream failure with the stream returned
	// by resume. resume is invoked at most once per subscription.
	OnErrorResumeNext(resume func(error) Observable[T]) Observable[T]

	// OnErrorReturn replaces an upstream failure with one final element.
	OnErrorReturn(fn func(error) T) Observable[T]

	// OnErrorReturnItem replaces an upstream failure with item.
	OnErrorReturnItem(item T) Observable[T]

	// SubscribeOn runs the upstream source on s.
	SubscribeOn(s scheduler.Scheduler) Observable[T]

	// Subscription

	// Subscribe starts a stream instance. With a synchronous source it returns
	// after the terminal signal; otherwise use the Subscription to wait.
	Subscribe(ctx context.Context, onNext func(T), onError func(error), opts ...lifecycle.Option) lifecycle.Subscription

	// SubscribeObserver is Subscribe with a completion callback.
	SubscribeObserver(ctx context.Context, observer Observer[T], opts ...lifecycle.Option) lifecycle.Subscription

	// Run drives the source into e without lifecycle tracking. Operators
	// defined outside this package compose through it.
	Run(ctx context.Context, e Emitter[T])

	// Terminal operations (block until the stream terminates)

	// ToSlice collects every element.
	ToSlice(ctx context.Context) ([]T, error)

	// ForEach invokes action for every element.
	ForEach(ctx context.Context, action func(T)) error

	// Count returns the number of elements.
	Count(ctx context.Context) (int64, error)
}

// observable is the default implementation of Observable.
type observable[T any] struct {
	onSubscribe func(ctx context.Context, e Emitter[T])
}

// Create builds an Observable from a function that drives e. The function
// should return once it has delivered a terminal signal or Next returned false,
// and should observe ctx for cancellation.
func Create[T any](onSubscribe func(ctx context.Context, e Emitter[T])) Observable[T] {
	if onSubscribe == nil {
		return Error[T](rxerrors.ErrNilSource)
	}
	return &observable[T]{onSubscribe: onSubscribe}
}

// Run implementation. A panic in the source function becomes a failure
// delivered to e.
func (o *observable[T]) Run(ctx context.Context, e Emitter[T]) {
	defer func() {
		if r := recover(); r != nil {
			e.Error(rxerrors.NewPanicError("source", r, debug.Stack()))
		}
	}()
	o.onSubscribe(ctx, e)
}

// Subscribe implementation
func (o *observable[T]) Subscribe(ctx context.Context, onNext func(T), onError func(error), opts ...lifecycle.Option) lifecycle.Subscription {
	return o.SubscribeObserver(ctx, Observer[T]{OnNext: onNext, OnError: onError}, opts...)
}

// SubscribeObserver implementation
func (o *observable[T]) SubscribeObserver(ctx context.Context, observer Observer[T], opts ...lifecycle.Option) lifecycle.Subscription {
	tracker := lifecycle.NewTracker(ctx, append([]lifecycle.Option{lifecycle.WithName("observable")}, opts...)...)
	sink := &observerSink[T]{tracker: tracker, observer: observer}

	tracker.Start()
	o.Run(tracker.Context(), sink)
	return tracker
}

// observerSink enforces the terminal-signal contract in front of user callbacks.
type observerSink[T any] struct {
	tracker  *lifecycle.Tracker
	observer Observer[T]
}

func (s *observerSink[T]) Next(value T) bool {
	if !s.tracker.Active() {
		return false
	}
	if s.observer.OnNext != nil {
		if err := lifecycle.Guard("onNext", func() { s.observer.OnNext(value) }); err != nil {
			s.Error(err)
			return false
		}
	}
	s.tracker.RecordItem()
	return s.tracker.Active()
}

func (s *observerSink[T]) Error(err error) {
	if !s.tracker.Fail(err) {
		s.tracker.Dropped(err)
		return
	}
	defer s.tracker.Finish()

	if s.observer.OnError == nil {
		s.tracker.Unhandled(err)
		return
	}
	if perr := lifecycle.Guard("onError", func() { s.observer.OnError(err) }); perr != nil {
		s.tracker.Unhandled(perr)
	}
}

func (s *observerSink[T]) Complete() {
	if !s.tracker.Complete() {
		return
	}
	defer s.tracker.Finish()

	if s.observer.OnComplete == nil {
		return
	}
	if perr := lifecycle.Guard("onComplete", s.observer.OnComplete); perr != nil {
		s.tracker.Unhandled(perr)
	}
}
