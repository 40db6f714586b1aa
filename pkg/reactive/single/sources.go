package single

import (
	"context"
	"fmt"

	rxerrors "github.com/vnykmshr/rxflow/pkg/common/errors"
	"github.com/vnykmshr/rxflow/pkg/reactive/lifecycle"
	"github.com/vnykmshr/rxflow/pkg/reactive/observable"
)

// Just succeeds with value.
func Just[T any](value T) Single[T] {
	return Create(func(_ context.Context, e Emitter[T]) {
		e.Success(value)
	})
}

// Error fails with the identical err value.
func Error[T any](err error) Single[T] {
	return &single[T]{onSubscribe: func(_ context.Context, e Emitter[T]) {
		e.Error(err)
	}}
}

// FromFunc calls fn once per subscription and signals its result.
// A panic in fn becomes a *errors.PanicError failure.
func FromFunc[T any](fn func(ctx context.Context) (T, error)) Single[T] {
	if fn == nil {
		return Error[T](rxerrors.NewValidationError("from_func", "fn", nil, "cannot be nil"))
	}

	return Create(func(ctx context.Context, e Emitter[T]) {
		var value T
		var err error
		if perr := lifecycle.Guard("fromFunc", func() { value, err = fn(ctx) }); perr != nil {
			err = perr
		}
		if err != nil {
			e.Error(err)
			return
		}
		e.Success(value)
	})
}

// Defer invokes factory for every subscription and subscribes to the result.
func Defer[T any](factory func() Single[T]) Single[T] {
	if factory == nil {
		return Error[T](rxerrors.NewValidationError("defer", "factory", nil, "cannot be nil"))
	}

	return Create(func(ctx context.Context, e Emitter[T]) {
		src := factory()
		if src == nil {
			e.Error(fmt.Errorf("defer: factory returned nil: %w", rxerrors.ErrNilSource))
			return
		}
		src.Run(ctx, e)
	})
}

// FromObservable succeeds with the first element of src and stops it.
// An empty src fails with errors.ErrNoElements.
func FromObservable[T any](src observable.Observable[T]) Single[T] {
	if src == nil {
		return Error[T](rxerrors.NewValidationError("from_observable", "source", nil, "cannot be nil"))
	}

	return Create(func(ctx context.Context, e Emitter[T]) {
		src.Run(ctx, &firstEmitter[T]{down: e})
	})
}

// firstEmitter adapts an observable stream to a single.
type firstEmitter[T any] struct {
	down Emitter[T]
	done bool
}

func (f *firstEmitter[T]) Next(value T) bool {
	if f.done {
		return false
	}
	f.done = true
	f.down.Success(value)
	return false
}

func (f *firstEmitter[T]) Error(err error) {
	if f.done {
		return
	}
	f.done = true
	f.down.Error(err)
}

func (f *firstEmitter[T]) Complete() {
	if f.done {
		return
	}
	f.done = true
	f.down.Error(rxerrors.ErrNoElements)
}
