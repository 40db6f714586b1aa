package single

import (
	"context"
	"errors"
	"fmt"

	rxerrors "github.com/vnykmshr/rxflow/pkg/common/errors"
	"github.com/vnykmshr/rxflow/pkg/reactive/lifecycle"
	"github.com/vnykmshr/rxflow/pkg/reactive/observable"
	"github.com/vnykmshr/rxflow/pkg/scheduling/scheduler"
	"github.com/vnykmshr/rxflow/pkg/scheduling/workerpool"
)

// MapTo transforms the value of src into a different type. The mapper may
// return an error value as its result, in which case the error is delivered
// as a success value, not as a failure.
func MapTo[In, Out any](src Single[In], mapper func(In) (Out, error)) Single[Out] {
	if mapper == nil {
		return Error[Out](rxerrors.NewValidationError("map", "mapper", nil, "cannot be nil"))
	}

	return Create(func(ctx context.Context, e Emitter[Out]) {
		src.Run(ctx, &mapEmitter[In, Out]{down: e, mapper: mapper})
	})
}

type mapEmitter[In, Out any] struct {
	down   Emitter[Out]
	mapper func(In) (Out, error)
}

func (m *mapEmitter[In, Out]) Success(value In) {
	var out Out
	var err error
	if perr := lifecycle.Guard("map", func() { out, err = m.mapper(value) }); perr != nil {
		err = perr
	}
	if err != nil {
		m.down.Error(err)
		return
	}
	m.down.Success(out)
}

func (m *mapEmitter[In, Out]) Error(err error) {
	m.down.Error(err)
}

// Map implementation
func (s *single[T]) Map(mapper func(T) (T, error)) Single[T] {
	return MapTo[T, T](s, mapper)
}

// OnErrorResumeNext implementation
func (s *single[T]) OnErrorResumeNext(resume func(error) Single[T]) Single[T] {
	if resume == nil {
		return Error[T](rxerrors.NewValidationError("on_error_resume_next", "resume", nil, "cannot be nil"))
	}

	return Create(func(ctx context.Context, e Emitter[T]) {
		s.Run(ctx, &resumeEmitter[T]{ctx: ctx, down: e, resume: resume})
	})
}

type resumeEmitter[T any] struct {
	ctx    context.Context
	down   Emitter[T]
	resume func(error) Single[T]
}

func (r *resumeEmitter[T]) Success(value T) {
	r.down.Success(value)
}

func (r *resumeEmitter[T]) Error(err error) {
	lifecycle.RecordRecovery(r.ctx, observable.StrategyResumeNext, err)

	var fallback Single[T]
	if perr := lifecycle.Guard("onErrorResumeNext", func() { fallback = r.resume(err) }); perr != nil {
		r.down.Error(errors.Join(err, perr))
		return
	}
	if fallback == nil {
		r.down.Error(errors.Join(err, fmt.Errorf("on_error_resume_next: %w", rxerrors.ErrNilSource)))
		return
	}
	fallback.Run(r.ctx, r.down)
}

// OnErrorReturn implementation
func (s *single[T]) OnErrorReturn(fn func(error) T) Single[T] {
	if fn == nil {
		return Error[T](rxerrors.NewValidationError("on_error_return", "fn", nil, "cannot be nil"))
	}
	return s.onErrorReturn(observable.StrategyReturn, fn)
}

// OnErrorReturnItem implementation
func (s *single[T]) OnErrorReturnItem(item T) Single[T] {
	return s.onErrorReturn(observable.StrategyReturnItem, func(error) T { return item })
}

func (s *single[T]) onErrorReturn(strategy string, fn func(error) T) Single[T] {
	return Create(func(ctx context.Context, e Emitter[T]) {
		s.Run(ctx, &returnEmitter[T]{ctx: ctx, down: e, fn: fn, strategy: strategy})
	})
}

type returnEmitter[T any] struct {
	ctx      context.Context
	down     Emitter[T]
	fn       func(error) T
	strategy string
}

func (r *returnEmitter[T]) Success(value T) {
	r.down.Success(value)
}

func (r *returnEmitter[T]) Error(err error) {
	lifecycle.RecordRecovery(r.ctx, r.strategy, err)

	var value T
	if perr := lifecycle.Guard("onErrorReturn", func() { value = r.fn(err) }); perr != nil {
		r.down.Error(errors.Join(err, perr))
		return
	}
	r.down.Success(value)
}

// SubscribeOn implementation
func (s *single[T]) SubscribeOn(sch scheduler.Scheduler) Single[T] {
	if sch == nil {
		return Error[T](rxerrors.NewValidationError("subscribe_on", "scheduler", nil, "cannot be nil"))
	}

	return Create(func(ctx context.Context, e Emitter[T]) {
		task := workerpool.TaskFunc(func(taskCtx context.Context) error {
			s.Run(taskCtx, e)
			return nil
		})
		if err := sch.Schedule(ctx, task); err != nil {
			e.Error(err)
		}
	})
}

// ToObservable implementation
func (s *single[T]) ToObservable() observable.Observable[T] {
	return observable.Create(func(ctx context.Context, e observable.Emitter[T]) {
		s.Run(ctx, &observableEmitter[T]{down: e})
	})
}

type observableEmitter[T any] struct {
	down observable.Emitter[T]
}

func (o *observableEmitter[T]) Success(value T) {
	if o.down.Next(value) {
		o.down.Complete()
	}
}

func (o *observableEmitter[T]) Error(err error) {
	o.down.Error(err)
}
