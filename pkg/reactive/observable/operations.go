package observable

import (
	"context"
	"errors"
	"fmt"

	rxerrors "github.com/vnykmshr/rxflow/pkg/common/errors"
	"github.com/vnykmshr/rxflow/pkg/common/validation"
	"github.com/vnykmshr/rxflow/pkg/reactive/lifecycle"
	"github.com/vnykmshr/rxflow/pkg/scheduling/scheduler"
	"github.com/vnykmshr/rxflow/pkg/scheduling/workerpool"
)

// Recovery strategies reported in the stream_recoveries_total metric.
const (
	StrategyResumeNext = "resume_next"
	StrategyReturn     = "return"
	StrategyReturnItem = "return_item"
)

// MapTo transforms each element of src into a different type. A returned
// error or a panic fails the stream, and mapper is not invoked again.
func MapTo[In, Out any](src Observable[In], mapper func(In) (Out, error)) Observable[Out] {
	if mapper == nil {
		return Error[Out](rxerrors.NewValidationError("map", "mapper", nil, "cannot be nil"))
	}

	return Create(func(ctx context.Context, e Emitter[Out]) {
		src.Run(ctx, &mapEmitter[In, Out]{down: e, mapper: mapper})
	})
}

// mapEmitter is the per-subscription state of a Map stage.
type mapEmitter[In, Out any] struct {
	down   Emitter[Out]
	mapper func(In) (Out, error)
	done   bool
}

func (m *mapEmitter[In, Out]) Next(value In) bool {
	if m.done {
		return false
	}

	var out Out
	var err error
	if perr := lifecycle.Guard("map", func() { out, err = m.mapper(value) }); perr != nil {
		err = perr
	}
	if err != nil {
		m.done = true
		m.down.Error(err)
		return false
	}
	return m.down.Next(out)
}

func (m *mapEmitter[In, Out]) Error(err error) {
	if m.done {
		return
	}
	m.done = true
	m.down.Error(err)
}

func (m *mapEmitter[In, Out]) Complete() {
	if m.done {
		return
	}
	m.done = true
	m.down.Complete()
}

// Map implementation
func (o *observable[T]) Map(mapper func(T) (T, error)) Observable[T] {
	return MapTo[T, T](o, mapper)
}

// Filter implementation
func (o *observable[T]) Filter(predicate func(T) bool) Observable[T] {
	if predicate == nil {
		return Error[T](rxerrors.NewValidationError("filter", "predicate", nil, "cannot be nil"))
	}
	return Create(func(ctx context.Context, e Emitter[T]) {
		o.Run(ctx, &filterEmitter[T]{down: e, predicate: predicate})
	})
}

type filterEmitter[T any] struct {
	down      Emitter[T]
	predicate func(T) bool
	done      bool
}

func (f *filterEmitter[T]) Next(value T) bool {
	if f.done {
		return false
	}

	var keep bool
	if err := lifecycle.Guard("filter", func() { keep = f.predicate(value) }); err != nil {
		f.done = true
		f.down.Error(err)
		return false
	}
	if !keep {
		return true
	}
	return f.down.Next(value)
}

func (f *filterEmitter[T]) Error(err error) {
	if f.done {
		return
	}
	f.done = true
	f.down.Error(err)
}

func (f *filterEmitter[T]) Complete() {
	if f.done {
		return
	}
	f.done = true
	f.down.Complete()
}

// Take implementation
func (o *observable[T]) Take(n int) Observable[T] {
	if err := validation.ValidateNonNegative("take", "count", n); err != nil {
		return Error[T](err)
	}
	if n == 0 {
		return Empty[T]()
	}
	return Create(func(ctx context.Context, e Emitter[T]) {
		o.Run(ctx, &takeEmitter[T]{down: e, limit: n})
	})
}

type takeEmitter[T any] struct {
	down  Emitter[T]
	limit int
	seen  int
	done  bool
}

func (t *takeEmitter[T]) Next(value T) bool {
	if t.done {
		return false
	}
	t.seen++
	ok := t.down.Next(value)
	if t.seen >= t.limit {
		t.done = true
		if ok {
			t.down.Complete()
		}
		return false
	}
	return ok
}

func (t *takeEmitter[T]) Error(err error) {
	if t.done {
		return
	}
	t.done = true
	t.down.Error(err)
}

func (t *takeEmitter[T]) Complete() {
	if t.done {
		return
	}
	t.done = true
	t.down.Complete()
}

// DoOnNext implementation
func (o *observable[T]) DoOnNext(action func(T)) Observable[T] {
	if action == nil {
		return o
	}
	return MapTo[T, T](o, func(v T) (T, error) {
		if err := lifecycle.Guard("doOnNext", func() { action(v) }); err != nil {
			return v, err
		}
		return v, nil
	})
}

// DoOnError implementation
func (o *observable[T]) DoOnError(action func(error)) Observable[T] {
	if action == nil {
		return o
	}
	return Create(func(ctx context.Context, e Emitter[T]) {
		o.Run(ctx, &doOnErrorEmitter[T]{Emitter: e, action: action})
	})
}

type doOnErrorEmitter[T any] struct {
	Emitter[T]
	action func(error)
}

func (d *doOnErrorEmitter[T]) Error(err error) {
	if perr := lifecycle.Guard("doOnError", func() { d.action(err) }); perr != nil {
		err = errors.Join(err, perr)
	}
	d.Emitter.Error(err)
}

// OnErrorResumeNext implementation
func (o *observable[T]) OnErrorResumeNext(resume func(error) Observable[T]) Observable[T] {
	if resume == nil {
		return Error[T](rxerrors.NewValidationError("on_error_resume_next", "resume", nil, "cannot be nil"))
	}
	return Create(func(ctx context.Context, e Emitter[T]) {
		o.Run(ctx, &resumeEmitter[T]{ctx: ctx, down: e, resume: resume})
	})
}

// resumeEmitter forwards elements unchanged and, on the first upstream
// failure, subscribes the fallback stream to the same downstream. Failures of
// the fallback are not recovered again.
type resumeEmitter[T any] struct {
	ctx    context.Context
	down   Emitter[T]
	resume func(error) Observable[T]
	done   bool
}

func (r *resumeEmitter[T]) Next(value T) bool {
	if r.done {
		return false
	}
	return r.down.Next(value)
}

func (r *resumeEmitter[T]) Error(err error) {
	if r.done {
		return
	}
	r.done = true
	lifecycle.RecordRecovery(r.ctx, StrategyResumeNext, err)

	var fallback Observable[T]
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

func (r *resumeEmitter[T]) Complete() {
	if r.done {
		return
	}
	r.done = true
	r.down.Complete()
}

// OnErrorReturn implementation
func (o *observable[T]) OnErrorReturn(fn func(error) T) Observable[T] {
	if fn == nil {
		return Error[T](rxerrors.NewValidationError("on_error_return", "fn", nil, "cannot be nil"))
	}
	return o.onErrorReturn(StrategyReturn, fn)
}

// OnErrorReturnItem implementation
func (o *observable[T]) OnErrorReturnItem(item T) Observable[T] {
	return o.onErrorReturn(StrategyReturnItem, func(error) T { return item })
}

func (o *observable[T]) onErrorReturn(strategy string, fn func(error) T) Observable[T] {
	return Create(func(ctx context.Context, e Emitter[T]) {
		o.Run(ctx, &returnEmitter[T]{ctx: ctx, down: e, fn: fn, strategy: strategy})
	})
}

type returnEmitter[T any] struct {
	ctx      context.Context
	down     Emitter[T]
	fn       func(error) T
	strategy string
	done     bool
}

func (r *returnEmitter[T]) Next(value T) bool {
	if r.done {
		return false
	}
	return r.down.Next(value)
}

func (r *returnEmitter[T]) Error(err error) {
	if r.done {
		return
	}
	r.done = true
	lifecycle.RecordRecovery(r.ctx, r.strategy, err)

	var value T
	if perr := lifecycle.Guard("onErrorReturn", func() { value = r.fn(err) }); perr != nil {
		r.down.Error(errors.Join(err, perr))
		return
	}
	if r.down.Next(value) {
		r.down.Complete()
	}
}

func (r *returnEmitter[T]) Complete() {
	if r.done {
		return
	}
	r.done = true
	r.down.Complete()
}

// SubscribeOn implementation
func (o *observable[T]) SubscribeOn(s scheduler.Scheduler) Observable[T] {
	if s == nil {
		return Error[T](rxerrors.NewValidationError("subscribe_on", "scheduler", nil, "cannot be nil"))
	}
	return Create(func(ctx context.Context, e Emitter[T]) {
		task := workerpool.TaskFunc(func(taskCtx context.Context) error {
			o.Run(taskCtx, e)
			return nil
		})
		if err := s.Schedule(ctx, task); err != nil {
			e.Error(err)
		}
	})
}
