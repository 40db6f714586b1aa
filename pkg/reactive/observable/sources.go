package observable

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	rxcontext "github.com/vnykmshr/rxflow/pkg/common/context"
	rxerrors "github.com/vnykmshr/rxflow/pkg/common/errors"
	"github.com/vnykmshr/rxflow/pkg/common/validation"
	"github.com/vnykmshr/rxflow/pkg/scheduling/scheduler"
)

// Range emits count ascending integers starting at start, then completes.
// A negative count, or a run that would overflow int, fails with a
// *errors.ValidationError before any element is emitted.
func Range(start, count int) Observable[int] {
	if err := validation.ValidateRange("range", start, count); err != nil {
		return Error[int](err)
	}

	return Create(func(ctx context.Context, e Emitter[int]) {
		for i := 0; i < count; i++ {
			if rxcontext.IsCanceled(ctx) {
				e.Error(ctx.Err())
				return
			}
			if !e.Next(start + i) {
				return
			}
		}
		e.Complete()
	})
}

// Just emits the given values in order, then completes.
func Just[T any](values ...T) Observable[T] {
	return FromSlice(values)
}

// FromSlice emits the elements of slice in order, then completes.
func FromSlice[T any](slice []T) Observable[T] {
	return Create(func(ctx context.Context, e Emitter[T]) {
		for _, v := range slice {
			if rxcontext.IsCanceled(ctx) {
				e.Error(ctx.Err())
				return
			}
			if !e.Next(v) {
				return
			}
		}
		e.Complete()
	})
}

// FromChannel emits values received from ch and completes when ch is closed.
func FromChannel[T any](ch <-chan T) Observable[T] {
	if ch == nil {
		return Error[T](rxerrors.NewValidationError("from_channel", "channel", nil, "cannot be nil"))
	}

	return Create(func(ctx context.Context, e Emitter[T]) {
		for {
			select {
			case v, ok := <-ch:
				if !ok {
					e.Complete()
					return
				}
				if !e.Next(v) {
					return
				}
			case <-ctx.Done():
				e.Error(ctx.Err())
				return
			}
		}
	})
}

// Empty completes immediately without emitting.
func Empty[T any]() Observable[T] {
	return Create(func(_ context.Context, e Emitter[T]) {
		e.Complete()
	})
}

// Error fails immediately with err. The identical error value reaches the
// subscriber, so Error can re-raise a failure received by a recovery stage.
func Error[T any](err error) Observable[T] {
	return &observable[T]{onSubscribe: func(_ context.Context, e Emitter[T]) {
		e.Error(err)
	}}
}

// Defer invokes factory for every subscription and subscribes to the result.
func Defer[T any](factory func() Observable[T]) Observable[T] {
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

// Interval emits 0, 1, 2, ... once per period until downstream stops or the
// context is canceled.
func Interval(period time.Duration) Observable[int64] {
	if period <= 0 {
		return Error[int64](rxerrors.NewValidationError("interval", "period", period, "must be positive"))
	}

	return Create(func(ctx context.Context, e Emitter[int64]) {
		ticker := time.NewTicker(period)
		defer ticker.Stop()

		for n := int64(0); ; n++ {
			select {
			case <-ticker.C:
				if !e.Next(n) {
					return
				}
			case <-ctx.Done():
				e.Error(ctx.Err())
				return
			}
		}
	})
}

// FromSchedule emits the fire times of schedule as they arrive, and completes
// when the schedule reports no further time.
func FromSchedule(schedule cron.Schedule) Observable[time.Time] {
	if schedule == nil {
		return Error[time.Time](rxerrors.NewValidationError("from_schedule", "schedule", nil, "cannot be nil"))
	}

	return Create(func(ctx context.Context, e Emitter[time.Time]) {
		current := time.Now()
		for {
			next := schedule.Next(current)
			if next.IsZero() {
				e.Complete()
				return
			}
			if err := rxcontext.SleepUntil(ctx, next); err != nil {
				e.Error(err)
				return
			}
			if !e.Next(next) {
				return
			}
			current = next
		}
	})
}

// Cron emits the fire times of a cron expression. See scheduler.ParseCron
// for the accepted syntax.
func Cron(expr string) Observable[time.Time] {
	schedule, err := scheduler.ParseCron(expr)
	if err != nil {
		return Error[time.Time](err)
	}
	return FromSchedule(schedule)
}
