/*
Package rxflow provides push-based reactive streams for Go with explicit
error-recovery stages.

Reactive types (pkg/reactive):
  - observable: zero or more elements followed by completion or a failure
  - single: exactly one success value or a failure
  - lifecycle: per-subscription state machine, disposal and metrics

Execution (pkg/scheduling):
  - workerpool: Background task processing
  - scheduler: Immediate, goroutine and pool-backed schedulers, cron parsing

Example usage:

	import (
		"github.com/vnykmshr/rxflow/pkg/reactive/observable"
		"github.com/vnykmshr/rxflow/pkg/scheduling/scheduler"
		"github.com/vnykmshr/rxflow/pkg/scheduling/workerpool"
	)

	pool := workerpool.New(5, 100) // 5 workers, queue 100
	sched, _ := scheduler.FromPool(pool, "io")

	observable.Range(0, 100).
		Map(transform).
		OnErrorResumeNext(func(err error) observable.Observable[int] {
			return observable.Error[int](err)
		}).
		SubscribeOn(sched).
		Subscribe(ctx, onNext, onError)

A stream delivers at most one terminal signal. Once a stage fails, no
further elements reach the observer, and a recovery stage runs at most once
per subscription.

The rxflow command (cmd/rxflow) runs a catalog of error-handling scenarios
built on these packages.
*/
package rxflow
