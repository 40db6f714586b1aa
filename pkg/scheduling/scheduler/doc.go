/*
Package scheduler provides execution contexts for stream subscriptions and
cron schedule parsing for tick sources.

A Scheduler decides where a subscription's source runs:

	observable.Range(1, 10).
		SubscribeOn(scheduler.NewGoroutine(nil)).
		Subscribe(ctx, onNext, onError)

Three implementations are available:
  - Immediate runs the task on the calling goroutine
  - NewGoroutine starts one goroutine per task and can Wait for them
  - FromPool submits to a workerpool.Pool, bounding concurrency

ParseCron accepts standard five-field expressions, an optional leading
seconds field and descriptors:

	schedule, err := scheduler.ParseCron("0/5 * * * * *")
	ticks := observable.FromSchedule(schedule)

Describe previews the next fire times of an expression.

Schedulers never retry or persist tasks; they only choose the goroutine
a subscription runs on.
*/
package scheduler
