/*
Package scheduling provides the execution contexts that reactive
subscriptions run on.

  - workerpool: Fixed worker pool for concurrent task execution
  - scheduler: Scheduler implementations and cron expression parsing

Worker Pool:

The worker pool provides controlled concurrent execution:

	pool := workerpool.New(4, 100) // 4 workers, queue size 100
	defer func() { <-pool.Shutdown() }()

Schedulers:

A Scheduler decides where a subscription's source runs:

	sched, _ := scheduler.FromPool(pool, "io")
	observable.Range(0, 10).SubscribeOn(sched).Subscribe(ctx, onNext, onError)

	scheduler.Immediate()       // the subscribing goroutine
	scheduler.NewGoroutine(nil) // a fresh goroutine per subscription

Cron expressions feed tick sources and the rxflow cron command:

	schedule, err := scheduler.ParseCron("@hourly")
	ticks := observable.FromSchedule(schedule)

All scheduling components are safe for concurrent use and honor context
cancellation.
*/
package scheduling
