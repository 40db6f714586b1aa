/*
Package workerpool provides a fixed-size worker pool used as an asynchronous
execution context for reactive subscriptions.

A worker pool manages a fixed number of worker goroutines that execute tasks
concurrently. scheduler.FromPool adapts a Pool so that
Observable.SubscribeOn can move a subscription off the caller's goroutine.

Basic usage:

	pool := workerpool.New(4, 100) // 4 workers, queue size 100
	defer pool.Shutdown()

	task := workerpool.TaskFunc(func(ctx context.Context) error {
		// Do work
		return nil
	})

	if err := pool.Submit(task); err != nil {
		log.Printf("Failed to submit: %v", err)
	}

Task results are reported through Config.OnTaskComplete. A panicking task
does not kill its worker: the panic is recovered into an *errors.PanicError
carried by the Result.

Shutdown stops accepting tasks, lets the workers drain the queue and closes
the returned channel once every worker has exited.
*/
package workerpool
