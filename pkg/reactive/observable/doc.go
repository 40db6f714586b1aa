/*
Package observable provides lazy, push-based sequences with operators for
transformation and error recovery.

An Observable does nothing until it is subscribed. Each subscription is an
independent stream instance: the source runs, elements flow through the
operator chain, and the observer receives zero or more elements followed by
at most one terminal signal, either completion or failure.

Basic Usage:

	sub := observable.Range(1, 5).
		Map(func(v int) (int, error) { return v * 10, nil }).
		Subscribe(ctx,
			func(v int) { fmt.Println(v) },
			func(err error) { log.Println(err) },
		)
	<-sub.Done()

Failures:

A mapper that returns an error, or panics, fails the stream. No element is
delivered after the failure and the mapper is not invoked again. Recovery
stages intercept the failure before it reaches the observer:

	stream.OnErrorResumeNext(func(err error) observable.Observable[int] {
		return observable.Just(-1)
	})

Returning observable.Error(err) from the recovery function re-raises the
identical error value, which is useful to observe a failure without
changing it.

A panic raised by the onNext callback is converted into an
*errors.PanicError and delivered to onError.

Execution:

Sources run on the subscribing goroutine, so Subscribe returns after the
terminal signal. SubscribeOn moves the source onto a scheduler.Scheduler,
and Subscribe then returns immediately; wait on Subscription.Done. Canceling
the context passed to Subscribe fails the stream with ctx.Err(); disposing
the Subscription stops it silently.

Blocking operations (ToSlice, ForEach, Count) take a context first and return
the failure as an error.
*/
package observable
