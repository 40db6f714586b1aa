// Package lifecycle tracks the state of one stream instance.
//
// Every subscription to an observable or a single owns a Tracker. The
// Tracker moves through Idle, Emitting and exactly one terminal state, and it
// is the single place that decides whether a signal may still be delivered:
//
//	if tracker.Fail(err) {
//		defer tracker.Finish()
//		onError(err)
//	}
//
// A failure that cannot be delivered, because a terminal signal already won
// or because no error callback was installed, is logged through log/slog and
// counted in the stream_undeliverable_errors_total metric.
//
// Trackers also carry the subscription options: a name used as the
// stream_name metric label, a logger, a metrics registry and a dispose hook.
package lifecycle
