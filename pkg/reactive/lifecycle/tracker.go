package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	rxerrors "github.com/vnykmshr/rxflow/pkg/common/errors"
)

// Subscription is the handle returned when subscribing to a stream.
type Subscription interface {
	// ID uniquely identifies this stream instance.
	ID() uuid.UUID

	// Name is the label given with WithName.
	Name() string

	// Dispose tears the subscription down. No signal is delivered afterwards.
	// Disposing a terminated subscription is a no-op.
	Dispose()

	// IsDisposed reports whether the subscription will deliver no further signals,
	// either because it was disposed or because it reached a terminal signal.
	IsDisposed() bool

	// State returns the current lifecycle state.
	State() State

	// Done is closed once the subscription reaches a terminal state and the
	// terminal callback has returned.
	Done() <-chan struct{}

	// Err returns the failure delivered to the observer, or nil.
	Err() error
}

type trackerKey struct{}

// Tracker enforces the terminal-signal contract of one stream instance and
// implements Subscription. Observers built on top of it check the returned
// booleans before invoking user callbacks.
type Tracker struct {
	id   uuid.UUID
	opts options

	ctx    context.Context
	cancel context.CancelFunc

	state      atomic.Int32
	mu         sync.Mutex
	err        error
	done       chan struct{}
	finishOnce sync.Once
	started    time.Time
}

// NewTracker creates a Tracker whose context derives from parent.
// Canceling parent surfaces as a failure in sources that observe the context;
// Dispose cancels the derived context without delivering anything.
func NewTracker(parent context.Context, opts ...Option) *Tracker {
	if parent == nil {
		parent = context.Background()
	}

	o := options{name: "stream", logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	t := &Tracker{
		id:      uuid.New(),
		opts:    o,
		done:    make(chan struct{}),
		started: time.Now(),
	}

	ctx, cancel := context.WithCancel(parent)
	t.ctx = context.WithValue(ctx, trackerKey{}, t)
	t.cancel = cancel

	if r := o.registry; r != nil {
		r.Subscriptions.WithLabelValues(o.name).Inc()
		r.ActiveSubscriptions.WithLabelValues(o.name).Inc()
	}

	return t
}

// FromContext returns the Tracker driving ctx, or nil.
func FromContext(ctx context.Context) *Tracker {
	t, _ := ctx.Value(trackerKey{}).(*Tracker)
	return t
}

// Context returns the context sources must observe.
func (t *Tracker) Context() context.Context {
	return t.ctx
}

// ID implements Subscription.
func (t *Tracker) ID() uuid.UUID {
	return t.id
}

// Name implements Subscription.
func (t *Tracker) Name() string {
	return t.opts.name
}

// State implements Subscription.
func (t *Tracker) State() State {
	return State(t.state.Load())
}

// Done implements Subscription.
func (t *Tracker) Done() <-chan struct{} {
	return t.done
}

// Err implements Subscription.
func (t *Tracker) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// IsDisposed implements Subscription.
func (t *Tracker) IsDisposed() bool {
	return t.State().IsTerminal()
}

// Start moves the tracker from Idle to Emitting.
func (t *Tracker) Start() bool {
	return t.state.CompareAndSwap(int32(Idle), int32(Emitting))
}

// Active reports whether elements may still be delivered.
func (t *Tracker) Active() bool {
	return !t.State().IsTerminal()
}

// Complete claims the single terminal slot for a completion signal.
// It returns false when another terminal signal already won.
func (t *Tracker) Complete() bool {
	return t.transition(Completed)
}

// Fail claims the single terminal slot for a failure signal and records err.
// It returns false when another terminal signal already won.
func (t *Tracker) Fail(err error) bool {
	if !t.transition(Failed) {
		return false
	}
	t.mu.Lock()
	t.err = err
	t.mu.Unlock()
	return true
}

// Dispose implements Subscription.
func (t *Tracker) Dispose() {
	if !t.transition(Disposed) {
		return
	}
	if t.opts.onDispose != nil {
		t.opts.onDispose()
	}
	t.Finish()
}

func (t *Tracker) transition(to State) bool {
	for {
		current := t.state.Load()
		if State(current).IsTerminal() {
			return false
		}
		if t.state.CompareAndSwap(current, int32(to)) {
			return true
		}
	}
}

// Finish releases the subscription after its terminal callback returned:
// it closes Done, cancels the context and records duration metrics.
func (t *Tracker) Finish() {
	t.finishOnce.Do(func() {
		t.cancel()

		if r := t.opts.registry; r != nil {
			name := t.opts.name
			state := t.State()
			r.ActiveSubscriptions.WithLabelValues(name).Dec()
			switch state {
			case Completed:
				r.Completions.WithLabelValues(name).Inc()
			case Failed:
				r.Failures.WithLabelValues(name).Inc()
			case Disposed:
				r.Disposals.WithLabelValues(name).Inc()
			}
			r.SubscriptionDuration.WithLabelValues(name, state.String()).Observe(time.Since(t.started).Seconds())
		}

		close(t.done)
	})
}

// RecordItem counts an element delivered to the observer.
func (t *Tracker) RecordItem() {
	if r := t.opts.registry; r != nil {
		r.ItemsEmitted.WithLabelValues(t.opts.name).Inc()
	}
}

// RecordRecovery counts an invocation of a recovery stage.
func (t *Tracker) RecordRecovery(strategy string, cause error) {
	t.opts.logger.Debug("recovery stage invoked",
		"stream", t.opts.name,
		"subscription", t.id.String(),
		"strategy", strategy,
		"error", cause)

	if r := t.opts.registry; r != nil {
		r.Recoveries.WithLabelValues(t.opts.name, strategy).Inc()
	}
}

// Unhandled reports a failure the observer had no callback for.
func (t *Tracker) Unhandled(err error) {
	t.opts.logger.Error("stream failed without an error handler",
		"stream", t.opts.name,
		"subscription", t.id.String(),
		"error", err)
	t.countUndeliverable()
}

// Dropped reports a failure raised after the terminal signal. Cancellation
// errors caused by the subscription's own teardown are ignored.
func (t *Tracker) Dropped(err error) {
	if t.State() == Disposed {
		return
	}
	if ctxErr := t.ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return
	}
	t.opts.logger.Warn("dropping error raised after terminal signal",
		"stream", t.opts.name,
		"subscription", t.id.String(),
		"state", t.State().String(),
		"error", err)
	t.countUndeliverable()
}

func (t *Tracker) countUndeliverable() {
	if r := t.opts.registry; r != nil {
		r.UndeliverableErrors.WithLabelValues(t.opts.name).Inc()
	}
}

// Guard runs fn and converts a panic into a *errors.PanicError tagged with op.
func Guard(op string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = rxerrors.NewPanicError(op, r, debug.Stack())
		}
	}()
	fn()
	return nil
}

// RecordRecovery counts a recovery on the Tracker driving ctx, if any.
func RecordRecovery(ctx context.Context, strategy string, cause error) {
	if t := FromContext(ctx); t != nil {
		t.RecordRecovery(strategy, cause)
	}
}
