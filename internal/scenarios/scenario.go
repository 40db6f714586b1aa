// Package scenarios is the catalog of error-handling experiments run by the
// rxflow command: each scenario builds an observable or single chain, runs
// it once and reports what reached the observer.
package scenarios

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vnykmshr/rxflow/pkg/metrics"
	"github.com/vnykmshr/rxflow/pkg/reactive/lifecycle"
	"github.com/vnykmshr/rxflow/pkg/reactive/observable"
	"github.com/vnykmshr/rxflow/pkg/reactive/single"
	"github.com/vnykmshr/rxflow/pkg/scheduling/scheduler"
)

// Kind names the reactive type a scenario exercises.
type Kind string

const (
	KindObservable Kind = "observable"
	KindSingle     Kind = "single"
)

// Outcome summarizes how a scenario run ended.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	OutcomePanicked  Outcome = "panicked"
	OutcomeCanceled  Outcome = "canceled"
)

// DefaultMessage is the failure message raised by the transform step.
const DefaultMessage = "transform failed"

// Params configure the range-based scenarios.
type Params struct {
	Start   int    `yaml:"start" mapstructure:"start"`
	Count   int    `yaml:"count" mapstructure:"count"`
	Trigger int    `yaml:"trigger" mapstructure:"trigger"`
	Message string `yaml:"message" mapstructure:"message"`
}

// DefaultParams returns the parameters of the demonstrated chain:
// range(0, 100) failing on value 0.
func DefaultParams() Params {
	return Params{Start: 0, Count: 100, Trigger: 0, Message: DefaultMessage}
}

// Env is the execution environment shared by every scenario of a run.
type Env struct {
	Params Params

	// Scheduler moves sources off the calling goroutine. Nil runs synchronously.
	Scheduler scheduler.Scheduler

	Logger  *slog.Logger
	Metrics *metrics.Registry
}

func (e Env) message() string {
	if e.Params.Message == "" {
		return DefaultMessage
	}
	return e.Params.Message
}

func (e Env) options(name string) []lifecycle.Option {
	opts := []lifecycle.Option{lifecycle.WithName(name), lifecycle.WithMetrics(e.Metrics)}
	if e.Logger != nil {
		opts = append(opts, lifecycle.WithLogger(e.Logger))
	}
	return opts
}

// Scenario is one runnable experiment.
type Scenario struct {
	Name        string
	Kind        Kind
	Description string
	// Expect is the outcome a correct implementation produces with DefaultParams.
	Expect Outcome

	run func(ctx context.Context, env Env, rec *recovery) Result
}

// Run executes the scenario once.
func (s Scenario) Run(ctx context.Context, env Env) Result {
	rec := &recovery{}
	started := time.Now()

	res := s.run(ctx, env, rec)
	res.Name = s.Name
	res.Kind = s.Kind
	res.Recoveries = rec.count()
	res.Duration = time.Since(started)
	return res
}

// Result reports what reached the observer during one run.
type Result struct {
	Name           string
	Kind           Kind
	Outcome        Outcome
	Values         []string
	Err            error
	Panic          interface{}
	Recoveries     int
	SubscriptionID uuid.UUID
	Duration       time.Duration
}

// Verdict compares r with the scenario's expected outcome: "ok", "mismatch",
// or "-" when the scenario declares no expectation.
func (s Scenario) Verdict(r Result) string {
	switch {
	case s.Expect == "":
		return "-"
	case s.Expect == r.Outcome:
		return "ok"
	default:
		return "mismatch"
	}
}

// ErrorMessage returns the failure or panic text, or "".
func (r Result) ErrorMessage() string {
	switch {
	case r.Err != nil:
		return r.Err.Error()
	case r.Panic != nil:
		return fmt.Sprint(r.Panic)
	default:
		return ""
	}
}

// recovery counts recovery-stage invocations of one run.
type recovery struct {
	mu sync.Mutex
	n  int
}

func (r *recovery) hit() {
	r.mu.Lock()
	r.n++
	r.mu.Unlock()
}

func (r *recovery) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

// collector gathers observer signals, possibly from another goroutine.
type collector struct {
	mu     sync.Mutex
	values []string
	err    error
}

func (c *collector) next(v interface{}) {
	c.mu.Lock()
	c.values = append(c.values, fmt.Sprint(v))
	c.mu.Unlock()
}

func (c *collector) fail(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
}

func (c *collector) result(sub lifecycle.Subscription, canceled bool) Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	res := Result{
		Values:         append([]string(nil), c.values...),
		Err:            c.err,
		SubscriptionID: sub.ID(),
	}
	switch {
	case canceled:
		res.Outcome = OutcomeCanceled
	case sub.State() == lifecycle.Failed:
		res.Outcome = OutcomeFailed
	default:
		res.Outcome = OutcomeCompleted
	}
	return res
}

// await blocks until sub terminates or ctx is done, disposing sub in the
// latter case.
func await(ctx context.Context, sub lifecycle.Subscription) bool {
	select {
	case <-sub.Done():
		return false
	case <-ctx.Done():
		sub.Dispose()
		return true
	}
}

// observe runs src to its terminal signal. onNext, if set, runs after each
// element is recorded.
func observe[T any](ctx context.Context, env Env, name string, src observable.Observable[T], onNext func(T)) Result {
	if env.Scheduler != nil {
		src = src.SubscribeOn(env.Scheduler)
	}

	c := &collector{}
	sub := src.Subscribe(ctx,
		func(v T) {
			c.next(v)
			if onNext != nil {
				onNext(v)
			}
		},
		c.fail,
		env.options(name)...,
	)
	canceled := await(ctx, sub)
	return c.result(sub, canceled)
}

// observeSingle runs src and reports a panic raised by onSuccess instead of
// crashing the run. Sources with an onSuccess hook always run on the calling
// goroutine, where that panic surfaces.
func observeSingle[T any](ctx context.Context, env Env, name string, src single.Single[T], onSuccess func(T)) (res Result) {
	if env.Scheduler != nil && onSuccess == nil {
		src = src.SubscribeOn(env.Scheduler)
	}

	c := &collector{}
	defer func() {
		if r := recover(); r != nil {
			res = Result{Outcome: OutcomePanicked, Panic: r, Values: c.values}
		}
	}()

	sub := src.Subscribe(ctx,
		func(v T) {
			c.next(v)
			if onSuccess != nil {
				onSuccess(v)
			}
		},
		c.fail,
		env.options(name)...,
	)
	canceled := await(ctx, sub)
	return c.result(sub, canceled)
}
