package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	rxerrors "github.com/vnykmshr/rxflow/pkg/common/errors"
	"github.com/vnykmshr/rxflow/pkg/common/validation"
	"github.com/vnykmshr/rxflow/pkg/scheduling/workerpool"
)

// Scheduler is an execution context for stream subscriptions.
type Scheduler interface {
	// Schedule arranges for task to run with ctx. It returns an error only
	// when the task could not be accepted; errors returned by the task itself
	// are not reported.
	Schedule(ctx context.Context, task workerpool.Task) error

	// Name identifies the scheduler in logs.
	Name() string
}

type immediateScheduler struct{}

// Immediate returns a Scheduler that runs tasks on the calling goroutine
// before Schedule returns.
func Immediate() Scheduler {
	return immediateScheduler{}
}

func (immediateScheduler) Schedule(ctx context.Context, task workerpool.Task) error {
	if task == nil {
		return rxerrors.NewValidationError("scheduler", "task", nil, "cannot be nil")
	}
	_ = task.Execute(ctx)
	return nil
}

func (immediateScheduler) Name() string {
	return "immediate"
}

// GoroutineScheduler runs every task on a new goroutine.
type GoroutineScheduler struct {
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewGoroutine creates a GoroutineScheduler. Panics escaping a task are
// recovered and logged with logger, or slog.Default() when logger is nil.
func NewGoroutine(logger *slog.Logger) *GoroutineScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GoroutineScheduler{logger: logger}
}

// Schedule implements Scheduler.
func (s *GoroutineScheduler) Schedule(ctx context.Context, task workerpool.Task) error {
	if task == nil {
		return rxerrors.NewValidationError("scheduler", "task", nil, "cannot be nil")
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("scheduled task panicked",
					"scheduler", s.Name(),
					"panic", fmt.Sprint(r),
					"stack", string(debug.Stack()))
			}
		}()
		_ = task.Execute(ctx)
	}()
	return nil
}

// Name implements Scheduler.
func (s *GoroutineScheduler) Name() string {
	return "goroutine"
}

// Wait blocks until every task scheduled so far has returned.
func (s *GoroutineScheduler) Wait() {
	s.wg.Wait()
}

type poolScheduler struct {
	pool workerpool.Pool
	name string
}

// FromPool returns a Scheduler that submits tasks to pool. Schedule fails
// with errors.ErrClosed once the pool is shut down.
func FromPool(pool workerpool.Pool, name string) (Scheduler, error) {
	if err := validation.ValidateNotNil("scheduler", "pool", pool); err != nil {
		return nil, err
	}
	if name == "" {
		name = "pool"
	}
	return &poolScheduler{pool: pool, name: name}, nil
}

func (s *poolScheduler) Schedule(ctx context.Context, task workerpool.Task) error {
	if err := s.pool.SubmitWithContext(ctx, task); err != nil {
		return fmt.Errorf("scheduler %s: %w", s.name, err)
	}
	return nil
}

func (s *poolScheduler) Name() string {
	return s.name
}
