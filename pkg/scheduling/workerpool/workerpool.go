package workerpool

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	rxcontext "github.com/vnykmshr/rxflow/pkg/common/context"
	rxerrors "github.com/vnykmshr/rxflow/pkg/common/errors"
)

// Submit adds a task to the pool for execution.
// The task will be executed with context.Background().
// Use SubmitWithContext to provide a custom context.
func (p *workerPool) Submit(task Task) error {
	return p.SubmitWithContext(context.Background(), task)
}

// SubmitWithContext adds a task to the pool for execution with the given context.
// The context is passed to the task's Execute method, enabling timeout and
// cancellation propagation. If the pool has a TaskTimeout configured, the
// effective timeout will be the minimum of the context deadline and TaskTimeout.
func (p *workerPool) SubmitWithContext(ctx context.Context, task Task) error {
	if task == nil {
		return fmt.Errorf("task cannot be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	p.mu.RLock()
	if p.isShutdown {
		p.mu.RUnlock()
		return fmt.Errorf("cannot submit task: %w", rxerrors.ErrClosed)
	}
	p.submitWg.Add(1)
	p.mu.RUnlock()
	defer p.submitWg.Done()

	// Check if context is already canceled before attempting to queue
	// This ensures deterministic behavior for pre-canceled contexts
	if rxcontext.IsCanceled(ctx) {
		return fmt.Errorf("cannot submit task: context canceled: %w", ctx.Err())
	}

	select {
	case p.taskQueue <- taskWithContext{task: task, ctx: ctx}:
		p.totalSubmitted.Add(1)
		return nil
	case <-p.shutdownCh:
		return fmt.Errorf("cannot submit task: %w", rxerrors.ErrClosed)
	case <-ctx.Done():
		return fmt.Errorf("cannot submit task: context canceled: %w", ctx.Err())
	}
}

// Shutdown initiates a graceful shutdown of the pool.
func (p *workerPool) Shutdown() <-chan struct{} {
	p.shutdownOnce.Do(func() {
		p.mu.Lock()
		p.isShutdown = true
		p.mu.Unlock()

		close(p.shutdownCh)

		go func() {
			// No submitter can be mid-send once this returns.
			p.submitWg.Wait()
			close(p.taskQueue)
			p.workerWg.Wait()
			close(p.done)
		}()
	})

	return p.done
}

// Size returns the number of workers in the pool.
func (p *workerPool) Size() int {
	return p.config.WorkerCount
}

// QueueSize returns the current number of queued tasks waiting for execution.
func (p *workerPool) QueueSize() int {
	return len(p.taskQueue)
}

// ActiveWorkers returns the number of workers currently executing tasks.
func (p *workerPool) ActiveWorkers() int {
	return int(p.activeWorkers.Load())
}

// TotalSubmitted returns the total number of tasks accepted by the pool.
func (p *workerPool) TotalSubmitted() int64 {
	return p.totalSubmitted.Load()
}

// TotalCompleted returns the total number of tasks finished by the pool.
func (p *workerPool) TotalCompleted() int64 {
	return p.totalCompleted.Load()
}

// run is the main loop for a worker. Queued tasks are drained before exit.
func (p *workerPool) run(id int) {
	defer p.workerWg.Done()

	for twc := range p.taskQueue {
		p.executeTask(id, twc)
	}
}

// executeTask executes a single task with the provided context.
func (p *workerPool) executeTask(id int, twc taskWithContext) {
	p.activeWorkers.Add(1)
	start := time.Now()
	var err error

	// Handle panics during task execution
	defer func() {
		if r := recover(); r != nil {
			err = rxerrors.NewPanicError("task", r, debug.Stack())
			if p.config.PanicHandler != nil {
				p.config.PanicHandler(twc.task, r)
			}
		}

		p.activeWorkers.Add(-1)
		p.totalCompleted.Add(1)

		if p.config.OnTaskComplete != nil {
			p.config.OnTaskComplete(id, Result{
				Task:     twc.task,
				Error:    err,
				Duration: time.Since(start),
				WorkerID: id,
			})
		}
	}()

	ctx, cancel := rxcontext.WithTimeoutOrCancel(twc.ctx, p.config.TaskTimeout)
	defer cancel()

	err = twc.task.Execute(ctx)
}
