package workerpool

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	rxerrors "github.com/vnykmshr/rxflow/pkg/common/errors"
	"github.com/vnykmshr/rxflow/pkg/common/validation"
)

// Task represents a unit of work that can be executed by a worker.
type Task interface {
	// Execute runs the task with the given context.
	// It should respect context cancellation and return any error encountered.
	Execute(ctx context.Context) error
}

// TaskFunc is a function type that implements the Task interface.
type TaskFunc func(ctx context.Context) error

// Execute implements the Task interface for TaskFunc.
func (f TaskFunc) Execute(ctx context.Context) error {
	return f(ctx)
}

// Result represents the result of a task execution.
type Result struct {
	// Task is the original task that was executed
	Task Task

	// Error is any error that occurred during task execution
	Error error

	// Duration is how long the task took to execute
	Duration time.Duration

	// WorkerID identifies which worker executed the task
	WorkerID int
}

// Pool represents a worker pool that can execute tasks concurrently.
type Pool interface {
	// Submit adds a task to the pool for execution.
	// Returns an error if the pool is shut down.
	Submit(task Task) error

	// SubmitWithContext submits a task with a context for cancellation.
	// The context bounds the queuing operation and is handed to the task.
	SubmitWithContext(ctx context.Context, task Task) error

	// Shutdown initiates a graceful shutdown of the pool.
	// No new tasks will be accepted, but queued tasks will be completed.
	// Returns a channel that closes when shutdown is complete.
	Shutdown() <-chan struct{}

	// Size returns the number of workers in the pool.
	Size() int

	// QueueSize returns the current number of queued tasks waiting for execution.
	QueueSize() int

	// ActiveWorkers returns the number of workers currently executing tasks.
	ActiveWorkers() int

	// TotalSubmitted returns the total number of tasks accepted by the pool.
	TotalSubmitted() int64

	// TotalCompleted returns the total number of tasks finished by the pool.
	TotalCompleted() int64
}

// Config holds configuration options for creating a worker pool.
type Config struct {
	// WorkerCount is the number of workers in the pool.
	// Must be greater than 0.
	WorkerCount int

	// QueueSize is the maximum number of tasks that can wait for a worker.
	// Zero means every Submit hands the task directly to an idle worker.
	QueueSize int

	// TaskTimeout bounds individual task execution. Zero means no timeout.
	TaskTimeout time.Duration

	// PanicHandler is called when a task panics. The panic is always
	// converted into the task's Result error as well.
	PanicHandler func(task Task, recovered interface{})

	// OnTaskComplete is called after a task completes (success or failure).
	OnTaskComplete func(workerID int, result Result)
}

type taskWithContext struct {
	task Task
	ctx  context.Context
}

// workerPool implements the Pool interface.
type workerPool struct {
	config Config

	taskQueue  chan taskWithContext
	shutdownCh chan struct{}
	done       chan struct{}

	mu           sync.RWMutex
	isShutdown   bool
	shutdownOnce sync.Once
	submitWg     sync.WaitGroup
	workerWg     sync.WaitGroup

	activeWorkers  atomic.Int32
	totalSubmitted atomic.Int64
	totalCompleted atomic.Int64
}

// New creates a new worker pool with the specified number of workers and queue size.
// It panics on invalid arguments; use NewSafe to receive an error instead.
func New(workerCount, queueSize int) Pool {
	return NewWithConfig(Config{
		WorkerCount: workerCount,
		QueueSize:   queueSize,
	})
}

// NewWithConfig creates a new worker pool with the specified configuration.
// It panics on invalid configuration.
func NewWithConfig(config Config) Pool {
	pool, err := NewSafe(config)
	if err != nil {
		panic(err)
	}
	return pool
}

// NewSafe creates a new worker pool, returning a ValidationError for invalid configuration.
func NewSafe(config Config) (Pool, error) {
	if err := validation.ValidatePositive("workerpool", "workers", config.WorkerCount); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegative("workerpool", "queue_size", config.QueueSize); err != nil {
		return nil, err
	}
	if config.TaskTimeout < 0 {
		return nil, rxerrors.NewValidationError("workerpool", "task_timeout", config.TaskTimeout, "cannot be negative")
	}

	pool := &workerPool{
		config:     config,
		taskQueue:  make(chan taskWithContext, config.QueueSize),
		shutdownCh: make(chan struct{}),
		done:       make(chan struct{}),
	}

	for i := 0; i < config.WorkerCount; i++ {
		pool.workerWg.Add(1)
		go pool.run(i)
	}

	return pool, nil
}
