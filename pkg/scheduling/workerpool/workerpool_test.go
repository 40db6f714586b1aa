package workerpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vnykmshr/rxflow/internal/testutil"
	rxerrors "github.com/vnykmshr/rxflow/pkg/common/errors"
	"github.com/vnykmshr/rxflow/pkg/metrics"
)

// TestTask is a simple task for testing.
type TestTask struct {
	Duration    time.Duration
	ShouldErr   bool
	ShouldPanic bool
	Executed    *int32 // Atomic counter
}

func (t *TestTask) Execute(ctx context.Context) error {
	atomic.AddInt32(t.Executed, 1)

	if t.ShouldPanic {
		panic("test panic")
	}

	if t.Duration > 0 {
		select {
		case <-time.After(t.Duration):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if t.ShouldErr {
		return errors.New("test error")
	}

	return nil
}

// collectResults returns a Config hook that records results and a function
// waiting for n of them.
func collectResults(t *testing.T) (func(int, Result), func(n int) []Result) {
	t.Helper()
	var mu sync.Mutex
	var results []Result
	ch := make(chan struct{}, 1024)

	hook := func(_ int, r Result) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
		ch <- struct{}{}
	}
	wait := func(n int) []Result {
		for i := 0; i < n; i++ {
			select {
			case <-ch:
			case <-time.After(testutil.TestTimeout):
				t.Fatalf("timed out waiting for result %d of %d", i+1, n)
			}
		}
		mu.Lock()
		defer mu.Unlock()
		return append([]Result(nil), results...)
	}
	return hook, wait
}

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		workerCount int
		queueSize   int
		expectPanic bool
	}{
		{"valid params", 2, 10, false},
		{"single worker", 1, 5, false},
		{"direct handoff", 3, 0, false},
		{"zero workers", 0, 10, true},
		{"negative workers", -1, 10, true},
		{"negative queue size", 2, -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				r := recover()
				if tt.expectPanic && r == nil {
					t.Error("expected panic")
				}
				if !tt.expectPanic && r != nil {
					t.Errorf("unexpected panic: %v", r)
				}
			}()

			pool := New(tt.workerCount, tt.queueSize)
			defer pool.Shutdown()
			testutil.AssertEqual(t, pool.Size(), tt.workerCount)
		})
	}
}

func TestNewSafe_ValidationError(t *testing.T) {
	_, err := NewSafe(Config{WorkerCount: 0})
	testutil.AssertError(t, err)
	if !rxerrors.IsValidationError(err) {
		t.Fatalf("expected ValidationError, got %T", err)
	}

	_, err = NewSafe(Config{WorkerCount: 1, TaskTimeout: -time.Second})
	testutil.AssertError(t, err)
}

func TestBasicTaskExecution(t *testing.T) {
	hook, wait := collectResults(t)
	pool := NewWithConfig(Config{WorkerCount: 2, QueueSize: 10, OnTaskComplete: hook})
	defer pool.Shutdown()

	var executed int32
	testutil.AssertNoError(t, pool.Submit(&TestTask{Executed: &executed}))

	results := wait(1)
	testutil.AssertNoError(t, results[0].Error)
	testutil.AssertEqual(t, atomic.LoadInt32(&executed), int32(1))
}

func TestTaskError(t *testing.T) {
	hook, wait := collectResults(t)
	pool := NewWithConfig(Config{WorkerCount: 1, QueueSize: 1, OnTaskComplete: hook})
	defer pool.Shutdown()

	var executed int32
	testutil.AssertNoError(t, pool.Submit(&TestTask{Executed: &executed, ShouldErr: true}))

	results := wait(1)
	testutil.AssertError(t, results[0].Error)
}

func TestTaskPanic(t *testing.T) {
	hook, wait := collectResults(t)
	var handled atomic.Bool
	pool := NewWithConfig(Config{
		WorkerCount:    1,
		QueueSize:      2,
		OnTaskComplete: hook,
		PanicHandler: func(_ Task, recovered interface{}) {
			handled.Store(recovered == "test panic")
		},
	})
	defer pool.Shutdown()

	var executed int32
	testutil.AssertNoError(t, pool.Submit(&TestTask{Executed: &executed, ShouldPanic: true}))
	testutil.AssertNoError(t, pool.Submit(&TestTask{Executed: &executed}))

	results := wait(2)
	if !rxerrors.IsPanic(results[0].Error) {
		t.Fatalf("expected PanicError, got %v", results[0].Error)
	}
	testutil.AssertNoError(t, results[1].Error)
	testutil.AssertEqual(t, handled.Load(), true)
}

func TestTaskTimeout(t *testing.T) {
	hook, wait := collectResults(t)
	pool := NewWithConfig(Config{
		WorkerCount:    1,
		QueueSize:      1,
		TaskTimeout:    20 * time.Millisecond,
		OnTaskComplete: hook,
	})
	defer pool.Shutdown()

	var executed int32
	testutil.AssertNoError(t, pool.Submit(&TestTask{Executed: &executed, Duration: time.Second}))

	results := wait(1)
	if !errors.Is(results[0].Error, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", results[0].Error)
	}
}

func TestSubmitWithContext_Canceled(t *testing.T) {
	pool := New(1, 1)
	defer pool.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var executed int32
	err := pool.SubmitWithContext(ctx, &TestTask{Executed: &executed})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSubmitNilTask(t *testing.T) {
	pool := New(1, 1)
	defer pool.Shutdown()

	testutil.AssertError(t, pool.Submit(nil))
}

func TestSubmitToShutdownPool(t *testing.T) {
	pool := New(1, 1)
	<-pool.Shutdown()

	var executed int32
	err := pool.Submit(&TestTask{Executed: &executed})
	if !errors.Is(err, rxerrors.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestShutdownDrainsQueue(t *testing.T) {
	pool := New(1, 10)

	var executed int32
	for i := 0; i < 5; i++ {
		testutil.AssertNoError(t, pool.Submit(&TestTask{Executed: &executed, Duration: 5 * time.Millisecond}))
	}

	select {
	case <-pool.Shutdown():
	case <-time.After(testutil.TestTimeout):
		t.Fatal("shutdown did not complete")
	}

	testutil.AssertEqual(t, atomic.LoadInt32(&executed), int32(5))
	testutil.AssertEqual(t, pool.TotalSubmitted(), int64(5))
	testutil.AssertEqual(t, pool.TotalCompleted(), int64(5))
}

func TestConcurrentSubmit(t *testing.T) {
	pool := New(4, 16)

	var executed int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				_ = pool.Submit(&TestTask{Executed: &executed})
			}
		}()
	}
	wg.Wait()
	<-pool.Shutdown()

	testutil.AssertEqual(t, atomic.LoadInt32(&executed), int32(200))
}

func TestActiveWorkers(t *testing.T) {
	pool := New(2, 2)
	defer pool.Shutdown()

	release := make(chan struct{})
	started := make(chan struct{}, 2)
	for i := 0; i < 2; i++ {
		testutil.AssertNoError(t, pool.Submit(TaskFunc(func(ctx context.Context) error {
			started <- struct{}{}
			<-release
			return nil
		})))
	}
	<-started
	<-started

	testutil.AssertEqual(t, pool.ActiveWorkers(), 2)
	close(release)
}

func TestMetricsPool(t *testing.T) {
	promRegistry := prometheus.NewRegistry()
	hook, wait := collectResults(t)

	pool := NewWithConfigAndMetrics(
		Config{WorkerCount: 2, QueueSize: 4, OnTaskComplete: hook},
		"test_pool",
		metrics.Config{Enabled: true, Registry: promRegistry},
	)
	defer pool.Shutdown()

	mp, ok := pool.(*MetricsPool)
	if !ok {
		t.Fatalf("expected *MetricsPool, got %T", pool)
	}
	testutil.AssertEqual(t, mp.MetricsEnabled(), true)

	var executed int32
	testutil.AssertNoError(t, pool.Submit(&TestTask{Executed: &executed}))
	testutil.AssertNoError(t, pool.Submit(&TestTask{Executed: &executed, ShouldErr: true}))
	wait(2)

	count, err := promtest.GatherAndCount(promRegistry, "rxflow_scheduler_tasks_executed_total")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, count, 1)

	mp.DisableMetrics()
	testutil.AssertEqual(t, mp.MetricsEnabled(), false)
}

func TestMetricsPool_Disabled(t *testing.T) {
	pool := NewWithConfigAndMetrics(Config{WorkerCount: 1}, "off", metrics.Config{Enabled: false})
	defer pool.Shutdown()

	if _, ok := pool.(*MetricsPool); ok {
		t.Fatal("disabled metrics should return the base pool")
	}
}

func TestNewWithRegistry_SharedRegistry(t *testing.T) {
	promRegistry := prometheus.NewRegistry()
	registry := metrics.NewRegistry(promRegistry)

	pool := NewWithRegistry(Config{WorkerCount: 3}, "shared", registry)
	defer func() { <-pool.Shutdown() }()

	testutil.AssertEqual(t, promtest.ToFloat64(registry.WorkerPoolSize.WithLabelValues("shared")), 3.0)

	plain := NewWithRegistry(Config{WorkerCount: 1}, "plain", nil)
	defer func() { <-plain.Shutdown() }()
	if _, ok := plain.(*MetricsPool); ok {
		t.Fatal("nil registry should return the base pool")
	}
}
