package benchmark

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vnykmshr/rxflow/pkg/metrics"
	"github.com/vnykmshr/rxflow/pkg/reactive/observable"
	"github.com/vnykmshr/rxflow/pkg/scheduling/scheduler"
	"github.com/vnykmshr/rxflow/pkg/scheduling/workerpool"
)

// BenchmarkWorkerPoolSubmit measures task submission and execution.
func BenchmarkWorkerPoolSubmit(b *testing.B) {
	for _, workers := range []int{2, 4, 8} {
		b.Run(workerLabel(workers), func(b *testing.B) {
			pool, err := workerpool.NewSafe(workerpool.Config{WorkerCount: workers, QueueSize: 1000})
			if err != nil {
				b.Fatalf("failed to create pool: %v", err)
			}
			defer func() { <-pool.Shutdown() }()

			var wg sync.WaitGroup
			task := workerpool.TaskFunc(func(context.Context) error {
				wg.Done()
				return nil
			})

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				wg.Add(1)
				if err := pool.Submit(task); err != nil {
					b.Fatal(err)
				}
			}
			wg.Wait()
		})
	}
}

// BenchmarkSubscribeOn compares execution contexts for the same chain.
func BenchmarkSubscribeOn(b *testing.B) {
	pool := workerpool.New(4, 100)
	defer func() { <-pool.Shutdown() }()
	poolSched, err := scheduler.FromPool(pool, "bench")
	if err != nil {
		b.Fatal(err)
	}

	contexts := []struct {
		name  string
		sched scheduler.Scheduler
	}{
		{"immediate", scheduler.Immediate()},
		{"goroutine", scheduler.NewGoroutine(nil)},
		{"pool", poolSched},
	}

	for _, c := range contexts {
		b.Run(c.name, func(b *testing.B) {
			ctx := context.Background()
			src := observable.Range(0, 100).SubscribeOn(c.sched)
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := src.Count(ctx); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkInstrumentedPool measures the overhead of the metrics wrapper.
func BenchmarkInstrumentedPool(b *testing.B) {
	registry := metrics.NewRegistry(prometheus.NewRegistry())
	pool := workerpool.NewWithRegistry(workerpool.Config{WorkerCount: 4, QueueSize: 1000}, "bench", registry)
	defer func() { <-pool.Shutdown() }()

	var wg sync.WaitGroup
	task := workerpool.TaskFunc(func(context.Context) error {
		wg.Done()
		return nil
	})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		wg.Add(1)
		if err := pool.Submit(task); err != nil {
			b.Fatal(err)
		}
	}
	wg.Wait()
}

// workerLabel returns a readable label for worker counts.
func workerLabel(workers int) string {
	return strconv.Itoa(workers) + "workers"
}
