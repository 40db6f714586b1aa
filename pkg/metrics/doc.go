// Package metrics provides Prometheus instrumentation for rxflow components.
//
// # Overview
//
// The metrics package instruments:
//   - Stream lifecycles (subscriptions, elements delivered, completions,
//     failures, disposals, recovery invocations, undeliverable errors)
//   - Execution contexts (worker pool size, active workers, queued tasks,
//     task durations)
//
// # Quick Start
//
// Pass a registry when subscribing:
//
//	reg := metrics.NewRegistry(prometheus.NewRegistry())
//	observable.Range(0, 100).
//		Subscribe(ctx, onNext, onError,
//			lifecycle.WithName("range"),
//			lifecycle.WithMetrics(reg))
//
// Worker pools take a metrics.Config:
//
//	pool := workerpool.NewWithConfigAndMetrics(
//		workerpool.Config{WorkerCount: 4, QueueSize: 64},
//		"rx_pool",
//		metrics.Config{Enabled: true, Registry: promRegistry},
//	)
//
// Then expose metrics via HTTP:
//
//	http.Handle("/metrics", promhttp.Handler())
//
// # Available Metrics
//
//   - rxflow_stream_subscriptions_total{stream_name}
//   - rxflow_stream_active_subscriptions{stream_name}
//   - rxflow_stream_items_emitted_total{stream_name}
//   - rxflow_stream_completions_total{stream_name}
//   - rxflow_stream_failures_total{stream_name}
//   - rxflow_stream_disposals_total{stream_name}
//   - rxflow_stream_recoveries_total{stream_name,strategy}
//   - rxflow_stream_undeliverable_errors_total{stream_name}
//   - rxflow_stream_subscription_duration_seconds{stream_name,outcome}
//   - rxflow_scheduler_tasks_executed_total{pool_name}
//   - rxflow_scheduler_tasks_failed_total{pool_name}
//   - rxflow_scheduler_task_duration_seconds{pool_name}
//   - rxflow_workerpool_size{pool_name}
//   - rxflow_workerpool_active_workers{pool_name}
//   - rxflow_workerpool_queued_tasks{pool_name}
//
// Each component registered against its own prometheus.Registry avoids
// duplicate registration panics; Resolve maps a default Config to the shared
// DefaultRegistry.
package metrics
