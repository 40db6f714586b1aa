// Package metrics provides Prometheus instrumentation for rxflow components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for rxflow components.
type Registry struct {
	// Stream lifecycle metrics
	Subscriptions        *prometheus.CounterVec
	ActiveSubscriptions  *prometheus.GaugeVec
	ItemsEmitted         *prometheus.CounterVec
	Completions          *prometheus.CounterVec
	Failures             *prometheus.CounterVec
	Disposals            *prometheus.CounterVec
	Recoveries           *prometheus.CounterVec
	UndeliverableErrors  *prometheus.CounterVec
	SubscriptionDuration *prometheus.HistogramVec

	// Execution context metrics
	TasksExecuted         *prometheus.CounterVec
	TasksFailed           *prometheus.CounterVec
	TaskExecutionDuration *prometheus.HistogramVec
	WorkerPoolSize        *prometheus.GaugeVec
	WorkerPoolActive      *prometheus.GaugeVec
	WorkerPoolQueued      *prometheus.GaugeVec
}

// DefaultRegistry is the default metrics registry used by rxflow components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	return NewRegistryWithConfig(Config{Enabled: true, Registry: reg})
}

// NewRegistryWithConfig creates a metrics registry honoring the namespace and
// constant labels of config.
func NewRegistryWithConfig(config Config) *Registry {
	reg := config.Registry
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	ns := config.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	labels := config.Labels
	factory := promauto.With(reg)

	counter := func(subsystem, name, help string, labelNames ...string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		}, labelNames)
	}
	gauge := func(subsystem, name, help string, labelNames ...string) *prometheus.GaugeVec {
		return factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		}, labelNames)
	}
	histogram := func(subsystem, name, help string, labelNames ...string) *prometheus.HistogramVec {
		return factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   ns,
			Subsystem:   subsystem,
			Name:        name,
			Help:        help,
			Buckets:     prometheus.DefBuckets,
			ConstLabels: labels,
		}, labelNames)
	}

	return &Registry{
		Subscriptions:        counter("stream", "subscriptions_total", "Total number of stream subscriptions", "stream_name"),
		ActiveSubscriptions:  gauge("stream", "active_subscriptions", "Number of subscriptions that have not reached a terminal state", "stream_name"),
		ItemsEmitted:         counter("stream", "items_emitted_total", "Total number of elements delivered to observers", "stream_name"),
		Completions:          counter("stream", "completions_total", "Total number of streams that completed normally", "stream_name"),
		Failures:             counter("stream", "failures_total", "Total number of streams that terminated with a failure signal", "stream_name"),
		Disposals:            counter("stream", "disposals_total", "Total number of subscriptions disposed before a terminal signal", "stream_name"),
		Recoveries:           counter("stream", "recoveries_total", "Total number of recovery stage invocations", "stream_name", "strategy"),
		UndeliverableErrors:  counter("stream", "undeliverable_errors_total", "Total number of failures that could not be delivered to an observer", "stream_name"),
		SubscriptionDuration: histogram("stream", "subscription_duration_seconds", "Time from subscription to terminal signal", "stream_name", "outcome"),

		TasksExecuted:         counter("scheduler", "tasks_executed_total", "Total number of tasks executed", "pool_name"),
		TasksFailed:           counter("scheduler", "tasks_failed_total", "Total number of tasks that failed", "pool_name"),
		TaskExecutionDuration: histogram("scheduler", "task_duration_seconds", "Time spent executing tasks", "pool_name"),
		WorkerPoolSize:        gauge("workerpool", "size", "Current worker pool size", "pool_name"),
		WorkerPoolActive:      gauge("workerpool", "active_workers", "Number of active workers", "pool_name"),
		WorkerPoolQueued:      gauge("workerpool", "queued_tasks", "Number of queued tasks", "pool_name"),
	}
}
