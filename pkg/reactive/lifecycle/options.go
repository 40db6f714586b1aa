package lifecycle

import (
	"log/slog"

	"github.com/vnykmshr/rxflow/pkg/metrics"
)

// Option configures a subscription.
type Option func(*options)

type options struct {
	name      string
	logger    *slog.Logger
	registry  *metrics.Registry
	onDispose func()
}

// WithName labels the subscription in logs and metrics.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithLogger sets the logger used for undeliverable errors.
// Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics records lifecycle metrics into registry.
func WithMetrics(registry *metrics.Registry) Option {
	return func(o *options) {
		o.registry = registry
	}
}

// WithMetricsConfig records lifecycle metrics into the registry described by config.
func WithMetricsConfig(config metrics.Config) Option {
	return WithMetrics(metrics.Resolve(config))
}

// WithOnDispose registers fn to run when the subscription is disposed
// before reaching a terminal signal.
func WithOnDispose(fn func()) Option {
	return func(o *options) {
		o.onDispose = fn
	}
}
