package mongoengine

import (
	"github.com/libretrack/borrowing-analytics-go/recordstore"
)

// Logger re-exports the store-agnostic logging port for configuration.
type Logger = recordstore.Logger

// ContextualLogger re-exports the context-aware logging port for configuration.
type ContextualLogger = recordstore.ContextualLogger

// MetricsCollector re-exports the metrics port for configuration.
type MetricsCollector = recordstore.MetricsCollector

// TracingCollector re-exports the tracing port for configuration.
type TracingCollector = recordstore.TracingCollector

// Option defines a functional option for configuring the DocumentStore.
type Option func(*DocumentStore) error

// WithLogger sets a logger for query logging and operational logging.
func WithLogger(logger Logger) Option {
	return func(ds *DocumentStore) error {
		ds.logger = logger

		return nil
	}
}

// WithContextualLogger sets a context-aware logger which allows implementations
// to enrich log entries with values carried in the request context.
func WithContextualLogger(logger ContextualLogger) Option {
	return func(ds *DocumentStore) error {
		ds.contextualLogger = logger

		return nil
	}
}

// WithMetrics sets a metrics collector for operational metrics.
func WithMetrics(collector MetricsCollector) Option {
	return func(ds *DocumentStore) error {
		ds.metricsCollector = collector

		return nil
	}
}

// WithTracing sets a tracing collector for distributed tracing of store operations.
func WithTracing(collector TracingCollector) Option {
	return func(ds *DocumentStore) error {
		ds.tracingCollector = collector

		return nil
	}
}
