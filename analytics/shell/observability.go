package shell

import (
	"context"
	"strconv"
	"time"

	"github.com/libretrack/borrowing-analytics-go/recordstore"
)

const (
	// QueryHandlerDurationMetric tracks query handler execution duration.
	QueryHandlerDurationMetric = "queryhandler_handle_duration_seconds"

	// QueryHandlerCallsMetric tracks total query handler calls.
	QueryHandlerCallsMetric = "queryhandler_handle_calls_total"

	// QueryHandlerCanceledMetric tracks canceled query operations.
	QueryHandlerCanceledMetric = "queryhandler_canceled_operations_total"

	// QueryHandlerTimeoutMetric tracks timeout query operations.
	QueryHandlerTimeoutMetric = "queryhandler_timeout_operations_total"

	// StatusSuccess indicates successful query completion.
	StatusSuccess = "success"

	// StatusError indicates a query processing error.
	StatusError = "error"

	// StatusCanceled indicates the operation was canceled due to context cancellation.
	StatusCanceled = "canceled"

	// StatusTimeout indicates the operation timed out due to context deadline exceeded.
	StatusTimeout = "timeout"

	// LogMsgQueryStarted is logged when query processing begins.
	LogMsgQueryStarted = "query handler started"

	// LogMsgQueryCompleted is logged when query processing succeeds.
	LogMsgQueryCompleted = "query handler completed"

	// LogMsgQueryFailed is logged when query processing fails.
	LogMsgQueryFailed = "query handler failed"

	// LogAttrQueryType identifies the query type in logs.
	LogAttrQueryType = "query_type"

	// LogAttrStatus indicates the query processing status.
	LogAttrStatus = "status"

	// LogAttrDurationMS indicates the processing duration in milliseconds.
	LogAttrDurationMS = "duration_ms"

	// LogAttrError contains error details.
	LogAttrError = "error"

	// SpanNameQueryHandle is the tracing span name for query handling.
	SpanNameQueryHandle = "queryhandler.handle"
)

// Interface aliases for convenience when instrumenting query handlers.
// These match the record store observability ports for consistency.

// MetricsCollector interface for collecting query handler performance metrics.
type MetricsCollector = recordstore.MetricsCollector

// ContextualMetricsCollector extends MetricsCollector with context-aware methods.
type ContextualMetricsCollector = recordstore.ContextualMetricsCollector

// TracingCollector interface for distributed tracing in query handlers.
type TracingCollector = recordstore.TracingCollector

// SpanContext represents an active tracing span.
type SpanContext = recordstore.SpanContext

// ContextualLogger interface for context-aware logging in query handlers.
type ContextualLogger = recordstore.ContextualLogger

// Logger interface for basic logging in query handlers.
type Logger = recordstore.Logger

// BuildQueryLabels creates standard metric labels for query handler operations.
func BuildQueryLabels(queryType, status string) map[string]string {
	return map[string]string{
		LogAttrQueryType: queryType,
		LogAttrStatus:    status,
	}
}

// ToMilliseconds converts a time.Duration to float64 milliseconds with precision.
func ToMilliseconds(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}

// RecordQueryMetrics records duration and call-count metrics for a query
// operation, with separate counters for cancellations and timeouts. It
// handles both context-aware and basic metrics collectors automatically.
func RecordQueryMetrics(
	ctx context.Context,
	collector MetricsCollector,
	queryType string,
	status string,
	duration time.Duration,
) {
	if collector == nil {
		return
	}

	labels := BuildQueryLabels(queryType, status)

	if contextualCollector, ok := collector.(ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, QueryHandlerDurationMetric, duration, labels)
		contextualCollector.IncrementCounterContext(ctx, QueryHandlerCallsMetric, labels)
	} else {
		collector.RecordDuration(QueryHandlerDurationMetric, duration, labels)
		collector.IncrementCounter(QueryHandlerCallsMetric, labels)
	}

	if status == StatusCanceled {
		incrementCounter(ctx, collector, QueryHandlerCanceledMetric, labels)
	}

	if status == StatusTimeout {
		incrementCounter(ctx, collector, QueryHandlerTimeoutMetric, labels)
	}
}

func incrementCounter(ctx context.Context, collector MetricsCollector, metric string, labels map[string]string) {
	if contextualCollector, ok := collector.(ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metric, labels)
		return
	}

	collector.IncrementCounter(metric, labels)
}

// StartQuerySpan starts a distributed tracing span for query operations.
// Returns the updated context and span context, or the original context and
// nil if tracing is disabled.
func StartQuerySpan(
	ctx context.Context,
	tracingCollector TracingCollector,
	queryType string,
) (context.Context, SpanContext) {
	if tracingCollector == nil {
		return ctx, nil
	}

	return tracingCollector.StartSpan(ctx, SpanNameQueryHandle, map[string]string{
		LogAttrQueryType: queryType,
	})
}

// FinishQuerySpan completes a distributed tracing span with the operation outcome.
func FinishQuerySpan(
	tracingCollector TracingCollector,
	span SpanContext,
	status string,
	duration time.Duration,
	err error,
) {
	if tracingCollector == nil || span == nil {
		return
	}

	attrs := map[string]string{
		LogAttrStatus: status,
	}

	if err != nil {
		attrs[LogAttrError] = err.Error()
	}

	span.AddAttribute(LogAttrDurationMS, formatMilliseconds(duration))
	tracingCollector.FinishSpan(span, status, attrs)
}

// LogQueryStart logs the beginning of query processing, preferring the
// contextual logger when both are configured.
func LogQueryStart(ctx context.Context, logger Logger, contextualLogger ContextualLogger, queryType string) {
	if contextualLogger != nil {
		contextualLogger.DebugContext(ctx, LogMsgQueryStarted, LogAttrQueryType, queryType)
		return
	}

	if logger != nil {
		logger.Debug(LogMsgQueryStarted, LogAttrQueryType, queryType)
	}
}

// LogQuerySuccess logs successful query completion.
func LogQuerySuccess(
	ctx context.Context,
	logger Logger,
	contextualLogger ContextualLogger,
	queryType string,
	status string,
	duration time.Duration,
) {
	args := []any{
		LogAttrQueryType, queryType,
		LogAttrStatus, status,
		LogAttrDurationMS, ToMilliseconds(duration),
	}

	if contextualLogger != nil {
		contextualLogger.InfoContext(ctx, LogMsgQueryCompleted, args...)
		return
	}

	if logger != nil {
		logger.Info(LogMsgQueryCompleted, args...)
	}
}

// LogQueryError logs failed query processing.
func LogQueryError(ctx context.Context, logger Logger, contextualLogger ContextualLogger, queryType string, err error) {
	args := []any{
		LogAttrQueryType, queryType,
		LogAttrError, err.Error(),
	}

	if contextualLogger != nil {
		contextualLogger.ErrorContext(ctx, LogMsgQueryFailed, args...)
		return
	}

	if logger != nil {
		logger.Error(LogMsgQueryFailed, args...)
	}
}

func formatMilliseconds(d time.Duration) string {
	return strconv.FormatFloat(ToMilliseconds(d), 'f', 3, 64)
}
