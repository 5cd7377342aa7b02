package postgresengine

import (
	"context"
	"time"

	"github.com/libretrack/borrowing-analytics-go/recordstore"
)

const (
	statusSuccess = "success"
	statusError   = "error"

	metricQueryDuration = "recordstore_query_duration_seconds"
	metricQueryTotal    = "recordstore_queries_total"

	spanNamePrefix = "recordstore."

	labelAction     = "action"
	labelStatus     = "status"
	labelCollection = "collection"
)

// startSpan opens a tracing span for a store operation if tracing is configured.
// The returned SpanContext is nil when no tracing collector is set.
func (ds DocumentStore) startSpan(ctx context.Context, action string, collection string) (
	context.Context,
	recordstore.SpanContext,
) {

	if ds.tracingCollector == nil {
		return ctx, nil
	}

	return ds.tracingCollector.StartSpan(ctx, spanNamePrefix+action, map[string]string{
		labelAction:     action,
		labelCollection: collection,
	})
}

// finishSpan closes a span opened by startSpan, tolerating nil spans.
func (ds DocumentStore) finishSpan(span recordstore.SpanContext, status string) {
	if ds.tracingCollector == nil || span == nil {
		return
	}

	ds.tracingCollector.FinishSpan(span, status, map[string]string{labelStatus: status})
}

// recordOperation records duration and count metrics for a store operation,
// preferring the context-aware collector methods when the configured collector
// implements them.
func (ds DocumentStore) recordOperation(ctx context.Context, action string, status string, duration time.Duration) {
	if ds.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		labelAction: action,
		labelStatus: status,
	}

	if contextual, ok := ds.metricsCollector.(recordstore.ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(ctx, metricQueryDuration, duration, labels)
		contextual.IncrementCounterContext(ctx, metricQueryTotal, labels)

		return
	}

	ds.metricsCollector.RecordDuration(metricQueryDuration, duration, labels)
	ds.metricsCollector.IncrementCounter(metricQueryTotal, labels)
}
