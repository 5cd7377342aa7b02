package mongoengine

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

// finish closes the span and records metrics for one store operation in a
// single call, tolerating absent collectors.
func (ds DocumentStore) finish(
	ctx context.Context,
	span recordstore.SpanContext,
	action string,
	status string,
	start time.Time,
) {

	if ds.tracingCollector != nil && span != nil {
		ds.tracingCollector.FinishSpan(span, status, map[string]string{labelStatus: status})
	}

	if ds.metricsCollector == nil {
		return
	}

	duration := time.Since(start)
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
