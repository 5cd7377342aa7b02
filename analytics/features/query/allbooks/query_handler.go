package allbooks

import (
	"context"
	"time"

	"github.com/libretrack/borrowing-analytics-go/analytics/core"
	"github.com/libretrack/borrowing-analytics-go/analytics/shell"
	"github.com/libretrack/borrowing-analytics-go/recordstore"
)

// QueryHandler orchestrates the complete query processing workflow for the
// catalog listing.
type QueryHandler struct {
	store            shell.ReadsRecords
	metricsCollector shell.MetricsCollector
	tracingCollector shell.TracingCollector
	contextualLogger shell.ContextualLogger
	logger           shell.Logger
}

// NewQueryHandler creates a new QueryHandler with the provided record store and options.
func NewQueryHandler(store shell.ReadsRecords, opts ...Option) (QueryHandler, error) {
	h := QueryHandler{
		store: store,
	}

	for _, opt := range opts {
		if err := opt(&h); err != nil {
			return QueryHandler{}, err
		}
	}

	return h, nil
}

// Handle executes the complete query processing workflow: Find -> Map.
func (h QueryHandler) Handle(ctx context.Context, _ Query) (AllBooks, error) {
	queryStart := time.Now()
	ctx, span := shell.StartQuerySpan(ctx, h.tracingCollector, queryType)
	shell.LogQueryStart(ctx, h.logger, h.contextualLogger, queryType)

	documents, err := h.store.Find(
		ctx, core.CollectionBooks, recordstore.BuildRecordFilter().MatchingAnyRecord())
	if err != nil {
		classified := shell.ClassifyStoreError(queryType, err)
		h.recordQueryError(ctx, classified, time.Since(queryStart), span)
		return AllBooks{}, classified
	}

	books, err := shell.BooksFrom(documents)
	if err != nil {
		classified := shell.ClassifyStoreError(queryType, err)
		h.recordQueryError(ctx, classified, time.Since(queryStart), span)
		return AllBooks{}, classified
	}

	result := AllBooks{
		Books: books,
		Count: len(books),
	}

	h.recordQuerySuccess(ctx, time.Since(queryStart), span)

	return result, nil
}

/*** Query Handler Options and helper methods for observability ***/

// Option defines a functional option for configuring QueryHandler.
type Option func(*QueryHandler) error

// WithMetrics sets the metrics collector for the QueryHandler.
func WithMetrics(collector shell.MetricsCollector) Option {
	return func(h *QueryHandler) error {
		h.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the QueryHandler.
func WithTracing(collector shell.TracingCollector) Option {
	return func(h *QueryHandler) error {
		h.tracingCollector = collector
		return nil
	}
}

// WithContextualLogging sets the contextual logger for the QueryHandler.
func WithContextualLogging(logger shell.ContextualLogger) Option {
	return func(h *QueryHandler) error {
		h.contextualLogger = logger
		return nil
	}
}

// WithLogging sets the basic logger for the QueryHandler.
func WithLogging(logger shell.Logger) Option {
	return func(h *QueryHandler) error {
		h.logger = logger
		return nil
	}
}

func (h QueryHandler) recordQuerySuccess(ctx context.Context, duration time.Duration, span shell.SpanContext) {
	shell.RecordQueryMetrics(ctx, h.metricsCollector, queryType, shell.StatusSuccess, duration)
	shell.FinishQuerySpan(h.tracingCollector, span, shell.StatusSuccess, duration, nil)
	shell.LogQuerySuccess(ctx, h.logger, h.contextualLogger, queryType, shell.StatusSuccess, duration)
}

func (h QueryHandler) recordQueryError(ctx context.Context, err error, duration time.Duration, span shell.SpanContext) {
	status := shell.StatusError

	switch {
	case shell.IsCancellationError(err):
		status = shell.StatusCanceled
	case shell.IsTimeoutError(err):
		status = shell.StatusTimeout
	}

	shell.RecordQueryMetrics(ctx, h.metricsCollector, queryType, status, duration)
	shell.FinishQuerySpan(h.tracingCollector, span, status, duration, err)
	shell.LogQueryError(ctx, h.logger, h.contextualLogger, queryType, err)
}
