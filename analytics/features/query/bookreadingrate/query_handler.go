package bookreadingrate

import (
	"context"
	"time"

	"github.com/libretrack/borrowing-analytics-go/analytics/core"
	"github.com/libretrack/borrowing-analytics-go/analytics/shell"
)

// QueryHandler orchestrates the complete query processing workflow.
// It handles infrastructure concerns like record store interactions and
// observability instrumentation, and delegates the computation to the pure
// projection function.
type QueryHandler struct {
	store            shell.ReadsRecords
	lookup           shell.CatalogLookup
	metricsCollector shell.MetricsCollector
	tracingCollector shell.TracingCollector
	contextualLogger shell.ContextualLogger
	logger           shell.Logger
}

// NewQueryHandler creates a new QueryHandler with the provided record store and options.
func NewQueryHandler(store shell.ReadsRecords, opts ...Option) (QueryHandler, error) {
	h := QueryHandler{
		store:  store,
		lookup: shell.NewCatalogLookup(store),
	}

	for _, opt := range opts {
		if err := opt(&h); err != nil {
			return QueryHandler{}, err
		}
	}

	return h, nil
}

// Handle executes the complete query processing workflow: Lookup -> Find -> Project.
// The call fails with an InvalidState error when the book has closed loans
// but every one of them is degenerate, because returning an empty sample list
// for a book that was demonstrably read would be misleading.
func (h QueryHandler) Handle(ctx context.Context, query Query) (BookReadingRate, error) {
	queryStart := time.Now()
	ctx, span := shell.StartQuerySpan(ctx, h.tracingCollector, queryType)
	shell.LogQueryStart(ctx, h.logger, h.contextualLogger, queryType)

	if err := validate(query); err != nil {
		h.recordQueryError(ctx, err, time.Since(queryStart), span)
		return BookReadingRate{}, err
	}

	book, found, err := h.lookup.FindBook(ctx, query.BookID)
	if err != nil {
		classified := shell.ClassifyStoreError(queryType, err)
		h.recordQueryError(ctx, classified, time.Since(queryStart), span)
		return BookReadingRate{}, classified
	}

	if !found {
		notFound := shell.NotFoundError("book", query.BookID)
		h.recordQueryError(ctx, notFound, time.Since(queryStart), span)
		return BookReadingRate{}, notFound
	}

	documents, err := h.store.Find(ctx, core.CollectionBorrowRecords, BuildRecordFilter(query.BookID))
	if err != nil {
		classified := shell.ClassifyStoreError(queryType, err)
		h.recordQueryError(ctx, classified, time.Since(queryStart), span)
		return BookReadingRate{}, classified
	}

	closedLoans, err := shell.BorrowRecordsFrom(documents)
	if err != nil {
		classified := shell.ClassifyStoreError(queryType, err)
		h.recordQueryError(ctx, classified, time.Since(queryStart), span)
		return BookReadingRate{}, classified
	}

	result := Project(book, closedLoans)

	if result.ClosedLoans > 0 && len(result.Samples) == 0 {
		invalidState := shell.InvalidStateError(
			"every closed loan of book " + query.BookID + " is degenerate, no reading rate can be computed")
		h.recordQueryError(ctx, invalidState, time.Since(queryStart), span)
		return BookReadingRate{}, invalidState
	}

	h.recordQuerySuccess(ctx, time.Since(queryStart), span)

	return result, nil
}

func validate(query Query) error {
	if query.BookID == "" {
		return shell.InvalidArgumentError("bookId must not be empty")
	}

	return nil
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
