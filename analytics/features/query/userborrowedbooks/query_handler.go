package userborrowedbooks

import (
	"context"
	"time"

	"github.com/libretrack/borrowing-analytics-go/analytics/core"
	"github.com/libretrack/borrowing-analytics-go/analytics/shell"
)

// QueryHandler orchestrates the complete query processing workflow.
// It validates the input before touching the store, handles infrastructure
// concerns, and delegates the computation to the pure projection function.
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

// Handle executes the complete query processing workflow: Validate -> Find -> Resolve -> Project.
// It fails with NotFound when no borrow record matches the window, per the
// exposed contract: an empty timeline is reported as absence, not as an
// empty success.
func (h QueryHandler) Handle(ctx context.Context, query Query) (UserBorrowedBooks, error) {
	queryStart := time.Now()
	ctx, span := shell.StartQuerySpan(ctx, h.tracingCollector, queryType)
	shell.LogQueryStart(ctx, h.logger, h.contextualLogger, queryType)

	if err := validate(query); err != nil {
		h.recordQueryError(ctx, err, time.Since(queryStart), span)
		return UserBorrowedBooks{}, err
	}

	documents, err := h.store.Find(ctx, core.CollectionBorrowRecords, BuildRecordFilter(query))
	if err != nil {
		classified := shell.ClassifyStoreError(queryType, err)
		h.recordQueryError(ctx, classified, time.Since(queryStart), span)
		return UserBorrowedBooks{}, classified
	}

	records, err := shell.BorrowRecordsFrom(documents)
	if err != nil {
		classified := shell.ClassifyStoreError(queryType, err)
		h.recordQueryError(ctx, classified, time.Since(queryStart), span)
		return UserBorrowedBooks{}, classified
	}

	if len(records) == 0 {
		notFound := shell.NotFoundError("borrow records in window for user", query.UserID)
		h.recordQueryError(ctx, notFound, time.Since(queryStart), span)
		return UserBorrowedBooks{}, notFound
	}

	books, err := h.lookup.FindBooks(ctx, core.DistinctBookIDs(records, ""))
	if err != nil {
		classified := shell.ClassifyStoreError(queryType, err)
		h.recordQueryError(ctx, classified, time.Since(queryStart), span)
		return UserBorrowedBooks{}, classified
	}

	result := Project(query, records, books)

	h.recordQuerySuccess(ctx, time.Since(queryStart), span)

	return result, nil
}

func validate(query Query) error {
	if query.UserID == "" {
		return shell.InvalidArgumentError("userId must not be empty")
	}

	if query.StartTime.IsZero() || query.EndTime.IsZero() {
		return shell.InvalidArgumentError("startTime and endTime must both be set")
	}

	if query.StartTime.After(query.EndTime) {
		return shell.InvalidArgumentError("startTime must not be after endTime")
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
