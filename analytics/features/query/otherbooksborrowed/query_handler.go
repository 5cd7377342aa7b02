package otherbooksborrowed

import (
	"context"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/libretrack/borrowing-analytics-go/analytics/core"
	"github.com/libretrack/borrowing-analytics-go/analytics/shell"
)

// QueryHandler orchestrates the complete query processing workflow.
//
// The three store reads run sequentially; the per-borrower history assembly
// then fans out over a bounded worker pool. Workers only read the immutable
// pre-fetched collections and append to one mutex-guarded sink, so there is
// no shared mutable state beyond that sink. The first worker failure cancels
// the remaining workers and fails the whole call; the caller never sees a
// partial result.
type QueryHandler struct {
	store            shell.ReadsRecords
	lookup           shell.CatalogLookup
	maxConcurrency   int
	metricsCollector shell.MetricsCollector
	tracingCollector shell.TracingCollector
	contextualLogger shell.ContextualLogger
	logger           shell.Logger
}

// NewQueryHandler creates a new QueryHandler with the provided record store and options.
// The worker pool defaults to the number of usable CPUs.
func NewQueryHandler(store shell.ReadsRecords, opts ...Option) (QueryHandler, error) {
	h := QueryHandler{
		store:          store,
		lookup:         shell.NewCatalogLookup(store),
		maxConcurrency: runtime.GOMAXPROCS(0),
	}

	for _, opt := range opts {
		if err := opt(&h); err != nil {
			return QueryHandler{}, err
		}
	}

	return h, nil
}

// Handle executes the complete query processing workflow:
// Discover borrowers -> Batch-fetch -> Assemble in parallel -> Merge.
// Nobody having borrowed the target book is a legitimate empty answer, not
// an error.
func (h QueryHandler) Handle(ctx context.Context, query Query) (OtherBooksBorrowed, error) {
	queryStart := time.Now()
	ctx, span := shell.StartQuerySpan(ctx, h.tracingCollector, queryType)
	shell.LogQueryStart(ctx, h.logger, h.contextualLogger, queryType)

	if err := validate(query); err != nil {
		h.recordQueryError(ctx, err, time.Since(queryStart), span)
		return OtherBooksBorrowed{}, err
	}

	borrowerIDs, err := h.store.FindDistinct(
		ctx, core.CollectionBorrowRecords, core.FieldUserID, BuildBorrowerFilter(query.BookID))
	if err != nil {
		classified := shell.ClassifyStoreError(queryType, err)
		h.recordQueryError(ctx, classified, time.Since(queryStart), span)
		return OtherBooksBorrowed{}, classified
	}

	if len(borrowerIDs) == 0 {
		result := OtherBooksBorrowed{BookID: query.BookID, Borrowers: []BorrowerHistories{}}
		h.recordQuerySuccess(ctx, time.Since(queryStart), span)
		return result, nil
	}

	users, err := h.lookup.FindUsers(ctx, borrowerIDs)
	if err != nil {
		classified := shell.ClassifyStoreError(queryType, err)
		h.recordQueryError(ctx, classified, time.Since(queryStart), span)
		return OtherBooksBorrowed{}, classified
	}

	documents, err := h.store.Find(
		ctx, core.CollectionBorrowRecords, BuildOtherRecordsFilter(borrowerIDs, query.BookID))
	if err != nil {
		classified := shell.ClassifyStoreError(queryType, err)
		h.recordQueryError(ctx, classified, time.Since(queryStart), span)
		return OtherBooksBorrowed{}, classified
	}

	otherRecords, err := shell.BorrowRecordsFrom(documents)
	if err != nil {
		classified := shell.ClassifyStoreError(queryType, err)
		h.recordQueryError(ctx, classified, time.Since(queryStart), span)
		return OtherBooksBorrowed{}, classified
	}

	books, err := h.lookup.FindBooks(ctx, core.DistinctBookIDs(otherRecords, query.BookID))
	if err != nil {
		classified := shell.ClassifyStoreError(queryType, err)
		h.recordQueryError(ctx, classified, time.Since(queryStart), span)
		return OtherBooksBorrowed{}, classified
	}

	borrowers, err := h.assembleInParallel(ctx, borrowerIDs, users, otherRecords, books)
	if err != nil {
		classified := shell.ClassifyStoreError(queryType, err)
		h.recordQueryError(ctx, classified, time.Since(queryStart), span)
		return OtherBooksBorrowed{}, classified
	}

	result := OtherBooksBorrowed{
		BookID:    query.BookID,
		Borrowers: borrowers,
		Count:     len(borrowers),
	}

	h.recordQuerySuccess(ctx, time.Since(queryStart), span)

	return result, nil
}

// assembleInParallel distributes the per-borrower history assembly across a
// bounded worker pool. Workers stop being dispatched once the group context
// is cancelled, and in-flight workers observe the same signal.
func (h QueryHandler) assembleInParallel(
	ctx context.Context,
	borrowerIDs []string,
	users map[string]core.User,
	otherRecords []core.BorrowRecord,
	books map[string]core.Book,
) ([]BorrowerHistories, error) {

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(h.maxConcurrency)

	var mu sync.Mutex
	borrowers := make([]BorrowerHistories, 0, len(borrowerIDs))

	for _, borrowerID := range borrowerIDs {
		user, resolved := users[borrowerID]
		if !resolved {
			continue
		}

		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			histories := BuildBorrowHistories(otherRecords, books, user.ID)
			if len(histories) == 0 {
				return nil
			}

			mu.Lock()
			borrowers = append(borrowers, BorrowerHistories{User: user, Histories: histories})
			mu.Unlock()

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return borrowers, nil
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

// WithMaxConcurrency bounds the worker pool of the parallel assembly stage.
// A value below one is rejected; one yields strictly sequential assembly.
func WithMaxConcurrency(limit int) Option {
	return func(h *QueryHandler) error {
		if limit < 1 {
			return shell.InvalidArgumentError("max concurrency must be at least 1")
		}

		h.maxConcurrency = limit
		return nil
	}
}

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
