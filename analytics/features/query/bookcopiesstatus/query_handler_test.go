package bookcopiesstatus_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libretrack/borrowing-analytics-go/analytics/core"
	"github.com/libretrack/borrowing-analytics-go/analytics/features/query/bookcopiesstatus"
	"github.com/libretrack/borrowing-analytics-go/analytics/shell"
	"github.com/libretrack/borrowing-analytics-go/testutil/helper"
	"github.com/libretrack/borrowing-analytics-go/testutil/memstore"
	"github.com/libretrack/borrowing-analytics-go/testutil/testdoubles"
)

func Test_QueryHandler_Handle_ComputesAvailabilityFromEveryLoanEverIssued(t *testing.T) {
	// arrange
	store := memstore.New()
	bookID := helper.GivenUniqueID(t)
	userID := helper.GivenUniqueID(t)
	fakeClock := time.Unix(0, 0).UTC()

	book := helper.FixtureBook(bookID)
	book.TotalCopies = 5
	helper.GivenBooksInStore(t, store, book)
	helper.GivenLoansInStore(t, store,
		helper.FixtureOpenLoan(t, bookID, userID, fakeClock))

	queryHandler, err := bookcopiesstatus.NewQueryHandler(store)
	require.NoError(t, err, "Should create BookCopiesStatus query handler")

	// act
	result, err := queryHandler.Handle(context.Background(), bookcopiesstatus.BuildQuery(bookID))

	// assert
	require.NoError(t, err)
	assert.Equal(t, bookID, result.BookID)
	assert.Equal(t, 5, result.TotalCopies)
	assert.Equal(t, 1, result.BorrowedCopies)
	assert.Equal(t, 4, result.AvailableCopies)
}

func Test_QueryHandler_Handle_CountsClosedLoansToo_AndAvailabilityGoesNegative(t *testing.T) {
	// arrange
	store := memstore.New()
	bookID := helper.GivenUniqueID(t)
	userID := helper.GivenUniqueID(t)
	fakeClock := time.Unix(0, 0).UTC()

	book := helper.FixtureBook(bookID)
	book.TotalCopies = 2
	helper.GivenBooksInStore(t, store, book)

	for offset := 0; offset < 4; offset++ {
		borrowedAt := fakeClock.AddDate(0, 0, offset*30)
		helper.GivenLoansInStore(t, store,
			helper.FixtureClosedLoan(t, bookID, userID, borrowedAt, borrowedAt.AddDate(0, 0, 7)))
	}

	queryHandler, err := bookcopiesstatus.NewQueryHandler(store)
	require.NoError(t, err)

	// act
	result, err := queryHandler.Handle(context.Background(), bookcopiesstatus.BuildQuery(bookID))

	// assert
	require.NoError(t, err)
	assert.Equal(t, 4, result.BorrowedCopies, "closed loans stay in the borrowed count")
	assert.Equal(t, -2, result.AvailableCopies, "availability is surfaced as computed, not clamped")
}

func Test_Project_OpenLoansOnlyVariant_IgnoresReturnedLoans(t *testing.T) {
	// arrange
	bookID := helper.GivenUniqueID(t)
	userID := helper.GivenUniqueID(t)
	fakeClock := time.Unix(0, 0).UTC()

	book := helper.FixtureBook(bookID)
	book.TotalCopies = 5

	loans := []core.BorrowRecord{
		helper.FixtureOpenLoan(t, bookID, userID, fakeClock),
		helper.FixtureClosedLoan(t, bookID, userID, fakeClock, fakeClock.AddDate(0, 0, 3)),
		helper.FixtureClosedLoan(t, bookID, userID, fakeClock, fakeClock.AddDate(0, 0, 5)),
	}

	// act
	result := bookcopiesstatus.ProjectOpenLoansOnly(book, loans)

	// assert
	assert.Equal(t, 1, result.BorrowedCopies, "only the open loan counts in this variant")
	assert.Equal(t, 4, result.AvailableCopies)
}

func Test_QueryHandler_Handle_ReturnsNotFound_WhenBookIsUnknown(t *testing.T) {
	// arrange
	store := memstore.New()
	queryHandler, err := bookcopiesstatus.NewQueryHandler(store)
	require.NoError(t, err)

	// act
	_, err = queryHandler.Handle(context.Background(), bookcopiesstatus.BuildQuery("no-such-book"))

	// assert
	assert.ErrorIs(t, err, shell.ErrNotFound)
}

func Test_QueryHandler_Handle_RejectsEmptyBookID_BeforeAnyStoreRead(t *testing.T) {
	// arrange: a store that fails every read, proving validation comes first
	store := memstore.New()
	store.FailWith(assert.AnError)

	queryHandler, err := bookcopiesstatus.NewQueryHandler(store)
	require.NoError(t, err)

	// act
	_, err = queryHandler.Handle(context.Background(), bookcopiesstatus.BuildQuery(""))

	// assert
	assert.ErrorIs(t, err, shell.ErrInvalidArgument)
	assert.NotErrorIs(t, err, shell.ErrInternal)
}

func Test_QueryHandler_Handle_ClassifiesStoreFailureAsInternal(t *testing.T) {
	// arrange
	store := memstore.New()
	store.FailWith(errors.New("connection refused"))

	queryHandler, err := bookcopiesstatus.NewQueryHandler(store)
	require.NoError(t, err)

	// act
	_, err = queryHandler.Handle(context.Background(), bookcopiesstatus.BuildQuery("b1"))

	// assert
	assert.ErrorIs(t, err, shell.ErrInternal)
}

func Test_QueryHandler_Handle_ClassifiesCancellation(t *testing.T) {
	// arrange
	store := memstore.New()
	queryHandler, err := bookcopiesstatus.NewQueryHandler(store)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// act
	_, err = queryHandler.Handle(ctx, bookcopiesstatus.BuildQuery("b1"))

	// assert
	assert.ErrorIs(t, err, shell.ErrCancelled)
}

func Test_QueryHandler_Handle_RecordsObservabilitySignals_OnSuccess(t *testing.T) {
	// arrange
	store := memstore.New()
	bookID := helper.GivenUniqueID(t)
	helper.GivenBooksInStore(t, store, helper.FixtureBook(bookID))

	metricsSpy := testdoubles.NewMetricsCollectorSpy()
	tracingSpy := testdoubles.NewTracingCollectorSpy()
	loggerSpy := testdoubles.NewContextualLoggerSpy()

	queryHandler, err := bookcopiesstatus.NewQueryHandler(
		store,
		bookcopiesstatus.WithMetrics(metricsSpy),
		bookcopiesstatus.WithTracing(tracingSpy),
		bookcopiesstatus.WithContextualLogging(loggerSpy),
	)
	require.NoError(t, err)

	// act
	_, err = queryHandler.Handle(context.Background(), bookcopiesstatus.BuildQuery(bookID))

	// assert
	require.NoError(t, err)

	calls := metricsSpy.RecordsForMetric(shell.QueryHandlerCallsMetric)
	require.Len(t, calls, 1)
	assert.Equal(t, shell.StatusSuccess, calls[0].Labels[shell.LogAttrStatus])

	durations := metricsSpy.RecordsForMetric(shell.QueryHandlerDurationMetric)
	require.Len(t, durations, 1)

	spans := tracingSpy.FinishedSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, shell.SpanNameQueryHandle, spans[0].Name)
	assert.Equal(t, shell.StatusSuccess, spans[0].Status)
	assert.NotEmpty(t, spans[0].Attributes[shell.LogAttrDurationMS])

	require.Len(t, loggerSpy.RecordsWithLevel("debug"), 1, "start is logged at debug level")
	completed := loggerSpy.RecordsWithLevel("info")
	require.Len(t, completed, 1)
	assert.Equal(t, shell.LogMsgQueryCompleted, completed[0].Message)
}

func Test_QueryHandler_Handle_RecordsObservabilitySignals_OnFailure(t *testing.T) {
	// arrange
	store := memstore.New()
	store.FailWith(errors.New("connection refused"))

	metricsSpy := testdoubles.NewMetricsCollectorSpy()
	tracingSpy := testdoubles.NewTracingCollectorSpy()
	loggerSpy := testdoubles.NewContextualLoggerSpy()

	queryHandler, err := bookcopiesstatus.NewQueryHandler(
		store,
		bookcopiesstatus.WithMetrics(metricsSpy),
		bookcopiesstatus.WithTracing(tracingSpy),
		bookcopiesstatus.WithContextualLogging(loggerSpy),
	)
	require.NoError(t, err)

	// act
	_, err = queryHandler.Handle(context.Background(), bookcopiesstatus.BuildQuery("b1"))

	// assert
	require.Error(t, err)

	calls := metricsSpy.RecordsForMetric(shell.QueryHandlerCallsMetric)
	require.Len(t, calls, 1)
	assert.Equal(t, shell.StatusError, calls[0].Labels[shell.LogAttrStatus])

	spans := tracingSpy.FinishedSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, shell.StatusError, spans[0].Status)
	assert.Contains(t, spans[0].Attributes[shell.LogAttrError], "connection refused")

	failed := loggerSpy.RecordsWithLevel("error")
	require.Len(t, failed, 1)
	assert.Equal(t, shell.LogMsgQueryFailed, failed[0].Message)
}
