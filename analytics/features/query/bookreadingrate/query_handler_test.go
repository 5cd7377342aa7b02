package bookreadingrate_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libretrack/borrowing-analytics-go/analytics/features/query/bookreadingrate"
	"github.com/libretrack/borrowing-analytics-go/analytics/shell"
	"github.com/libretrack/borrowing-analytics-go/testutil/helper"
	"github.com/libretrack/borrowing-analytics-go/testutil/memstore"
)

func Test_QueryHandler_Handle_ReturnsOneSamplePerClosedLoan(t *testing.T) {
	// arrange
	store := memstore.New()
	bookID := helper.GivenUniqueID(t)
	fastReader := helper.GivenUniqueID(t)
	slowReader := helper.GivenUniqueID(t)
	stillReading := helper.GivenUniqueID(t)
	fakeClock := time.Unix(0, 0).UTC()

	book := helper.FixtureBook(bookID)
	book.NoOfPages = 320
	helper.GivenBooksInStore(t, store, book)

	helper.GivenLoansInStore(t, store,
		helper.FixtureClosedLoan(t, bookID, fastReader, fakeClock, fakeClock.AddDate(0, 0, 4)),
		helper.FixtureClosedLoan(t, bookID, slowReader, fakeClock, fakeClock.AddDate(0, 0, 16)),
		helper.FixtureOpenLoan(t, bookID, stillReading, fakeClock))

	queryHandler, err := bookreadingrate.NewQueryHandler(store)
	require.NoError(t, err, "Should create BookReadingRate query handler")

	// act
	result, err := queryHandler.Handle(context.Background(), bookreadingrate.BuildQuery(bookID))

	// assert
	require.NoError(t, err)
	assert.Equal(t, bookID, result.Book.ID)
	require.Len(t, result.Samples, 2, "the open loan contributes no sample")
	assert.Equal(t, 2, result.ClosedLoans)
	assert.Zero(t, result.SkippedSamples)

	bySampleUser := make(map[string]int)
	for _, sample := range result.Samples {
		assert.Positive(t, sample.PagesPerDay)
		bySampleUser[sample.UserID] = sample.PagesPerDay
	}

	assert.Equal(t, 80, bySampleUser[fastReader])
	assert.Equal(t, 20, bySampleUser[slowReader])
}

func Test_QueryHandler_Handle_SkipsSameDayReturnsInsteadOfDividingByZero(t *testing.T) {
	// arrange
	store := memstore.New()
	bookID := helper.GivenUniqueID(t)
	sameDay := helper.GivenUniqueID(t)
	normal := helper.GivenUniqueID(t)
	fakeClock := time.Unix(0, 0).UTC()

	helper.GivenBooksInStore(t, store, helper.FixtureBook(bookID))
	helper.GivenLoansInStore(t, store,
		helper.FixtureClosedLoan(t, bookID, sameDay, fakeClock, fakeClock.Add(3*time.Hour)),
		helper.FixtureClosedLoan(t, bookID, normal, fakeClock, fakeClock.AddDate(0, 0, 8)))

	queryHandler, err := bookreadingrate.NewQueryHandler(store)
	require.NoError(t, err)

	// act
	result, err := queryHandler.Handle(context.Background(), bookreadingrate.BuildQuery(bookID))

	// assert
	require.NoError(t, err)
	require.Len(t, result.Samples, 1)
	assert.Equal(t, normal, result.Samples[0].UserID)
	assert.Equal(t, 1, result.SkippedSamples)
}

func Test_QueryHandler_Handle_FailsWithInvalidState_WhenEveryClosedLoanIsDegenerate(t *testing.T) {
	// arrange
	store := memstore.New()
	bookID := helper.GivenUniqueID(t)
	userID := helper.GivenUniqueID(t)
	fakeClock := time.Unix(0, 0).UTC()

	helper.GivenBooksInStore(t, store, helper.FixtureBook(bookID))
	helper.GivenLoansInStore(t, store,
		helper.FixtureClosedLoan(t, bookID, userID, fakeClock, fakeClock.Add(time.Hour)))

	queryHandler, err := bookreadingrate.NewQueryHandler(store)
	require.NoError(t, err)

	// act
	_, err = queryHandler.Handle(context.Background(), bookreadingrate.BuildQuery(bookID))

	// assert
	assert.ErrorIs(t, err, shell.ErrInvalidState)
}

func Test_QueryHandler_Handle_SucceedsWithEmptySamples_WhenBookWasNeverReturned(t *testing.T) {
	// arrange
	store := memstore.New()
	bookID := helper.GivenUniqueID(t)
	userID := helper.GivenUniqueID(t)
	fakeClock := time.Unix(0, 0).UTC()

	helper.GivenBooksInStore(t, store, helper.FixtureBook(bookID))
	helper.GivenLoansInStore(t, store, helper.FixtureOpenLoan(t, bookID, userID, fakeClock))

	queryHandler, err := bookreadingrate.NewQueryHandler(store)
	require.NoError(t, err)

	// act
	result, err := queryHandler.Handle(context.Background(), bookreadingrate.BuildQuery(bookID))

	// assert
	require.NoError(t, err)
	assert.Empty(t, result.Samples)
	assert.Zero(t, result.ClosedLoans)
}

func Test_QueryHandler_Handle_RejectsEmptyBookID_BeforeAnyStoreRead(t *testing.T) {
	// arrange: a store that fails every read, proving validation comes first
	store := memstore.New()
	store.FailWith(assert.AnError)

	queryHandler, err := bookreadingrate.NewQueryHandler(store)
	require.NoError(t, err)

	// act
	_, err = queryHandler.Handle(context.Background(), bookreadingrate.BuildQuery(""))

	// assert
	assert.ErrorIs(t, err, shell.ErrInvalidArgument)
	assert.NotErrorIs(t, err, shell.ErrInternal)
}

func Test_QueryHandler_Handle_ReturnsNotFound_WhenBookIsUnknown(t *testing.T) {
	// arrange
	store := memstore.New()
	queryHandler, err := bookreadingrate.NewQueryHandler(store)
	require.NoError(t, err)

	// act
	_, err = queryHandler.Handle(context.Background(), bookreadingrate.BuildQuery("no-such-book"))

	// assert
	assert.ErrorIs(t, err, shell.ErrNotFound)
}
