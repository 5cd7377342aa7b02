package otherbooksborrowed_test

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libretrack/borrowing-analytics-go/analytics/features/query/otherbooksborrowed"
	"github.com/libretrack/borrowing-analytics-go/analytics/shell"
	"github.com/libretrack/borrowing-analytics-go/testutil/helper"
	"github.com/libretrack/borrowing-analytics-go/testutil/memstore"
)

func Test_QueryHandler_Handle_ReturnsEachBorrowersOtherBooks(t *testing.T) {
	// arrange
	store := memstore.New()
	targetBook := helper.GivenUniqueID(t)
	otherBook1 := helper.GivenUniqueID(t)
	otherBook2 := helper.GivenUniqueID(t)
	reader1 := helper.GivenUniqueID(t)
	reader2 := helper.GivenUniqueID(t)
	fakeClock := time.Unix(0, 0).UTC()

	helper.GivenBooksInStore(t, store,
		helper.FixtureBook(targetBook), helper.FixtureBook(otherBook1), helper.FixtureBook(otherBook2))
	helper.GivenUsersInStore(t, store, helper.FixtureUser(reader1), helper.FixtureUser(reader2))

	helper.GivenLoansInStore(t, store,
		helper.FixtureOpenLoan(t, targetBook, reader1, fakeClock),
		helper.FixtureOpenLoan(t, targetBook, reader2, fakeClock),
		helper.FixtureOpenLoan(t, otherBook1, reader1, fakeClock.AddDate(0, 0, 1)),
		helper.FixtureOpenLoan(t, otherBook2, reader2, fakeClock.AddDate(0, 0, 2)))

	queryHandler, err := otherbooksborrowed.NewQueryHandler(store)
	require.NoError(t, err, "Should create OtherBooksBorrowed query handler")

	// act
	result, err := queryHandler.Handle(context.Background(), otherbooksborrowed.BuildQuery(targetBook))

	// assert
	require.NoError(t, err)
	require.Len(t, result.Borrowers, 2)

	otherBooksByUser := otherBookIDsByUser(result)
	assert.ElementsMatch(t, []string{otherBook1}, otherBooksByUser[reader1])
	assert.ElementsMatch(t, []string{otherBook2}, otherBooksByUser[reader2])
}

func Test_QueryHandler_Handle_NeverIncludesTheTargetBook(t *testing.T) {
	// arrange
	store := memstore.New()
	targetBook := helper.GivenUniqueID(t)
	otherBook := helper.GivenUniqueID(t)
	readerID := helper.GivenUniqueID(t)
	fakeClock := time.Unix(0, 0).UTC()

	helper.GivenBooksInStore(t, store, helper.FixtureBook(targetBook), helper.FixtureBook(otherBook))
	helper.GivenUsersInStore(t, store, helper.FixtureUser(readerID))

	// the reader borrowed the target twice and the other book once
	helper.GivenLoansInStore(t, store,
		helper.FixtureOpenLoan(t, targetBook, readerID, fakeClock),
		helper.FixtureClosedLoan(t, targetBook, readerID, fakeClock.AddDate(0, 1, 0), fakeClock.AddDate(0, 1, 7)),
		helper.FixtureOpenLoan(t, otherBook, readerID, fakeClock.AddDate(0, 0, 1)))

	queryHandler, err := otherbooksborrowed.NewQueryHandler(store)
	require.NoError(t, err)

	// act
	result, err := queryHandler.Handle(context.Background(), otherbooksborrowed.BuildQuery(targetBook))

	// assert
	require.NoError(t, err)
	for _, borrower := range result.Borrowers {
		for _, history := range borrower.Histories {
			assert.NotEqual(t, targetBook, history.Book.ID,
				"the target book must never appear inside a history")
		}
	}
}

func Test_QueryHandler_Handle_ReturnsEmptyResult_WhenNobodyBorrowedTheBook(t *testing.T) {
	// arrange
	store := memstore.New()
	targetBook := helper.GivenUniqueID(t)
	helper.GivenBooksInStore(t, store, helper.FixtureBook(targetBook))

	queryHandler, err := otherbooksborrowed.NewQueryHandler(store)
	require.NoError(t, err)

	// act
	result, err := queryHandler.Handle(context.Background(), otherbooksborrowed.BuildQuery(targetBook))

	// assert
	require.NoError(t, err, "an empty borrower set is a valid answer, not an error")
	assert.Empty(t, result.Borrowers)
	assert.Zero(t, result.Count)
}

func Test_QueryHandler_Handle_DropsBorrowersWithoutOtherBooks(t *testing.T) {
	// arrange
	store := memstore.New()
	targetBook := helper.GivenUniqueID(t)
	otherBook := helper.GivenUniqueID(t)
	onlyTarget := helper.GivenUniqueID(t)
	alsoOther := helper.GivenUniqueID(t)
	fakeClock := time.Unix(0, 0).UTC()

	helper.GivenBooksInStore(t, store, helper.FixtureBook(targetBook), helper.FixtureBook(otherBook))
	helper.GivenUsersInStore(t, store, helper.FixtureUser(onlyTarget), helper.FixtureUser(alsoOther))

	helper.GivenLoansInStore(t, store,
		helper.FixtureOpenLoan(t, targetBook, onlyTarget, fakeClock),
		helper.FixtureOpenLoan(t, targetBook, alsoOther, fakeClock),
		helper.FixtureOpenLoan(t, otherBook, alsoOther, fakeClock.AddDate(0, 0, 1)))

	queryHandler, err := otherbooksborrowed.NewQueryHandler(store)
	require.NoError(t, err)

	// act
	result, err := queryHandler.Handle(context.Background(), otherbooksborrowed.BuildQuery(targetBook))

	// assert
	require.NoError(t, err)
	require.Len(t, result.Borrowers, 1, "a borrower with zero histories is dropped entirely")
	assert.Equal(t, alsoOther, result.Borrowers[0].User.ID)
}

func Test_QueryHandler_Handle_SequentialAndParallelAssemblyAgreeAsSets(t *testing.T) {
	// arrange: a wider scenario with repeat loans and shared books
	store := memstore.New()
	targetBook := helper.GivenUniqueID(t)
	fakeClock := time.Unix(0, 0).UTC()

	helper.GivenBooksInStore(t, store, helper.FixtureBook(targetBook))

	otherBooks := make([]string, 4)
	for i := range otherBooks {
		otherBooks[i] = helper.GivenUniqueID(t)
		helper.GivenBooksInStore(t, store, helper.FixtureBook(otherBooks[i]))
	}

	readers := make([]string, 6)
	for i := range readers {
		readers[i] = helper.GivenUniqueID(t)
		helper.GivenUsersInStore(t, store, helper.FixtureUser(readers[i]))
		helper.GivenLoansInStore(t, store,
			helper.FixtureOpenLoan(t, targetBook, readers[i], fakeClock))

		for j, bookID := range otherBooks {
			if (i+j)%2 == 0 {
				borrowedAt := fakeClock.AddDate(0, 0, i+j+1)
				helper.GivenLoansInStore(t, store,
					helper.FixtureClosedLoan(t, bookID, readers[i], borrowedAt, borrowedAt.AddDate(0, 0, 5)),
					helper.FixtureOpenLoan(t, bookID, readers[i], borrowedAt.AddDate(0, 1, 0)))
			}
		}
	}

	sequentialHandler, err := otherbooksborrowed.NewQueryHandler(store, otherbooksborrowed.WithMaxConcurrency(1))
	require.NoError(t, err)

	parallelHandler, err := otherbooksborrowed.NewQueryHandler(store, otherbooksborrowed.WithMaxConcurrency(8))
	require.NoError(t, err)

	// act
	sequentialResult, err := sequentialHandler.Handle(context.Background(), otherbooksborrowed.BuildQuery(targetBook))
	require.NoError(t, err)

	parallelResult, err := parallelHandler.Handle(context.Background(), otherbooksborrowed.BuildQuery(targetBook))
	require.NoError(t, err)

	// assert: order-independent equality
	assert.Equal(t, otherBookIDsByUser(sequentialResult), otherBookIDsByUser(parallelResult))
	assert.Equal(t, sequentialResult.Count, parallelResult.Count)
}

func Test_QueryHandler_Handle_FailsAtomically_OnStoreFailure(t *testing.T) {
	// arrange
	store := memstore.New()
	store.FailWith(errors.New("connection reset"))

	queryHandler, err := otherbooksborrowed.NewQueryHandler(store)
	require.NoError(t, err)

	// act
	_, err = queryHandler.Handle(context.Background(), otherbooksborrowed.BuildQuery("b1"))

	// assert
	assert.ErrorIs(t, err, shell.ErrInternal, "a store failure aborts the whole call")
}

func Test_QueryHandler_Handle_ObservesCancellationBeforeReading(t *testing.T) {
	// arrange
	store := memstore.New()
	queryHandler, err := otherbooksborrowed.NewQueryHandler(store)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// act
	_, err = queryHandler.Handle(ctx, otherbooksborrowed.BuildQuery("b1"))

	// assert
	assert.ErrorIs(t, err, shell.ErrCancelled)
}

func Test_QueryHandler_Handle_RejectsEmptyBookID_BeforeAnyStoreRead(t *testing.T) {
	// arrange: a store that fails every read, proving validation comes first
	store := memstore.New()
	store.FailWith(assert.AnError)

	queryHandler, err := otherbooksborrowed.NewQueryHandler(store)
	require.NoError(t, err)

	// act
	_, err = queryHandler.Handle(context.Background(), otherbooksborrowed.BuildQuery(""))

	// assert
	assert.ErrorIs(t, err, shell.ErrInvalidArgument)
	assert.NotErrorIs(t, err, shell.ErrInternal)
}

func Test_QueryHandler_Handle_RejectsNonPositiveConcurrency(t *testing.T) {
	store := memstore.New()

	_, err := otherbooksborrowed.NewQueryHandler(store, otherbooksborrowed.WithMaxConcurrency(0))

	assert.ErrorIs(t, err, shell.ErrInvalidArgument)
}

// otherBookIDsByUser flattens a result into userID -> sorted-insensitive set
// of other-book ids, the shape used for order-independent comparison.
func otherBookIDsByUser(result otherbooksborrowed.OtherBooksBorrowed) map[string][]string {
	flattened := make(map[string][]string)

	for _, borrower := range result.Borrowers {
		ids := make([]string, 0, len(borrower.Histories))
		for _, history := range borrower.Histories {
			ids = append(ids, history.Book.ID)
		}

		sort.Strings(ids)
		flattened[borrower.User.ID] = ids
	}

	return flattened
}
