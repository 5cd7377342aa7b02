package mostborrowedbooks_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libretrack/borrowing-analytics-go/analytics/features/query/mostborrowedbooks"
	"github.com/libretrack/borrowing-analytics-go/analytics/shell"
	"github.com/libretrack/borrowing-analytics-go/testutil/helper"
	"github.com/libretrack/borrowing-analytics-go/testutil/memstore"
)

func Test_QueryHandler_Handle_RanksBooksByBorrowCountDescending(t *testing.T) {
	// arrange
	store := memstore.New()
	popular := helper.GivenUniqueID(t)
	middling := helper.GivenUniqueID(t)
	obscure := helper.GivenUniqueID(t)
	reader1 := helper.GivenUniqueID(t)
	reader2 := helper.GivenUniqueID(t)
	fakeClock := time.Unix(0, 0).UTC()

	helper.GivenBooksInStore(t, store,
		helper.FixtureBook(popular), helper.FixtureBook(middling), helper.FixtureBook(obscure))
	helper.GivenUsersInStore(t, store,
		helper.FixtureUser(reader1), helper.FixtureUser(reader2))

	helper.GivenLoansInStore(t, store,
		helper.FixtureOpenLoan(t, popular, reader1, fakeClock),
		helper.FixtureOpenLoan(t, popular, reader2, fakeClock.AddDate(0, 0, 1)),
		helper.FixtureOpenLoan(t, popular, reader1, fakeClock.AddDate(0, 0, 2)),
		helper.FixtureOpenLoan(t, middling, reader2, fakeClock),
		helper.FixtureOpenLoan(t, middling, reader2, fakeClock.AddDate(0, 0, 3)),
		helper.FixtureOpenLoan(t, obscure, reader1, fakeClock))

	queryHandler, err := mostborrowedbooks.NewQueryHandler(store)
	require.NoError(t, err, "Should create MostBorrowedBooks query handler")

	// act
	result, err := queryHandler.Handle(context.Background(), mostborrowedbooks.BuildQuery())

	// assert
	require.NoError(t, err)
	require.Len(t, result.Rankings, 3)

	for i := 1; i < len(result.Rankings); i++ {
		assert.GreaterOrEqual(t,
			result.Rankings[i-1].BorrowCount, result.Rankings[i].BorrowCount,
			"ranking must be non-increasing by borrow count")
	}

	assert.Equal(t, popular, result.Rankings[0].Book.ID)
	assert.Equal(t, 3, result.Rankings[0].BorrowCount)
	assert.Len(t, result.Rankings[0].Users, 2, "borrowers are distinct users, not loans")

	for _, ranked := range result.Rankings {
		assert.NotEmpty(t, ranked.Users, "every ranked book carries at least one borrower")
	}
}

func Test_QueryHandler_Handle_RestrictsToWindow_WhenBoundsAreSet(t *testing.T) {
	// arrange
	store := memstore.New()
	bookID := helper.GivenUniqueID(t)
	readerID := helper.GivenUniqueID(t)
	fakeClock := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	helper.GivenBooksInStore(t, store, helper.FixtureBook(bookID))
	helper.GivenUsersInStore(t, store, helper.FixtureUser(readerID))
	helper.GivenLoansInStore(t, store,
		helper.FixtureOpenLoan(t, bookID, readerID, fakeClock),
		helper.FixtureOpenLoan(t, bookID, readerID, fakeClock.AddDate(0, 2, 0)))

	queryHandler, err := mostborrowedbooks.NewQueryHandler(store)
	require.NoError(t, err)

	query := mostborrowedbooks.BuildQueryWithWindow(
		fakeClock.AddDate(0, 0, -1), fakeClock.AddDate(0, 1, 0))

	// act
	result, err := queryHandler.Handle(context.Background(), query)

	// assert
	require.NoError(t, err)
	require.Len(t, result.Rankings, 1)
	assert.Equal(t, 1, result.Rankings[0].BorrowCount, "the loan outside the window is not counted")
}

func Test_QueryHandler_Handle_DropsGroupsWithoutResolvableBookOrBorrowers(t *testing.T) {
	// arrange
	store := memstore.New()
	knownBook := helper.GivenUniqueID(t)
	deletedBook := helper.GivenUniqueID(t)
	orphanedBook := helper.GivenUniqueID(t)
	knownReader := helper.GivenUniqueID(t)
	deletedReader := helper.GivenUniqueID(t)
	fakeClock := time.Unix(0, 0).UTC()

	helper.GivenBooksInStore(t, store, helper.FixtureBook(knownBook), helper.FixtureBook(orphanedBook))
	helper.GivenUsersInStore(t, store, helper.FixtureUser(knownReader))

	helper.GivenLoansInStore(t, store,
		helper.FixtureOpenLoan(t, knownBook, knownReader, fakeClock),
		helper.FixtureOpenLoan(t, deletedBook, knownReader, fakeClock),    // book is gone
		helper.FixtureOpenLoan(t, orphanedBook, deletedReader, fakeClock)) // only borrower is gone

	queryHandler, err := mostborrowedbooks.NewQueryHandler(store)
	require.NoError(t, err)

	// act
	result, err := queryHandler.Handle(context.Background(), mostborrowedbooks.BuildQuery())

	// assert
	require.NoError(t, err)
	require.Len(t, result.Rankings, 1, "unresolvable groups are dropped, not fatal")
	assert.Equal(t, knownBook, result.Rankings[0].Book.ID)
}

func Test_QueryHandler_Handle_ReturnsEmptyRanking_ForEmptyHistory(t *testing.T) {
	// arrange
	store := memstore.New()
	queryHandler, err := mostborrowedbooks.NewQueryHandler(store)
	require.NoError(t, err)

	// act
	result, err := queryHandler.Handle(context.Background(), mostborrowedbooks.BuildQuery())

	// assert
	require.NoError(t, err)
	assert.Empty(t, result.Rankings)
	assert.Zero(t, result.Count)
}

func Test_QueryHandler_Handle_RejectsInvertedWindow(t *testing.T) {
	// arrange
	store := memstore.New()
	queryHandler, err := mostborrowedbooks.NewQueryHandler(store)
	require.NoError(t, err)

	fakeClock := time.Unix(0, 0).UTC()

	// act
	_, err = queryHandler.Handle(context.Background(),
		mostborrowedbooks.BuildQueryWithWindow(fakeClock.AddDate(0, 0, 1), fakeClock))

	// assert
	assert.ErrorIs(t, err, shell.ErrInvalidArgument)
}
