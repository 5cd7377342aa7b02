package allbooks_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libretrack/borrowing-analytics-go/analytics/features/query/allbooks"
	"github.com/libretrack/borrowing-analytics-go/analytics/shell"
	"github.com/libretrack/borrowing-analytics-go/testutil/helper"
	"github.com/libretrack/borrowing-analytics-go/testutil/memstore"
)

func Test_QueryHandler_Handle_ListsTheCatalogInInsertionOrder(t *testing.T) {
	// arrange
	store := memstore.New()
	bookID1 := helper.GivenUniqueID(t)
	bookID2 := helper.GivenUniqueID(t)

	helper.GivenBooksInStore(t, store, helper.FixtureBook(bookID1), helper.FixtureBook(bookID2))

	queryHandler, err := allbooks.NewQueryHandler(store)
	require.NoError(t, err, "Should create AllBooks query handler")

	// act
	result, err := queryHandler.Handle(context.Background(), allbooks.BuildQuery())

	// assert
	require.NoError(t, err)
	require.Len(t, result.Books, 2)
	assert.Equal(t, bookID1, result.Books[0].ID)
	assert.Equal(t, bookID2, result.Books[1].ID)
	assert.Equal(t, 2, result.Count)
}

func Test_QueryHandler_Handle_ReturnsEmptyList_ForEmptyCatalog(t *testing.T) {
	// arrange
	store := memstore.New()
	queryHandler, err := allbooks.NewQueryHandler(store)
	require.NoError(t, err)

	// act
	result, err := queryHandler.Handle(context.Background(), allbooks.BuildQuery())

	// assert
	require.NoError(t, err)
	assert.Empty(t, result.Books)
	assert.Zero(t, result.Count)
}

func Test_QueryHandler_Handle_ClassifiesStoreFailureAsInternal(t *testing.T) {
	// arrange
	store := memstore.New()
	store.FailWith(assert.AnError)

	queryHandler, err := allbooks.NewQueryHandler(store)
	require.NoError(t, err)

	// act
	_, err = queryHandler.Handle(context.Background(), allbooks.BuildQuery())

	// assert
	assert.ErrorIs(t, err, shell.ErrInternal)
}
