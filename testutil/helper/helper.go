package helper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/libretrack/borrowing-analytics-go/analytics/core"
	"github.com/libretrack/borrowing-analytics-go/recordstore"
	"github.com/libretrack/borrowing-analytics-go/testutil/memstore"
)

func GivenUniqueID(t testing.TB) string {
	id, err := uuid.NewV7()
	require.NoError(t, err, "error in arranging test data")

	return id.String()
}

func FixtureBook(id string) core.Book {
	return core.Book{
		ID:              id,
		Title:           "Learning Domain-Driven Design",
		Author:          "Vlad Khononov",
		Genre:           "Software Engineering",
		PublicationYear: 2021,
		NoOfPages:       320,
		TotalCopies:     5,
	}
}

func FixtureUser(id string) core.User {
	return core.User{
		ID:    id,
		Name:  "Ada Lovelace",
		Email: "ada@example.com",
	}
}

func FixtureOpenLoan(t testing.TB, bookID string, userID string, borrowedAt time.Time) core.BorrowRecord {
	return core.BorrowRecord{
		ID:         GivenUniqueID(t),
		BookID:     bookID,
		UserID:     userID,
		BorrowDate: borrowedAt,
		DueDate:    borrowedAt.AddDate(0, 0, 14),
	}
}

func FixtureClosedLoan(t testing.TB, bookID string, userID string, borrowedAt time.Time, returnedAt time.Time) core.BorrowRecord {
	loan := FixtureOpenLoan(t, bookID, userID, borrowedAt)
	loan.ReturnDate = &returnedAt

	return loan
}

// GivenBooksInStore inserts books into the store, failing the test on error.
func GivenBooksInStore(t testing.TB, store *memstore.Store, books ...core.Book) {
	for _, book := range books {
		payload, err := book.ToJSON()
		require.NoError(t, err, "error in arranging test data")

		document, err := recordstore.BuildStorableDocument(core.CollectionBooks, book.ID, payload)
		require.NoError(t, err, "error in arranging test data")

		require.NoError(t, store.Insert(context.Background(), document), "error in arranging test data")
	}
}

// GivenUsersInStore inserts users into the store, failing the test on error.
func GivenUsersInStore(t testing.TB, store *memstore.Store, users ...core.User) {
	for _, user := range users {
		payload, err := user.ToJSON()
		require.NoError(t, err, "error in arranging test data")

		document, err := recordstore.BuildStorableDocument(core.CollectionUsers, user.ID, payload)
		require.NoError(t, err, "error in arranging test data")

		require.NoError(t, store.Insert(context.Background(), document), "error in arranging test data")
	}
}

// GivenLoansInStore inserts borrow records into the store, failing the test on error.
func GivenLoansInStore(t testing.TB, store *memstore.Store, loans ...core.BorrowRecord) {
	for _, loan := range loans {
		payload, err := loan.ToJSON()
		require.NoError(t, err, "error in arranging test data")

		document, err := recordstore.BuildStorableDocument(core.CollectionBorrowRecords, loan.ID, payload)
		require.NoError(t, err, "error in arranging test data")

		require.NoError(t, store.Insert(context.Background(), document), "error in arranging test data")
	}
}
