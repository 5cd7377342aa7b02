package userborrowedbooks

import (
	"github.com/libretrack/borrowing-analytics-go/analytics/core"
	"github.com/libretrack/borrowing-analytics-go/recordstore"
)

// Project assembles the timeline result from the user's matching borrow
// records and the batch-resolved books. This is a pure function with no side
// effects.
//
// Query Logic:
//
//	GIVEN: The borrow records of one user with BorrowDate inside the window
//	WHEN: UserBorrowedBooks query is executed
//	THEN: The distinct referenced books are returned in first borrow order
//	SKIPS: Records whose book cannot be resolved (dangling reference)
//
// The loan count includes records with unresolvable books; only the book
// list drops them.
func Project(query Query, records []core.BorrowRecord, books map[string]core.Book) UserBorrowedBooks {
	distinctIDs := core.DistinctBookIDs(records, "")

	resolved := make([]core.Book, 0, len(distinctIDs))
	for _, bookID := range distinctIDs {
		if book, ok := books[bookID]; ok {
			resolved = append(resolved, book)
		}
	}

	return UserBorrowedBooks{
		UserID:             query.UserID,
		Books:              resolved,
		BorrowedBooksCount: len(records),
		StartTime:          query.StartTime,
		EndTime:            query.EndTime,
	}
}

// BuildRecordFilter creates the filter selecting one user's borrow records
// with BorrowDate inside the inclusive window.
func BuildRecordFilter(query Query) recordstore.Filter {
	return recordstore.BuildRecordFilter().
		Matching().
		AnyPredicateOf(recordstore.P(core.FieldUserID, query.UserID)).
		RangeOver(core.FieldBorrowDate).
		From(query.StartTime).
		Until(query.EndTime).
		Finalize()
}
