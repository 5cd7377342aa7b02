package otherbooksborrowed

import (
	"github.com/libretrack/borrowing-analytics-go/analytics/core"
	"github.com/libretrack/borrowing-analytics-go/recordstore"
)

// BuildBorrowHistories assembles one borrower's other-book histories from the
// pre-fetched record set. This is a pure function with no side effects; the
// parallel stage of the query handler runs it once per borrower against the
// same immutable inputs.
//
// Query Logic:
//
//	GIVEN: Every other-book borrow record of all co-borrowers, and the
//	       batch-resolved books
//	WHEN: One borrower's slice of the result is assembled
//	THEN: That borrower's records are grouped by book into histories
//	SKIPS: Groups whose book cannot be resolved (dangling reference)
//
// The history order within one borrower follows map iteration and is not
// deterministic; callers compare results as sets.
func BuildBorrowHistories(
	otherRecords []core.BorrowRecord,
	books map[string]core.Book,
	userID string,
) []BorrowHistory {

	grouped := core.GroupByBookID(core.RecordsOfUser(otherRecords, userID))

	histories := make([]BorrowHistory, 0, len(grouped))

	for bookID, loans := range grouped {
		book, resolved := books[bookID]
		if !resolved {
			continue
		}

		details := make([]LoanDetail, 0, len(loans))
		for _, loan := range loans {
			details = append(details, LoanDetail{
				UserID:     loan.UserID,
				BorrowDate: loan.BorrowDate,
				DueDate:    loan.DueDate,
				ReturnDate: loan.ReturnDate,
			})
		}

		histories = append(histories, BorrowHistory{
			Book:        book,
			LoanDetails: details,
		})
	}

	return histories
}

// BuildBorrowerFilter creates the filter selecting every borrow record of the
// target book, used to discover the co-borrowers.
func BuildBorrowerFilter(bookID string) recordstore.Filter {
	return recordstore.BuildRecordFilter().
		Matching().
		AnyPredicateOf(recordstore.P(core.FieldBookID, bookID)).
		Finalize()
}

// BuildOtherRecordsFilter creates the filter selecting, in one batched read,
// every borrow record of the given users except the records of the target
// book itself: one filter item per user, each pairing the user match with the
// target-book exclusion.
func BuildOtherRecordsFilter(userIDs []string, excludeBookID string) recordstore.Filter {
	itemBuilder := recordstore.BuildRecordFilter().
		Matching().
		AllPredicatesOf(
			recordstore.P(core.FieldUserID, userIDs[0]),
			recordstore.NotP(core.FieldBookID, excludeBookID))

	for _, userID := range userIDs[1:] {
		itemBuilder = itemBuilder.
			OrMatching().
			AllPredicatesOf(
				recordstore.P(core.FieldUserID, userID),
				recordstore.NotP(core.FieldBookID, excludeBookID))
	}

	return itemBuilder.Finalize()
}
