package bookreadingrate

import (
	"github.com/libretrack/borrowing-analytics-go/analytics/core"
	"github.com/libretrack/borrowing-analytics-go/recordstore"
)

// Project computes the reading-speed samples for one book from its closed
// loans. This is a pure function with no side effects.
//
// Query Logic:
//
//	GIVEN: A book and its closed borrow records
//	WHEN: BookReadingRate query is executed
//	THEN: One pages-per-day sample per usable closed loan is returned
//	EXCLUDES: Open loans, same-day returns, inverted date pairs
//
// Degenerate loans never crash the computation or divide by zero; they are
// skipped and reported through SkippedSamples.
func Project(book core.Book, closedLoans []core.BorrowRecord) BookReadingRate {
	samples, skipped := core.ReadingRateSamples(book, closedLoans)

	return BookReadingRate{
		Book:           book,
		Samples:        samples,
		ClosedLoans:    len(closedLoans),
		SkippedSamples: skipped,
	}
}

// BuildRecordFilter creates the filter selecting the closed loans of one book:
// records referencing the book where a return date is set.
func BuildRecordFilter(bookID string) recordstore.Filter {
	return recordstore.BuildRecordFilter().
		Matching().
		AllPredicatesOf(
			recordstore.P(core.FieldBookID, bookID),
			recordstore.FieldPresent(core.FieldReturnDate)).
		Finalize()
}
