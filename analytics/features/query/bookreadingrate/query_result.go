package bookreadingrate

import (
	"github.com/libretrack/borrowing-analytics-go/analytics/core"
)

// BookReadingRate represents the query result: one reading-speed sample per
// usable closed loan of the book, in store iteration order. SkippedSamples
// counts closed loans that could not yield a rate because the loan was
// returned within the borrow day or carries an inverted date pair.
type BookReadingRate struct {
	Book           core.Book
	Samples        []core.ReadingRateSample
	ClosedLoans    int
	SkippedSamples int
}
