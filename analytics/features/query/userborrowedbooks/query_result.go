package userborrowedbooks

import (
	"time"

	"github.com/libretrack/borrowing-analytics-go/analytics/core"
)

// UserBorrowedBooks represents the query result: the distinct books a user
// borrowed inside the window. BorrowedBooksCount counts the matching borrow
// records, not the distinct titles, so it may exceed len(Books) when the
// user borrowed the same title more than once in the window. That divergence
// is the documented contract, not an accident.
type UserBorrowedBooks struct {
	UserID             string
	Books              []core.Book
	BorrowedBooksCount int
	StartTime          time.Time
	EndTime            time.Time
}
