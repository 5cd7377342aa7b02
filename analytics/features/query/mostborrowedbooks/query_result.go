package mostborrowedbooks

import (
	"github.com/libretrack/borrowing-analytics-go/analytics/core"
)

// RankedBook represents one entry of the popularity ranking: a book, how
// often it was borrowed, and the distinct users who borrowed it.
type RankedBook struct {
	Book        core.Book
	BorrowCount int
	Users       []core.User
}

// MostBorrowedBooks represents the query result, ordered by borrow count
// descending. The relative order of equally counted books is unspecified.
type MostBorrowedBooks struct {
	Rankings []RankedBook
	Count    int
}
