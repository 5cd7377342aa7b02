package otherbooksborrowed

import (
	"time"

	"github.com/libretrack/borrowing-analytics-go/analytics/core"
)

// LoanDetail is one loan inside a borrow history: who borrowed, when, when it
// was due, and when it came back if it did.
type LoanDetail struct {
	UserID     string
	BorrowDate time.Time
	DueDate    time.Time
	ReturnDate *time.Time
}

// BorrowHistory is one other book together with every loan the borrower took
// out on it.
type BorrowHistory struct {
	Book        core.Book
	LoanDetails []LoanDetail
}

// BorrowerHistories is one co-borrower with their complete other-book
// borrowing history, grouped by book.
type BorrowerHistories struct {
	User      core.User
	Histories []BorrowHistory
}

// OtherBooksBorrowed represents the query result. Borrowers is an unordered
// collection: the parallel assembly makes the merge order nondeterministic,
// so consumers must compare it as a set. The target book never appears inside
// any history.
type OtherBooksBorrowed struct {
	BookID    string
	Borrowers []BorrowerHistories
	Count     int
}
