package mostborrowedbooks

import (
	"time"
)

const (
	queryType = "MostBorrowedBooks"
)

// Query represents the intent to rank books by borrow count. The window is
// optional: zero-valued bounds mean the entire borrowing history, and each
// bound applies independently when only one is set.
type Query struct {
	StartTime time.Time
	EndTime   time.Time
}

// BuildQuery creates a new Query covering the entire borrowing history.
func BuildQuery() Query {
	return Query{}
}

// BuildQueryWithWindow creates a new Query restricted to borrow dates inside
// the inclusive window.
func BuildQueryWithWindow(startTime time.Time, endTime time.Time) Query {
	return Query{
		StartTime: startTime,
		EndTime:   endTime,
	}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}
