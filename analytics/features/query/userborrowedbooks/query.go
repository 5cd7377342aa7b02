package userborrowedbooks

import (
	"time"
)

const (
	queryType = "UserBorrowedBooks"
)

// Query represents the intent to query the books a user borrowed inside a
// time window. Both bounds are inclusive.
type Query struct {
	UserID    string
	StartTime time.Time
	EndTime   time.Time
}

// BuildQuery creates a new Query with the provided user ID and time window.
func BuildQuery(userID string, startTime time.Time, endTime time.Time) Query {
	return Query{
		UserID:    userID,
		StartTime: startTime,
		EndTime:   endTime,
	}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}
