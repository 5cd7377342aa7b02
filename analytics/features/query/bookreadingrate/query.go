package bookreadingrate

const (
	queryType = "BookReadingRate"
)

// Query represents the intent to query per-user reading-speed samples for one book.
type Query struct {
	BookID string
}

// BuildQuery creates a new Query with the provided book ID.
func BuildQuery(bookID string) Query {
	return Query{
		BookID: bookID,
	}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}
