package bookcopiesstatus

const (
	queryType = "BookCopiesStatus"
)

// Query represents the intent to query the circulation status of one book.
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
