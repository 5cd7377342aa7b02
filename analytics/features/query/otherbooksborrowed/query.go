package otherbooksborrowed

const (
	queryType = "OtherBooksBorrowed"
)

// Query represents the intent to explore what else the borrowers of one book
// have borrowed.
type Query struct {
	BookID string
}

// BuildQuery creates a new Query with the provided target book ID.
func BuildQuery(bookID string) Query {
	return Query{
		BookID: bookID,
	}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}
