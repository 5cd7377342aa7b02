package allbooks

import (
	"github.com/libretrack/borrowing-analytics-go/analytics/core"
)

// AllBooks represents the query result containing the whole catalog in store
// insertion order.
type AllBooks struct {
	Books []core.Book
	Count int
}
