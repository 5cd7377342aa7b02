package shell

import (
	"fmt"

	"github.com/libretrack/borrowing-analytics-go/analytics/core"
	"github.com/libretrack/borrowing-analytics-go/recordstore"
)

// BooksFrom maps stored documents to domain books.
// A payload that fails to decode aborts the mapping; a store that hands out
// undecodable documents is corrupt, not partially usable.
func BooksFrom(documents recordstore.StorableDocuments) ([]core.Book, error) {
	books := make([]core.Book, 0, len(documents))

	for _, document := range documents {
		book, err := core.BookFromJSON(document.PayloadJSON)
		if err != nil {
			return nil, fmt.Errorf("decoding book document %q: %w", document.ID, err)
		}

		books = append(books, book)
	}

	return books, nil
}

// UsersFrom maps stored documents to domain users.
func UsersFrom(documents recordstore.StorableDocuments) ([]core.User, error) {
	users := make([]core.User, 0, len(documents))

	for _, document := range documents {
		user, err := core.UserFromJSON(document.PayloadJSON)
		if err != nil {
			return nil, fmt.Errorf("decoding user document %q: %w", document.ID, err)
		}

		users = append(users, user)
	}

	return users, nil
}

// BorrowRecordsFrom maps stored documents to domain borrow records.
func BorrowRecordsFrom(documents recordstore.StorableDocuments) ([]core.BorrowRecord, error) {
	records := make([]core.BorrowRecord, 0, len(documents))

	for _, document := range documents {
		record, err := core.BorrowRecordFromJSON(document.PayloadJSON)
		if err != nil {
			return nil, fmt.Errorf("decoding borrow record document %q: %w", document.ID, err)
		}

		records = append(records, record)
	}

	return records, nil
}
