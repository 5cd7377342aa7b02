package shell

import (
	"context"

	"github.com/libretrack/borrowing-analytics-go/analytics/core"
	"github.com/libretrack/borrowing-analytics-go/recordstore"
)

// CatalogLookup resolves books and users against the record store. Every
// feature materializes its joins through it. Absence is reported through the
// return values, never as an error: a dangling reference means "skip this
// row" at the join points, not a failed call.
type CatalogLookup struct {
	store ReadsRecords
}

// NewCatalogLookup creates a CatalogLookup reading through the given store.
func NewCatalogLookup(store ReadsRecords) CatalogLookup {
	return CatalogLookup{store: store}
}

// FindBook resolves one book by id. The boolean result reports existence.
func (cl CatalogLookup) FindBook(ctx context.Context, bookID string) (core.Book, bool, error) {
	document, found, err := cl.store.GetByID(ctx, core.CollectionBooks, bookID)
	if err != nil {
		return core.Book{}, false, err
	}

	if !found {
		return core.Book{}, false, nil
	}

	book, decodeErr := core.BookFromJSON(document.PayloadJSON)
	if decodeErr != nil {
		return core.Book{}, false, decodeErr
	}

	return book, true, nil
}

// FindUsers batch-resolves users by id with a single store read. Ids without
// a matching user are simply absent from the result map.
func (cl CatalogLookup) FindUsers(ctx context.Context, userIDs []string) (map[string]core.User, error) {
	resolved := make(map[string]core.User, len(userIDs))

	if len(userIDs) == 0 {
		return resolved, nil
	}

	documents, err := cl.store.Find(ctx, core.CollectionUsers, idFilter(userIDs))
	if err != nil {
		return nil, err
	}

	users, mapErr := UsersFrom(documents)
	if mapErr != nil {
		return nil, mapErr
	}

	for _, user := range users {
		resolved[user.ID] = user
	}

	return resolved, nil
}

// FindBooks batch-resolves books by id with a single store read. Ids without
// a matching book are simply absent from the result map.
func (cl CatalogLookup) FindBooks(ctx context.Context, bookIDs []string) (map[string]core.Book, error) {
	resolved := make(map[string]core.Book, len(bookIDs))

	if len(bookIDs) == 0 {
		return resolved, nil
	}

	documents, err := cl.store.Find(ctx, core.CollectionBooks, idFilter(bookIDs))
	if err != nil {
		return nil, err
	}

	books, mapErr := BooksFrom(documents)
	if mapErr != nil {
		return nil, mapErr
	}

	for _, book := range books {
		resolved[book.ID] = book
	}

	return resolved, nil
}

func idFilter(ids []string) recordstore.Filter {
	predicates := make([]recordstore.FilterPredicate, 0, len(ids))
	for _, id := range ids {
		predicates = append(predicates, recordstore.P(core.FieldID, id))
	}

	return recordstore.BuildRecordFilter().
		Matching().
		AnyPredicateOf(predicates[0], predicates[1:]...).
		Finalize()
}
