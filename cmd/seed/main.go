// The seed command populates the configured record store with a deterministic
// demo dataset: five books, five readers, and seventy borrow records spread
// across them, with every third loan already returned. It works against
// either engine through the same configuration as the server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/libretrack/borrowing-analytics-go/analytics/core"
	"github.com/libretrack/borrowing-analytics-go/internal/config"
	"github.com/libretrack/borrowing-analytics-go/internal/wiring"
	"github.com/libretrack/borrowing-analytics-go/recordstore"
	"github.com/libretrack/borrowing-analytics-go/recordstore/zerologadapters"
)

const (
	connectTimeout = 10 * time.Second
	seedTimeout    = 60 * time.Second
	loanPeriodDays = 14
)

func main() {
	configFile := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	zl := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load(*configFile)
	if err != nil {
		zl.Fatal().Err(err).Msg("loading configuration failed")
	}

	connectCtx, cancelConnect := context.WithTimeout(context.Background(), connectTimeout)
	defer cancelConnect()

	store, closeStore, err := wiring.BuildRecordStore(connectCtx, cfg, wiring.EngineOptions{
		Logger: zerologadapters.NewLogger(zl),
	})
	if err != nil {
		zl.Fatal().Err(err).Str("engine", cfg.Store.Engine).Msg("building record store failed")
	}
	defer closeStore()

	ctx, cancel := context.WithTimeout(context.Background(), seedTimeout)
	defer cancel()

	books, users, loans := buildSeedData()

	documents, err := buildDocuments(books, users, loans)
	if err != nil {
		zl.Fatal().Err(err).Msg("building seed documents failed")
	}

	if err := store.Insert(ctx, documents...); err != nil {
		zl.Fatal().Err(err).Msg("inserting seed documents failed")
	}

	zl.Info().
		Int("books", len(books)).
		Int("users", len(users)).
		Int("loans", len(loans)).
		Str("engine", cfg.Store.Engine).
		Msg("seeding completed")
}

// buildSeedData assembles the demo catalog, readers, and a borrow matrix:
// borrowMatrix[u][b] is how many times user u borrowed book b. The matrix
// sums to seventy loans. Timestamps are whole seconds in UTC.
func buildSeedData() ([]core.Book, []core.User, []core.BorrowRecord) {
	books := []core.Book{
		{ID: newID(), Title: "Learning Domain-Driven Design", Author: "Vlad Khononov", Genre: "Software", PublicationYear: 2021, NoOfPages: 320, TotalCopies: 70},
		{ID: newID(), Title: "Implementing Domain-Driven Design", Author: "Vaughn Vernon", Genre: "Software", PublicationYear: 2013, NoOfPages: 612, TotalCopies: 70},
		{ID: newID(), Title: "Designing Data-Intensive Applications", Author: "Martin Kleppmann", Genre: "Software", PublicationYear: 2017, NoOfPages: 590, TotalCopies: 70},
		{ID: newID(), Title: "The Go Programming Language", Author: "Alan Donovan", Genre: "Software", PublicationYear: 2015, NoOfPages: 380, TotalCopies: 70},
		{ID: newID(), Title: "Database Internals", Author: "Alex Petrov", Genre: "Software", PublicationYear: 2019, NoOfPages: 376, TotalCopies: 70},
	}

	users := []core.User{
		{ID: newID(), Name: "Ada Lovelace", Email: "ada@example.org"},
		{ID: newID(), Name: "Grace Hopper", Email: "grace@example.org"},
		{ID: newID(), Name: "Barbara Liskov", Email: "barbara@example.org"},
		{ID: newID(), Name: "Donald Knuth", Email: "donald@example.org"},
		{ID: newID(), Name: "Edsger Dijkstra", Email: "edsger@example.org"},
	}

	borrowMatrix := [5][5]int{
		{3, 1, 4, 1, 5},
		{2, 6, 0, 2, 1},
		{3, 5, 2, 4, 3},
		{1, 2, 1, 3, 2},
		{4, 2, 5, 3, 5},
	}

	baseDate := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	var loans []core.BorrowRecord
	loanIndex := 0

	for userIdx, row := range borrowMatrix {
		for bookIdx, count := range row {
			for i := 0; i < count; i++ {
				borrowDate := baseDate.AddDate(0, 0, loanIndex*3)
				loan := core.BorrowRecord{
					ID:         newID(),
					BookID:     books[bookIdx].ID,
					UserID:     users[userIdx].ID,
					BorrowDate: borrowDate,
					DueDate:    borrowDate.AddDate(0, 0, loanPeriodDays),
				}

				if loanIndex%3 == 0 {
					returnDate := borrowDate.AddDate(0, 0, 2+loanIndex%10)
					loan.ReturnDate = &returnDate
				}

				loans = append(loans, loan)
				loanIndex++
			}
		}
	}

	return books, users, loans
}

func buildDocuments(books []core.Book, users []core.User, loans []core.BorrowRecord) ([]recordstore.StorableDocument, error) {
	documents := make([]recordstore.StorableDocument, 0, len(books)+len(users)+len(loans))

	for _, book := range books {
		document, err := storableDocumentFor(core.CollectionBooks, book.ID, book)
		if err != nil {
			return nil, err
		}
		documents = append(documents, document)
	}

	for _, user := range users {
		document, err := storableDocumentFor(core.CollectionUsers, user.ID, user)
		if err != nil {
			return nil, err
		}
		documents = append(documents, document)
	}

	for _, loan := range loans {
		document, err := storableDocumentFor(core.CollectionBorrowRecords, loan.ID, loan)
		if err != nil {
			return nil, err
		}
		documents = append(documents, document)
	}

	return documents, nil
}

type jsonSerializable interface {
	ToJSON() ([]byte, error)
}

func storableDocumentFor(collection string, id string, entity jsonSerializable) (recordstore.StorableDocument, error) {
	payload, err := entity.ToJSON()
	if err != nil {
		return recordstore.StorableDocument{}, fmt.Errorf("serializing %s %s: %w", collection, id, err)
	}

	document, err := recordstore.BuildStorableDocument(collection, id, payload)
	if err != nil {
		return recordstore.StorableDocument{}, fmt.Errorf("building document for %s %s: %w", collection, id, err)
	}

	return document, nil
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}
