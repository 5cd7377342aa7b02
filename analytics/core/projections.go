package core

import "time"

const hoursPerDay = 24

// ReadingRateSample is one per-loan reading-speed estimate: the whole pages of
// a book divided by the whole days the loan was open.
type ReadingRateSample struct {
	UserID      string
	PagesPerDay int
	BorrowDate  time.Time
	ReturnDate  time.Time
}

// ElapsedWholeDays returns the number of whole days between borrowing and
// returning, rounded down. The result is negative when the data violates the
// domain invariant ReturnDate >= BorrowDate; callers treat such samples as
// degenerate.
func ElapsedWholeDays(borrowed time.Time, returned time.Time) int {
	elapsed := returned.Sub(borrowed)
	if elapsed < 0 {
		return -1
	}

	return int(elapsed / (hoursPerDay * time.Hour))
}

// ReadingRateSamples computes one sample per closed loan of a book. Open loans
// contribute nothing. Loans returned within the borrow day, or with a return
// date before the borrow date, cannot yield a meaningful rate; they are
// skipped and counted instead of crashing the computation or dividing by
// zero. The sample order follows the input order.
func ReadingRateSamples(book Book, records []BorrowRecord) (samples []ReadingRateSample, skipped int) {
	samples = make([]ReadingRateSample, 0, len(records))

	for _, record := range records {
		if !record.IsReturned() {
			continue
		}

		elapsedDays := ElapsedWholeDays(record.BorrowDate, *record.ReturnDate)
		if elapsedDays <= 0 {
			skipped++
			continue
		}

		samples = append(samples, ReadingRateSample{
			UserID:      record.UserID,
			PagesPerDay: book.NoOfPages / elapsedDays,
			BorrowDate:  record.BorrowDate,
			ReturnDate:  *record.ReturnDate,
		})
	}

	return samples, skipped
}

// ClosedLoanCount returns how many of the records are closed loans.
func ClosedLoanCount(records []BorrowRecord) int {
	count := 0

	for _, record := range records {
		if record.IsReturned() {
			count++
		}
	}

	return count
}

// DistinctBookIDs returns the distinct BookId values of the records in first
// occurrence order, leaving out the excluded id. Pass an empty string to
// exclude nothing.
func DistinctBookIDs(records []BorrowRecord, exclude string) []string {
	seen := make(map[string]struct{}, len(records))
	ids := make([]string, 0, len(records))

	for _, record := range records {
		if record.BookID == exclude {
			continue
		}

		if _, ok := seen[record.BookID]; ok {
			continue
		}

		seen[record.BookID] = struct{}{}
		ids = append(ids, record.BookID)
	}

	return ids
}

// DistinctUserIDs returns the distinct UserId values of the records in first
// occurrence order.
func DistinctUserIDs(records []BorrowRecord) []string {
	seen := make(map[string]struct{}, len(records))
	ids := make([]string, 0, len(records))

	for _, record := range records {
		if _, ok := seen[record.UserID]; ok {
			continue
		}

		seen[record.UserID] = struct{}{}
		ids = append(ids, record.UserID)
	}

	return ids
}

// GroupByBookID groups records by their BookId.
func GroupByBookID(records []BorrowRecord) map[string][]BorrowRecord {
	groups := make(map[string][]BorrowRecord)

	for _, record := range records {
		groups[record.BookID] = append(groups[record.BookID], record)
	}

	return groups
}

// RecordsOfUser selects the records belonging to one user, preserving order.
func RecordsOfUser(records []BorrowRecord, userID string) []BorrowRecord {
	selected := make([]BorrowRecord, 0)

	for _, record := range records {
		if record.UserID == userID {
			selected = append(selected, record)
		}
	}

	return selected
}
