package bookcopiesstatus

// BookCopiesStatus represents the query result: the copy counts of one book.
// AvailableCopies is TotalCopies minus BorrowedCopies and may be negative;
// it is surfaced as computed, never clamped.
type BookCopiesStatus struct {
	BookID          string
	TotalCopies     int
	BorrowedCopies  int
	AvailableCopies int
}
