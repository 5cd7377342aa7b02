// Package otherbooksborrowed implements the Other Books Borrowed query use
// case: for one target book, what else have the people who borrowed it been
// reading.
//
// The handler discovers the co-borrowers, batch-fetches their users, their
// other-book borrow records, and the referenced books in three sequential
// reads, then assembles each borrower's grouped history in parallel over a
// bounded worker pool. The call is atomic: any store failure or cancellation
// aborts the whole query, and the merged result is handed out either complete
// or not at all.
package otherbooksborrowed
