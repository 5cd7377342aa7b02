// Package core holds the borrowing domain model - books, users, and borrow
// records - together with the pure projection functions the analytics
// features are built from. Nothing in this package performs I/O; everything
// operates on values already fetched from the record store, which keeps the
// computational heart of the engine trivially testable.
package core
