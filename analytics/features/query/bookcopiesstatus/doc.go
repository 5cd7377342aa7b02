// Package bookcopiesstatus implements the Book Copies Status query use case.
//
// The query returns the copy counts of one book: how many copies the library
// owns, how many loans reference the book, and how many copies remain
// available as the difference of the two. The borrowed count deliberately
// includes closed loans, matching the system this engine replaces; the
// availability figure may therefore go negative over a book's lifetime.
package bookcopiesstatus
