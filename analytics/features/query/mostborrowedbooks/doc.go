// Package mostborrowedbooks implements the Most Borrowed Books query use case.
//
// The query ranks books by how often they were borrowed, optionally inside a
// time window, and attaches the distinct borrowers of each book. Grouping is
// pushed into the record store; resolving books and borrowers then costs one
// batched read each, independent of the number of ranked books.
package mostborrowedbooks
