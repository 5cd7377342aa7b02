// Package userborrowedbooks implements the User Borrowed Books query use case.
//
// For one user and an inclusive time window, the query lists the distinct
// books the user borrowed inside the window, alongside the number of matching
// borrow records. The two figures diverge on purpose: the count is a loan
// count, the list is a title list.
package userborrowedbooks
