// Package bookreadingrate implements the Book Reading Rate query use case.
//
// For one book, the query derives a pages-per-day estimate from every closed
// loan: the book's page count divided by the whole days between borrowing
// and returning, using integer division. Loans that cannot yield a rate -
// same-day returns or inverted date pairs - are skipped and counted, and the
// call fails with an invalid-state error only when no closed loan at all
// survives that policy.
package bookreadingrate
