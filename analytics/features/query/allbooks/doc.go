// Package allbooks implements the All Books query use case: a plain catalog
// listing used by clients to discover book identifiers before issuing the
// analytical queries.
package allbooks
