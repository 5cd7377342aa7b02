// Package recordstore defines the store-agnostic read contract used by the
// borrowing-analytics engine.
//
// Records (books, users, borrow records) are handled as StorableDocument
// DTOs built on scalars, so the contract stays agnostic of both the concrete
// database and the domain types in client code. Filtering is expressed with
// a fluent FilterBuilder which DB type-specific engines translate into their
// own query language, e.g.: Postgres, MongoDB, ...
//
// The package also defines the dependency-free observability interfaces
// (Logger, ContextualLogger, MetricsCollector, TracingCollector) implemented
// by whatever backend the embedding application uses.
package recordstore
