// Package postgresengine provides a PostgreSQL-backed implementation of the
// record store read contract defined in the recordstore package.
//
// Documents are stored as JSONB payloads in a single table with a collection
// discriminator column and a monotonically increasing position column that
// preserves insertion order. Filters translate to JSONB containment checks
// (payload @> ...) so that equality predicates can use a GIN index, while
// time-range predicates cast the addressed payload field to timestamptz.
//
// The engine supports three database access layers through a small internal
// adapter abstraction: pgx pools, database/sql, and sqlx. Construction happens
// through NewDocumentStoreFromPGXPool, NewDocumentStoreFromSQLDB, or
// NewDocumentStoreFromSQLX, each accepting functional options for the table
// name, logging, metrics, and tracing.
package postgresengine
