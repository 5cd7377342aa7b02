// Package shell contains the infrastructure seam between the pure analytics
// core and the record store: the read contract the features consume, the
// mapping from stored documents to domain values, the shared catalog lookup,
// the failure taxonomy, and the observability helpers the query handlers
// instrument themselves with.
package shell
