package shell

import (
	"context"

	"github.com/libretrack/borrowing-analytics-go/recordstore"
)

// ReadsRecords defines the interface the analytics features need from a
// record store engine. Both the Postgres and the MongoDB engine satisfy it;
// the features never see which one is wired in. All reads observe the
// caller's cancellation and deadline through the context.
type ReadsRecords interface {
	GetByID(ctx context.Context, collection string, id string) (recordstore.StorableDocument, bool, error)

	Find(ctx context.Context, collection string, filter recordstore.Filter) (recordstore.StorableDocuments, error)

	FindDistinct(ctx context.Context, collection string, field string, filter recordstore.Filter) ([]string, error)

	AggregateGroupCount(
		ctx context.Context,
		collection string,
		groupField string,
		distinctField string,
		filter recordstore.Filter,
	) (recordstore.GroupCounts, error)
}

// Query represents the contract for all query types of the analytics engine.
// Each query encapsulates the parameters of one read-only operation; the
// QueryType method feeds observability labels and log attributes.
type Query interface {
	QueryType() string
}

// QueryHandler defines the contract for components that process queries and
// return derived views. The generic parameters Q and R ensure type safety
// between queries and their corresponding results. Implementations handle
// infrastructure concerns while delegating the actual computation to pure
// projection functions.
type QueryHandler[Q Query, R any] interface {
	Handle(ctx context.Context, query Q) (R, error)
}
