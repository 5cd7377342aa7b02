package recordstore

import (
	"encoding/json"
	"errors"
)

var ErrInvalidPayloadJSON = errors.New("payload json is not valid")
var ErrEmptyCollectionSupplied = errors.New("empty collection name supplied")

// StorableDocuments is an alias type for a slice of StorableDocument.
type StorableDocuments = []StorableDocument

// StorableDocument is a DTO (data transfer object) used by the record store to
// insert documents and query them back.
//
// It is built on scalars to be completely agnostic of the implementation of the
// domain records in the client code.
//
// While its properties are exported, it should only be constructed with the
// supplied factory method BuildStorableDocument.
type StorableDocument struct {
	Collection  string
	ID          string
	PayloadJSON []byte
}

// BuildStorableDocument is a factory method for StorableDocument.
//
// It populates the StorableDocument with the given scalar input.
// Returns an error if the collection is empty or payloadJSON is not valid JSON.
func BuildStorableDocument(collection string, id string, payloadJSON []byte) (StorableDocument, error) {
	if collection == "" {
		return StorableDocument{}, ErrEmptyCollectionSupplied
	}

	if !json.Valid(payloadJSON) {
		return StorableDocument{}, ErrInvalidPayloadJSON
	}

	return StorableDocument{
		Collection:  collection,
		ID:          id,
		PayloadJSON: payloadJSON,
	}, nil
}

// GroupCounts is an alias type for a slice of GroupCount.
type GroupCounts = []GroupCount

// GroupCount is one group produced by an AggregateGroupCount read: the grouping
// key, the number of documents in the group, and the distinct values of a
// second field collected over the group.
//
// Engines return groups in no particular order; callers sort afterward.
type GroupCount struct {
	Key            string
	Count          int
	DistinctValues []string
}
