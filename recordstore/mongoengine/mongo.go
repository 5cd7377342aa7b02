package mongoengine

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/libretrack/borrowing-analytics-go/recordstore"
)

const (
	fieldID                 = "Id"
	fieldMongoID            = "_id"
	logMsgQueryFailed       = "mongodb query execution failed"
	logMsgDecodeFailed      = "failed to decode mongodb document"
	logMsgCloseCursorFailed = "failed to close mongodb cursor"
	logMsgInsertFailed      = "mongodb insert failed"
	logMsgOperation         = "recordstore operation: "
	logAttrError            = "error"
	logAttrCollection       = "collection"
	logAttrDocumentCount    = "document_count"
	logAttrDurationMS       = "duration_ms"
	actionGetByID           = "get_by_id"
	actionFind              = "find"
	actionFindDistinct      = "find_distinct"
	actionAggregate         = "aggregate_group_count"
	actionInsert            = "insert"
)

// DocumentStore is a MongoDB-backed implementation of the record store read
// contract. Each record store collection maps directly to a MongoDB collection
// of the configured database, and document payloads are exchanged as extended
// JSON so that callers stay agnostic of BSON.
type DocumentStore struct {
	database         *mongo.Database
	logger           Logger
	contextualLogger ContextualLogger
	metricsCollector MetricsCollector
	tracingCollector TracingCollector
}

// NewDocumentStore creates a new DocumentStore on top of a MongoDB database handle
// with optional configuration.
func NewDocumentStore(database *mongo.Database, opts ...Option) (DocumentStore, error) {
	if database == nil {
		return DocumentStore{}, recordstore.ErrNilDatabaseConnection
	}

	ds := DocumentStore{database: database}

	for _, opt := range opts {
		if err := opt(&ds); err != nil {
			return DocumentStore{}, err
		}
	}

	return ds, nil
}

// GetByID retrieves a single document by its Id payload field.
// The boolean result reports whether a matching document exists.
func (ds DocumentStore) GetByID(ctx context.Context, collection string, id string) (
	recordstore.StorableDocument,
	bool,
	error,
) {

	var empty recordstore.StorableDocument

	start := time.Now()
	ctx, span := ds.startSpan(ctx, actionGetByID, collection)

	findOpts := options.FindOne().SetProjection(bson.M{fieldMongoID: 0})

	var raw bson.Raw
	err := ds.database.Collection(collection).FindOne(ctx, bson.M{fieldID: id}, findOpts).Decode(&raw)

	if errors.Is(err, mongo.ErrNoDocuments) {
		ds.finish(ctx, span, actionGetByID, statusSuccess, start)
		return empty, false, nil
	}

	if err != nil {
		ds.finish(ctx, span, actionGetByID, statusError, start)
		ds.logError(logMsgQueryFailed, logAttrError, err.Error(), logAttrCollection, collection)

		return empty, false, errors.Join(recordstore.ErrQueryingDocumentsFailed, err)
	}

	document, buildErr := ds.documentFromRaw(collection, raw)
	if buildErr != nil {
		ds.finish(ctx, span, actionGetByID, statusError, start)
		return empty, false, buildErr
	}

	ds.finish(ctx, span, actionGetByID, statusSuccess, start)

	return document, true, nil
}

// Find retrieves all documents of a collection matching the filter criteria,
// in store insertion order.
func (ds DocumentStore) Find(ctx context.Context, collection string, filter recordstore.Filter) (
	recordstore.StorableDocuments,
	error,
) {

	start := time.Now()
	ctx, span := ds.startSpan(ctx, actionFind, collection)

	findOpts := options.Find().SetProjection(bson.M{fieldMongoID: 0})

	cursor, err := ds.database.Collection(collection).Find(ctx, buildMongoFilter(filter), findOpts)
	if err != nil {
		ds.finish(ctx, span, actionFind, statusError, start)
		ds.logError(logMsgQueryFailed, logAttrError, err.Error(), logAttrCollection, collection)

		return nil, errors.Join(recordstore.ErrQueryingDocumentsFailed, err)
	}
	defer ds.closeCursor(ctx, cursor)

	documents := make(recordstore.StorableDocuments, 0)

	for cursor.Next(ctx) {
		document, buildErr := ds.documentFromRaw(collection, cursor.Current)
		if buildErr != nil {
			ds.finish(ctx, span, actionFind, statusError, start)
			return nil, buildErr
		}

		documents = append(documents, document)
	}

	if cursorErr := cursor.Err(); cursorErr != nil {
		ds.finish(ctx, span, actionFind, statusError, start)
		ds.logError(logMsgQueryFailed, logAttrError, cursorErr.Error(), logAttrCollection, collection)

		return nil, errors.Join(recordstore.ErrQueryingDocumentsFailed, cursorErr)
	}

	ds.finish(ctx, span, actionFind, statusSuccess, start)
	ds.logOperation(ctx, actionFind, logAttrCollection, collection, logAttrDocumentCount, len(documents))

	return documents, nil
}

// FindDistinct retrieves the distinct non-null values of one payload field over
// all documents of a collection matching the filter criteria.
func (ds DocumentStore) FindDistinct(ctx context.Context, collection string, field string, filter recordstore.Filter) (
	[]string,
	error,
) {

	start := time.Now()
	ctx, span := ds.startSpan(ctx, actionFindDistinct, collection)

	rawValues, err := ds.database.Collection(collection).Distinct(ctx, field, buildMongoFilter(filter))
	if err != nil {
		ds.finish(ctx, span, actionFindDistinct, statusError, start)
		ds.logError(logMsgQueryFailed, logAttrError, err.Error(), logAttrCollection, collection)

		return nil, errors.Join(recordstore.ErrQueryingDocumentsFailed, err)
	}

	values := make([]string, 0, len(rawValues))

	for _, rawValue := range rawValues {
		if value, ok := rawValue.(string); ok {
			values = append(values, value)
		}
	}

	ds.finish(ctx, span, actionFindDistinct, statusSuccess, start)

	return values, nil
}

// AggregateGroupCount groups all documents of a collection matching the filter
// criteria by one payload field and returns, per group, the document count and
// the distinct values of a second payload field.
func (ds DocumentStore) AggregateGroupCount(
	ctx context.Context,
	collection string,
	groupField string,
	distinctField string,
	filter recordstore.Filter,
) (recordstore.GroupCounts, error) {

	start := time.Now()
	ctx, span := ds.startSpan(ctx, actionAggregate, collection)

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: buildMongoFilter(filter)}},
		bson.D{{Key: "$group", Value: bson.M{
			fieldMongoID: "$" + groupField,
			"count":      bson.M{"$sum": 1},
			"distinct":   bson.M{"$addToSet": "$" + distinctField},
		}}},
	}

	cursor, err := ds.database.Collection(collection).Aggregate(ctx, pipeline)
	if err != nil {
		ds.finish(ctx, span, actionAggregate, statusError, start)
		ds.logError(logMsgQueryFailed, logAttrError, err.Error(), logAttrCollection, collection)

		return nil, errors.Join(recordstore.ErrQueryingDocumentsFailed, err)
	}
	defer ds.closeCursor(ctx, cursor)

	groups := make(recordstore.GroupCounts, 0)

	for cursor.Next(ctx) {
		var row struct {
			Key      string   `bson:"_id"`
			Count    int      `bson:"count"`
			Distinct []string `bson:"distinct"`
		}

		if decodeErr := cursor.Decode(&row); decodeErr != nil {
			ds.finish(ctx, span, actionAggregate, statusError, start)
			ds.logError(logMsgDecodeFailed, logAttrError, decodeErr.Error(), logAttrCollection, collection)

			return nil, errors.Join(recordstore.ErrDecodingGroupCountFailed, decodeErr)
		}

		groups = append(groups, recordstore.GroupCount{
			Key:            row.Key,
			Count:          row.Count,
			DistinctValues: row.Distinct,
		})
	}

	if cursorErr := cursor.Err(); cursorErr != nil {
		ds.finish(ctx, span, actionAggregate, statusError, start)
		ds.logError(logMsgQueryFailed, logAttrError, cursorErr.Error(), logAttrCollection, collection)

		return nil, errors.Join(recordstore.ErrQueryingDocumentsFailed, cursorErr)
	}

	ds.finish(ctx, span, actionAggregate, statusSuccess, start)

	return groups, nil
}

// Insert appends one or multiple documents to the store. It exists for seeding
// and test setup; the analytics engine itself never writes.
func (ds DocumentStore) Insert(ctx context.Context, documents ...recordstore.StorableDocument) error {
	if len(documents) == 0 {
		return nil
	}

	byCollection := make(map[string][]any)

	for _, document := range documents {
		var payload bson.M
		if err := bson.UnmarshalExtJSON(document.PayloadJSON, false, &payload); err != nil {
			return errors.Join(recordstore.ErrInsertingDocumentsFailed, err)
		}

		byCollection[document.Collection] = append(byCollection[document.Collection], payload)
	}

	start := time.Now()

	for collection, payloads := range byCollection {
		if _, err := ds.database.Collection(collection).InsertMany(ctx, payloads); err != nil {
			ds.logError(logMsgInsertFailed, logAttrError, err.Error(), logAttrCollection, collection)
			return errors.Join(recordstore.ErrInsertingDocumentsFailed, err)
		}
	}

	ds.logOperation(
		ctx,
		actionInsert,
		logAttrDocumentCount, len(documents),
		logAttrDurationMS, time.Since(start).Milliseconds())

	return nil
}

/*** filter translation ***/

// buildMongoFilter translates a record store filter into a MongoDB filter
// document. Filter items combine with $or, predicates within an item combine
// per the item's matching mode, and a time range becomes a lexicographic
// string comparison which is chronologically correct for the fixed-width
// RFC 3339 UTC timestamps the engines store.
func buildMongoFilter(filter recordstore.Filter) bson.M {
	clauses := make([]bson.M, 0)

	itemClauses := make([]bson.M, 0)

	for _, item := range filter.Items() {
		predicateClauses := make([]bson.M, 0)

		for _, predicate := range item.Predicates() {
			predicateClauses = append(predicateClauses, predicateClause(predicate))
		}

		if len(predicateClauses) == 1 {
			itemClauses = append(itemClauses, predicateClauses[0])
			continue
		}

		if item.AllPredicatesMustMatch() {
			itemClauses = append(itemClauses, bson.M{"$and": predicateClauses})
		} else {
			itemClauses = append(itemClauses, bson.M{"$or": predicateClauses})
		}
	}

	if len(itemClauses) == 1 {
		clauses = append(clauses, itemClauses[0])
	} else if len(itemClauses) > 1 {
		clauses = append(clauses, bson.M{"$or": itemClauses})
	}

	timeRange := filter.TimeRange()

	if !timeRange.IsZero() {
		rangeClause := bson.M{}

		if !timeRange.From().IsZero() {
			rangeClause["$gte"] = recordstore.ToStoredTime(timeRange.From())
		}

		if !timeRange.Until().IsZero() {
			rangeClause["$lte"] = recordstore.ToStoredTime(timeRange.Until())
		}

		clauses = append(clauses, bson.M{timeRange.Field(): rangeClause})
	}

	switch len(clauses) {
	case 0:
		return bson.M{}
	case 1:
		return clauses[0]
	default:
		return bson.M{"$and": clauses}
	}
}

func predicateClause(predicate recordstore.FilterPredicate) bson.M {
	switch predicate.Operator() {
	case recordstore.OperatorNotEquals:
		return bson.M{predicate.Key(): bson.M{"$ne": predicate.Val()}}

	case recordstore.OperatorFieldPresent:
		return bson.M{predicate.Key(): bson.M{"$exists": true}}

	case recordstore.OperatorFieldAbsent:
		return bson.M{predicate.Key(): bson.M{"$exists": false}}

	default:
		return bson.M{predicate.Key(): predicate.Val()}
	}
}

/*** row processing and helpers ***/

func (ds DocumentStore) documentFromRaw(collection string, raw bson.Raw) (recordstore.StorableDocument, error) {
	var empty recordstore.StorableDocument

	id := ""
	if idValue, lookupErr := raw.LookupErr(fieldID); lookupErr == nil {
		id, _ = idValue.StringValueOK()
	}

	payloadJSON, marshalErr := bson.MarshalExtJSON(raw, false, false)
	if marshalErr != nil {
		ds.logError(logMsgDecodeFailed, logAttrError, marshalErr.Error(), logAttrCollection, collection)
		return empty, errors.Join(recordstore.ErrBuildingStorableDocumentFailed, marshalErr)
	}

	document, buildErr := recordstore.BuildStorableDocument(collection, id, payloadJSON)
	if buildErr != nil {
		ds.logError(logMsgDecodeFailed, logAttrError, buildErr.Error(), logAttrCollection, collection)
		return empty, errors.Join(recordstore.ErrBuildingStorableDocumentFailed, buildErr)
	}

	return document, nil
}

func (ds DocumentStore) closeCursor(ctx context.Context, cursor *mongo.Cursor) {
	if closeErr := cursor.Close(ctx); closeErr != nil {
		if ds.logger != nil {
			ds.logger.Warn(logMsgCloseCursorFailed, logAttrError, closeErr.Error())
		}
	}
}

func (ds DocumentStore) logError(msg string, args ...any) {
	if ds.logger != nil {
		ds.logger.Error(msg, args...)
	}
}

func (ds DocumentStore) logOperation(ctx context.Context, action string, args ...any) {
	if ds.contextualLogger != nil {
		ds.contextualLogger.InfoContext(ctx, logMsgOperation+action, args...)

		return
	}

	if ds.logger != nil {
		ds.logger.Info(logMsgOperation+action, args...)
	}
}
