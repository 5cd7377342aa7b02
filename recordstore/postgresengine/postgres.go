package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // driver import
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"

	"github.com/libretrack/borrowing-analytics-go/recordstore"
	"github.com/libretrack/borrowing-analytics-go/recordstore/postgresengine/internal/adapters"
)

const (
	defaultTableName             = "documents"
	logMsgBuildSelectQueryFailed = "failed to build select query"
	logMsgDBQueryFailed          = "database query execution failed"
	logMsgCloseRowsFailed        = "failed to close database rows"
	logMsgScanRowFailed          = "failed to scan database row"
	logMsgBuildDocumentFailed    = "failed to build storable document from database row"
	logMsgBuildInsertQueryFailed = "failed to build insert query"
	logMsgDBExecFailed           = "database execution failed during document insert"
	logMsgDecodeDistinctFailed   = "failed to decode distinct aggregate values"
	logMsgQueryCompleted         = "query completed"
	logMsgDocumentsInserted      = "documents inserted"
	logMsgSQLExecuted            = "executed sql for: "
	logMsgOperation              = "recordstore operation: "
	logAttrError                 = "error"
	logAttrQuery                 = "query"
	logAttrCollection            = "collection"
	logAttrDocumentCount         = "document_count"
	logAttrDurationMS            = "duration_ms"
	logActionGetByID             = "get_by_id"
	logActionFind                = "find"
	logActionFindDistinct        = "find_distinct"
	logActionAggregate           = "aggregate_group_count"
	logActionInsert              = "insert"
	colCollection                = "collection"
	colPayload                   = "payload"
	colPosition                  = "position"
	dialectPostgres              = "postgres"
	castJsonb                    = "?::jsonb"
	aliasID                      = "id"
	aliasGroupKey                = "group_key"
	aliasDocCount                = "doc_count"
	aliasDistinctVals            = "distinct_vals"
)

type sqlQueryString = string

// DocumentStore is a Postgres-backed implementation of the record store read
// contract. Every record lives as one JSONB row of a single documents table,
// discriminated by a collection column. It leverages a database adapter and
// supports customizable logging, metrics, tracing and table configuration.
type DocumentStore struct {
	db               adapters.DBAdapter
	tableName        string
	logger           Logger
	contextualLogger ContextualLogger
	metricsCollector MetricsCollector
	tracingCollector TracingCollector
}

// NewDocumentStoreFromPGXPool creates a new DocumentStore using a pgx pool with optional configuration.
func NewDocumentStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (DocumentStore, error) {
	if db == nil {
		return DocumentStore{}, recordstore.ErrNilDatabaseConnection
	}

	return newDocumentStore(adapters.NewPGXAdapter(db), options...)
}

// NewDocumentStoreFromSQLDB creates a new DocumentStore using a sql.DB with optional configuration.
func NewDocumentStoreFromSQLDB(db *sql.DB, options ...Option) (DocumentStore, error) {
	if db == nil {
		return DocumentStore{}, recordstore.ErrNilDatabaseConnection
	}

	return newDocumentStore(adapters.NewSQLAdapter(db), options...)
}

// NewDocumentStoreFromSQLX creates a new DocumentStore using a sqlx.DB with optional configuration.
func NewDocumentStoreFromSQLX(db *sqlx.DB, options ...Option) (DocumentStore, error) {
	if db == nil {
		return DocumentStore{}, recordstore.ErrNilDatabaseConnection
	}

	return newDocumentStore(adapters.NewSQLXAdapter(db), options...)
}

func newDocumentStore(adapter adapters.DBAdapter, options ...Option) (DocumentStore, error) {
	ds := DocumentStore{
		db:        adapter,
		tableName: defaultTableName,
	}

	for _, option := range options {
		if err := option(&ds); err != nil {
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

	filter := recordstore.BuildRecordFilter().
		Matching().
		AnyPredicateOf(recordstore.P(fieldID, id)).
		Finalize()

	selectStmt := ds.
		buildSelectDataset(collection, filter).
		Limit(1)

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		ds.logError(logMsgBuildSelectQueryFailed, logAttrError, toSQLErr.Error())
		return empty, false, errors.Join(recordstore.ErrBuildingQueryFailed, toSQLErr)
	}

	documents, err := ds.queryDocuments(ctx, collection, sqlQuery, logActionGetByID)
	if err != nil {
		return empty, false, err
	}

	if len(documents) == 0 {
		return empty, false, nil
	}

	return documents[0], true, nil
}

// Find retrieves all documents of a collection matching the filter criteria,
// in store insertion order.
func (ds DocumentStore) Find(ctx context.Context, collection string, filter recordstore.Filter) (
	recordstore.StorableDocuments,
	error,
) {

	selectStmt := ds.buildSelectDataset(collection, filter)

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		ds.logError(logMsgBuildSelectQueryFailed, logAttrError, toSQLErr.Error())
		return nil, errors.Join(recordstore.ErrBuildingQueryFailed, toSQLErr)
	}

	return ds.queryDocuments(ctx, collection, sqlQuery, logActionFind)
}

// FindDistinct retrieves the distinct non-null values of one payload field over
// all documents of a collection matching the filter criteria.
func (ds DocumentStore) FindDistinct(ctx context.Context, collection string, field string, filter recordstore.Filter) (
	[]string,
	error,
) {

	selectStmt := goqu.Dialect(dialectPostgres).
		From(ds.tableName).
		Select(goqu.L(payloadField(field)).As(aliasID)).
		Distinct().
		Where(ds.whereExpression(collection, filter)).
		Where(goqu.L(payloadField(field) + " IS NOT NULL"))

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		ds.logError(logMsgBuildSelectQueryFailed, logAttrError, toSQLErr.Error())
		return nil, errors.Join(recordstore.ErrBuildingQueryFailed, toSQLErr)
	}

	start := time.Now()
	ctx, span := ds.startSpan(ctx, logActionFindDistinct, collection)
	rows, queryErr := ds.db.Query(ctx, sqlQuery)
	duration := time.Since(start)
	ds.logQueryWithDuration(sqlQuery, logActionFindDistinct, duration)

	if queryErr != nil {
		ds.finishSpan(span, statusError)
		ds.recordOperation(ctx, logActionFindDistinct, statusError, duration)
		ds.logError(logMsgDBQueryFailed, logAttrError, queryErr.Error(), logAttrQuery, sqlQuery)

		return nil, errors.Join(recordstore.ErrQueryingDocumentsFailed, queryErr)
	}
	defer ds.closeRows(rows)

	values := make([]string, 0)

	for rows.Next() {
		var value string
		if scanErr := rows.Scan(&value); scanErr != nil {
			ds.finishSpan(span, statusError)
			ds.recordOperation(ctx, logActionFindDistinct, statusError, duration)
			ds.logError(logMsgScanRowFailed, logAttrError, scanErr.Error())

			return nil, errors.Join(recordstore.ErrScanningDBRowFailed, scanErr)
		}

		values = append(values, value)
	}

	ds.finishSpan(span, statusSuccess)
	ds.recordOperation(ctx, logActionFindDistinct, statusSuccess, duration)

	return values, nil
}

// AggregateGroupCount groups all documents of a collection matching the filter
// criteria by one payload field and returns, per group, the document count and
// the distinct values of a second payload field. Groups are returned in no
// particular order; callers sort afterward.
func (ds DocumentStore) AggregateGroupCount(
	ctx context.Context,
	collection string,
	groupField string,
	distinctField string,
	filter recordstore.Filter,
) (recordstore.GroupCounts, error) {

	selectStmt := goqu.Dialect(dialectPostgres).
		From(ds.tableName).
		Select(
			goqu.L(payloadField(groupField)).As(aliasGroupKey),
			goqu.COUNT(goqu.Star()).As(aliasDocCount),
			goqu.L("jsonb_agg(DISTINCT "+payloadField(distinctField)+")").As(aliasDistinctVals),
		).
		Where(ds.whereExpression(collection, filter)).
		Where(goqu.L(payloadField(groupField) + " IS NOT NULL")).
		GroupBy(goqu.L(payloadField(groupField)))

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		ds.logError(logMsgBuildSelectQueryFailed, logAttrError, toSQLErr.Error())
		return nil, errors.Join(recordstore.ErrBuildingQueryFailed, toSQLErr)
	}

	start := time.Now()
	ctx, span := ds.startSpan(ctx, logActionAggregate, collection)
	rows, queryErr := ds.db.Query(ctx, sqlQuery)
	duration := time.Since(start)
	ds.logQueryWithDuration(sqlQuery, logActionAggregate, duration)

	if queryErr != nil {
		ds.finishSpan(span, statusError)
		ds.recordOperation(ctx, logActionAggregate, statusError, duration)
		ds.logError(logMsgDBQueryFailed, logAttrError, queryErr.Error(), logAttrQuery, sqlQuery)

		return nil, errors.Join(recordstore.ErrQueryingDocumentsFailed, queryErr)
	}
	defer ds.closeRows(rows)

	groups := make(recordstore.GroupCounts, 0)

	for rows.Next() {
		var (
			key          string
			count        int64
			distinctJSON []byte
		)

		if scanErr := rows.Scan(&key, &count, &distinctJSON); scanErr != nil {
			ds.finishSpan(span, statusError)
			ds.recordOperation(ctx, logActionAggregate, statusError, duration)
			ds.logError(logMsgScanRowFailed, logAttrError, scanErr.Error())

			return nil, errors.Join(recordstore.ErrScanningDBRowFailed, scanErr)
		}

		distinctValues, decodeErr := decodeDistinctValues(distinctJSON)
		if decodeErr != nil {
			ds.finishSpan(span, statusError)
			ds.recordOperation(ctx, logActionAggregate, statusError, duration)
			ds.logError(logMsgDecodeDistinctFailed, logAttrError, decodeErr.Error())

			return nil, errors.Join(recordstore.ErrDecodingGroupCountFailed, decodeErr)
		}

		groups = append(groups, recordstore.GroupCount{
			Key:            key,
			Count:          int(count),
			DistinctValues: distinctValues,
		})
	}

	ds.finishSpan(span, statusSuccess)
	ds.recordOperation(ctx, logActionAggregate, statusSuccess, duration)

	return groups, nil
}

// Insert appends one or multiple documents to the store. It exists for seeding
// and test setup; the analytics engine itself never writes.
func (ds DocumentStore) Insert(ctx context.Context, documents ...recordstore.StorableDocument) error {
	if len(documents) == 0 {
		return nil
	}

	insertStmt := goqu.Dialect(dialectPostgres).
		Insert(ds.tableName).
		Cols(colCollection, colPayload)

	for _, document := range documents {
		insertStmt = insertStmt.Vals(goqu.Vals{document.Collection, goqu.L(castJsonb, string(document.PayloadJSON))})
	}

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		ds.logError(logMsgBuildInsertQueryFailed, logAttrError, toSQLErr.Error(), logAttrDocumentCount, len(documents))
		return errors.Join(recordstore.ErrBuildingQueryFailed, toSQLErr)
	}

	start := time.Now()
	_, execErr := ds.db.Exec(ctx, sqlQuery)
	duration := time.Since(start)
	ds.logQueryWithDuration(sqlQuery, logActionInsert, duration)

	if execErr != nil {
		ds.logError(logMsgDBExecFailed, logAttrError, execErr.Error(), logAttrQuery, sqlQuery)
		return errors.Join(recordstore.ErrInsertingDocumentsFailed, execErr)
	}

	ds.logOperation(
		ctx,
		logMsgDocumentsInserted,
		logAttrDocumentCount, len(documents),
		logAttrDurationMS, ds.durationToMilliseconds(duration))

	return nil
}

/*** query building and row processing ***/

// fieldID is the payload field carrying the document identity.
const fieldID = "Id"

func payloadField(field string) string {
	return fmt.Sprintf("%s->>'%s'", colPayload, field)
}

func (ds DocumentStore) buildSelectDataset(collection string, filter recordstore.Filter) *goqu.SelectDataset {
	return goqu.Dialect(dialectPostgres).
		From(ds.tableName).
		Select(
			goqu.L("COALESCE("+payloadField(fieldID)+", '')").As(aliasID),
			goqu.C(colPayload),
		).
		Where(ds.whereExpression(collection, filter)).
		Order(goqu.I(colPosition).Asc())
}

func (ds DocumentStore) whereExpression(collection string, filter recordstore.Filter) exp.ExpressionList {
	expressions := []goqu.Expression{goqu.Ex{colCollection: collection}}

	itemExpressions := make([]goqu.Expression, 0)

	for _, item := range filter.Items() {
		predicateExpressions := make([]goqu.Expression, 0)

		for _, predicate := range item.Predicates() {
			predicateExpressions = append(predicateExpressions, predicateExpression(predicate))
		}

		if item.AllPredicatesMustMatch() {
			itemExpressions = append(itemExpressions, goqu.And(predicateExpressions...))
		} else {
			itemExpressions = append(itemExpressions, goqu.Or(predicateExpressions...))
		}
	}

	if len(itemExpressions) > 0 {
		expressions = append(expressions, goqu.Or(itemExpressions...))
	}

	timeRange := filter.TimeRange()

	if !timeRange.IsZero() {
		rangedField := fmt.Sprintf("(%s)::timestamptz", payloadField(timeRange.Field()))

		if !timeRange.From().IsZero() {
			expressions = append(
				expressions,
				goqu.L(fmt.Sprintf("%s >= '%s'::timestamptz", rangedField, formatTimestamp(timeRange.From()))),
			)
		}

		if !timeRange.Until().IsZero() {
			expressions = append(
				expressions,
				goqu.L(fmt.Sprintf("%s <= '%s'::timestamptz", rangedField, formatTimestamp(timeRange.Until()))),
			)
		}
	}

	return goqu.And(expressions...)
}

func predicateExpression(predicate recordstore.FilterPredicate) goqu.Expression {
	switch predicate.Operator() {
	case recordstore.OperatorNotEquals:
		return goqu.L(fmt.Sprintf(`NOT (%s @> '{"%s": "%s"}')`, colPayload, predicate.Key(), predicate.Val()))

	case recordstore.OperatorFieldPresent:
		return goqu.L(payloadField(predicate.Key()) + " IS NOT NULL")

	case recordstore.OperatorFieldAbsent:
		return goqu.L(payloadField(predicate.Key()) + " IS NULL")

	default:
		return goqu.L(fmt.Sprintf(`%s @> '{"%s": "%s"}'`, colPayload, predicate.Key(), predicate.Val()))
	}
}

func formatTimestamp(t time.Time) string {
	return recordstore.ToStoredTime(t)
}

func decodeDistinctValues(distinctJSON []byte) ([]string, error) {
	var raw []*string

	if err := jsoniter.Unmarshal(distinctJSON, &raw); err != nil {
		return nil, err
	}

	// jsonb_agg yields a null entry for documents lacking the field; drop them.
	values := make([]string, 0, len(raw))
	for _, value := range raw {
		if value != nil {
			values = append(values, *value)
		}
	}

	return values, nil
}

func (ds DocumentStore) queryDocuments(
	ctx context.Context,
	collection string,
	sqlQuery sqlQueryString,
	action string,
) (recordstore.StorableDocuments, error) {

	start := time.Now()
	ctx, span := ds.startSpan(ctx, action, collection)
	rows, queryErr := ds.db.Query(ctx, sqlQuery)
	duration := time.Since(start)
	ds.logQueryWithDuration(sqlQuery, action, duration)

	if queryErr != nil {
		ds.finishSpan(span, statusError)
		ds.recordOperation(ctx, action, statusError, duration)
		ds.logError(logMsgDBQueryFailed, logAttrError, queryErr.Error(), logAttrQuery, sqlQuery)

		return nil, errors.Join(recordstore.ErrQueryingDocumentsFailed, queryErr)
	}
	defer ds.closeRows(rows)

	documents := make(recordstore.StorableDocuments, 0)

	for rows.Next() {
		var (
			id      string
			payload []byte
		)

		if scanErr := rows.Scan(&id, &payload); scanErr != nil {
			ds.finishSpan(span, statusError)
			ds.recordOperation(ctx, action, statusError, duration)
			ds.logError(logMsgScanRowFailed, logAttrError, scanErr.Error())

			return nil, errors.Join(recordstore.ErrScanningDBRowFailed, scanErr)
		}

		document, buildErr := recordstore.BuildStorableDocument(collection, id, payload)
		if buildErr != nil {
			ds.finishSpan(span, statusError)
			ds.recordOperation(ctx, action, statusError, duration)
			ds.logError(logMsgBuildDocumentFailed, logAttrError, buildErr.Error(), logAttrCollection, collection)

			return nil, errors.Join(recordstore.ErrBuildingStorableDocumentFailed, buildErr)
		}

		documents = append(documents, document)
	}

	ds.finishSpan(span, statusSuccess)
	ds.recordOperation(ctx, action, statusSuccess, duration)

	ds.logOperation(
		ctx,
		logMsgQueryCompleted,
		logAttrCollection, collection,
		logAttrDocumentCount, len(documents),
		logAttrDurationMS, ds.durationToMilliseconds(duration))

	return documents, nil
}

/*** logging helpers ***/

// logQueryWithDuration logs SQL queries with execution time at debug level if a logger is configured.
func (ds DocumentStore) logQueryWithDuration(sqlQuery string, action string, duration time.Duration) {
	if ds.logger != nil {
		ds.logger.Debug(logMsgSQLExecuted+action, logAttrDurationMS, ds.durationToMilliseconds(duration), logAttrQuery, sqlQuery)
	}
}

// logOperation logs operational information at info level, preferring the
// contextual logger when one is configured so implementations can correlate
// entries with the active trace.
func (ds DocumentStore) logOperation(ctx context.Context, action string, args ...any) {
	if ds.contextualLogger != nil {
		ds.contextualLogger.InfoContext(ctx, logMsgOperation+action, args...)

		return
	}

	if ds.logger != nil {
		ds.logger.Info(logMsgOperation+action, args...)
	}
}

func (ds DocumentStore) logError(msg string, args ...any) {
	if ds.logger != nil {
		ds.logger.Error(msg, args...)
	}
}

// closeRows safely closes database rows and logs any errors.
func (ds DocumentStore) closeRows(rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		if ds.logger != nil {
			ds.logger.Warn(logMsgCloseRowsFailed, logAttrError, closeErr.Error())
		}
	}
}

// durationToMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func (ds DocumentStore) durationToMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
