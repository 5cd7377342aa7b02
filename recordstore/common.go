package recordstore

import (
	"errors"
)

var ErrEmptyTableNameSupplied = errors.New("empty documents table name supplied")
var ErrEmptyDatabaseNameSupplied = errors.New("empty database name supplied")
var ErrNilDatabaseConnection = errors.New("nil database connection supplied")
var ErrBuildingQueryFailed = errors.New("building the query failed")
var ErrQueryingDocumentsFailed = errors.New("querying documents failed")
var ErrScanningDBRowFailed = errors.New("scanning database row failed")
var ErrBuildingStorableDocumentFailed = errors.New("building storable document from database row failed")
var ErrInsertingDocumentsFailed = errors.New("inserting documents failed")
var ErrDecodingGroupCountFailed = errors.New("decoding group count row failed")
