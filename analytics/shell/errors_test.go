package shell_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libretrack/borrowing-analytics-go/analytics/core"
	"github.com/libretrack/borrowing-analytics-go/analytics/shell"
	"github.com/libretrack/borrowing-analytics-go/recordstore"
	"github.com/libretrack/borrowing-analytics-go/testutil/helper"
)

func Test_ClassifyStoreError_MapsCancellationToCancelled(t *testing.T) {
	// act
	classified := shell.ClassifyStoreError("SomeQuery", context.Canceled)

	// assert
	assert.ErrorIs(t, classified, shell.ErrCancelled)
	assert.NotErrorIs(t, classified, shell.ErrInternal)
	assert.Contains(t, classified.Error(), "SomeQuery")
}

func Test_ClassifyStoreError_MapsDeadlineToCancelled(t *testing.T) {
	// act
	classified := shell.ClassifyStoreError("SomeQuery", context.DeadlineExceeded)

	// assert
	assert.ErrorIs(t, classified, shell.ErrCancelled)
}

func Test_ClassifyStoreError_MapsEverythingElseToInternal(t *testing.T) {
	// act
	classified := shell.ClassifyStoreError("SomeQuery", errors.New("connection refused"))

	// assert
	assert.ErrorIs(t, classified, shell.ErrInternal)
	assert.Contains(t, classified.Error(), "connection refused")
}

func Test_NotFoundError_NamesTheMissingEntity(t *testing.T) {
	// act
	err := shell.NotFoundError("book", "b-42")

	// assert
	assert.ErrorIs(t, err, shell.ErrNotFound)
	assert.Contains(t, err.Error(), `book "b-42"`)
}

func Test_BorrowRecordsFrom_DecodesStoredDocuments(t *testing.T) {
	// arrange
	bookID := helper.GivenUniqueID(t)
	userID := helper.GivenUniqueID(t)
	loan := helper.FixtureOpenLoan(t, bookID, userID, time.Unix(0, 0).UTC())

	payload, err := loan.ToJSON()
	require.NoError(t, err)

	document, err := recordstore.BuildStorableDocument(core.CollectionBorrowRecords, loan.ID, payload)
	require.NoError(t, err)

	// act
	records, err := shell.BorrowRecordsFrom(recordstore.StorableDocuments{document})

	// assert
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, loan.ID, records[0].ID)
	assert.Equal(t, bookID, records[0].BookID)
	assert.False(t, records[0].IsReturned())
}

func Test_BorrowRecordsFrom_AbortsOnMalformedPayload(t *testing.T) {
	// arrange
	document := recordstore.StorableDocument{
		Collection:  core.CollectionBorrowRecords,
		ID:          "broken",
		PayloadJSON: []byte(`{"BorrowDate": "not a timestamp"}`),
	}

	// act
	_, err := shell.BorrowRecordsFrom(recordstore.StorableDocuments{document})

	// assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}
