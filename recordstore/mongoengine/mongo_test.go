package mongoengine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/libretrack/borrowing-analytics-go/recordstore"
	"github.com/libretrack/borrowing-analytics-go/recordstore/mongoengine"
)

func Test_NewDocumentStore_WithNilDatabase_ShouldFail(t *testing.T) {
	_, err := mongoengine.NewDocumentStore(nil)

	assert.ErrorIs(t, err, recordstore.ErrNilDatabaseConnection)
}

func Test_DocumentStore_Find_MapsDocumentsToPayloads(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("find returns matching documents", func(mt *mtest.T) {
		// arrange
		store, err := mongoengine.NewDocumentStore(mt.DB)
		require.NoError(mt.T, err)

		namespace := mt.DB.Name() + ".Books"
		first := mtest.CreateCursorResponse(1, namespace, mtest.FirstBatch,
			bson.D{{Key: "Id", Value: "book-1"}, {Key: "Title", Value: "The Go Programming Language"}})
		second := mtest.CreateCursorResponse(0, namespace, mtest.NextBatch,
			bson.D{{Key: "Id", Value: "book-2"}, {Key: "Title", Value: "Learning Go"}})
		mt.AddMockResponses(first, second)

		filter := recordstore.BuildRecordFilter().MatchingAnyRecord()

		// act
		documents, findErr := store.Find(context.Background(), "Books", filter)

		// assert
		require.NoError(mt.T, findErr)
		require.Len(mt.T, documents, 2)
		assert.Equal(mt.T, "book-1", documents[0].ID)
		assert.Equal(mt.T, "Books", documents[0].Collection)
		assert.JSONEq(mt.T, `{"Id":"book-1","Title":"The Go Programming Language"}`, string(documents[0].PayloadJSON))
		assert.Equal(mt.T, "book-2", documents[1].ID)
	})
}

func Test_DocumentStore_GetByID(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("returns document when one matches", func(mt *mtest.T) {
		// arrange
		store, err := mongoengine.NewDocumentStore(mt.DB)
		require.NoError(mt.T, err)

		namespace := mt.DB.Name() + ".Users"
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace, mtest.FirstBatch,
			bson.D{{Key: "Id", Value: "user-1"}, {Key: "Name", Value: "Ada"}, {Key: "Email", Value: "ada@example.com"}}))

		// act
		document, found, getErr := store.GetByID(context.Background(), "Users", "user-1")

		// assert
		require.NoError(mt.T, getErr)
		require.True(mt.T, found)
		assert.Equal(mt.T, "user-1", document.ID)
		assert.JSONEq(mt.T, `{"Id":"user-1","Name":"Ada","Email":"ada@example.com"}`, string(document.PayloadJSON))
	})

	mt.Run("reports absence without error when nothing matches", func(mt *mtest.T) {
		// arrange
		store, err := mongoengine.NewDocumentStore(mt.DB)
		require.NoError(mt.T, err)

		namespace := mt.DB.Name() + ".Users"
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace, mtest.FirstBatch))

		// act
		_, found, getErr := store.GetByID(context.Background(), "Users", "missing")

		// assert
		require.NoError(mt.T, getErr)
		assert.False(mt.T, found)
	})
}

func Test_DocumentStore_FindDistinct(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("returns distinct string values", func(mt *mtest.T) {
		// arrange
		store, err := mongoengine.NewDocumentStore(mt.DB)
		require.NoError(mt.T, err)

		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "values", Value: bson.A{"book-1", "book-2", "book-3"}}))

		filter := recordstore.BuildRecordFilter().
			Matching().
			AnyPredicateOf(recordstore.P("UserId", "user-1")).
			Finalize()

		// act
		values, findErr := store.FindDistinct(context.Background(), "BorrowedBooks", "BookId", filter)

		// assert
		require.NoError(mt.T, findErr)
		assert.Equal(mt.T, []string{"book-1", "book-2", "book-3"}, values)
	})
}

func Test_DocumentStore_AggregateGroupCount(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("decodes grouped counts with distinct values", func(mt *mtest.T) {
		// arrange
		store, err := mongoengine.NewDocumentStore(mt.DB)
		require.NoError(mt.T, err)

		namespace := mt.DB.Name() + ".BorrowedBooks"
		first := mtest.CreateCursorResponse(1, namespace, mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: "book-1"},
				{Key: "count", Value: 3},
				{Key: "distinct", Value: bson.A{"user-1", "user-2"}},
			})
		second := mtest.CreateCursorResponse(0, namespace, mtest.NextBatch,
			bson.D{
				{Key: "_id", Value: "book-2"},
				{Key: "count", Value: 1},
				{Key: "distinct", Value: bson.A{"user-1"}},
			})
		mt.AddMockResponses(first, second)

		filter := recordstore.BuildRecordFilter().MatchingAnyRecord()

		// act
		groups, aggErr := store.AggregateGroupCount(context.Background(), "BorrowedBooks", "BookId", "UserId", filter)

		// assert
		require.NoError(mt.T, aggErr)
		require.Len(mt.T, groups, 2)
		assert.Equal(mt.T, "book-1", groups[0].Key)
		assert.Equal(mt.T, 3, groups[0].Count)
		assert.Equal(mt.T, []string{"user-1", "user-2"}, groups[0].DistinctValues)
	})
}

func Test_DocumentStore_Insert_RoundTripsPayloads(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("inserts documents grouped per collection", func(mt *mtest.T) {
		// arrange
		store, err := mongoengine.NewDocumentStore(mt.DB)
		require.NoError(mt.T, err)

		mt.AddMockResponses(mtest.CreateSuccessResponse())

		document, buildErr := recordstore.BuildStorableDocument(
			"Books", "book-1", []byte(`{"Id":"book-1","Title":"Go in Action"}`))
		require.NoError(mt.T, buildErr)

		// act
		insertErr := store.Insert(context.Background(), document)

		// assert
		require.NoError(mt.T, insertErr)
	})
}
