package mapping

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// passthroughConverter lets slice arguments (used by ResolveAll's ANY($2))
// reach the mock unconverted; the default converter rejects them.
type passthroughConverter struct{}

func (passthroughConverter) ConvertValue(v interface{}) (driver.Value, error) {
	return v, nil
}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.ValueConverterOption(passthroughConverter{}))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := NewStore(db, nil)
	require.NoError(t, err)

	return store, mock
}

func TestNewStore_NilDatabase(t *testing.T) {
	_, err := NewStore(nil, nil)
	assert.Error(t, err)
}

func TestEnsureSchema(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS " + TableName).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.EnsureSchema(context.Background())
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsMigrated(t *testing.T) {
	store, mock := newMockStore(t)

	query := regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM ` + TableName + ` WHERE entity_type = $1 AND source_id = $2)`)

	mock.ExpectQuery(query).
		WithArgs("user", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	migrated, err := store.IsMigrated(context.Background(), "user", "u1")
	require.NoError(t, err)
	assert.True(t, migrated)

	mock.ExpectQuery(query).
		WithArgs("user", "u2").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	migrated, err = store.IsMigrated(context.Background(), "user", "u2")
	require.NoError(t, err)
	assert.False(t, migrated)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecord(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO `+TableName+` (entity_type, source_id, destination_id) VALUES ($1, $2, $3)`)).
		WithArgs("sheet", "s1", int64(42)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := store.Record(context.Background(), storeDB(store), "sheet", "s1", 42)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecord_DuplicateMapping(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO `+TableName)).
		WithArgs("sheet", "s1", int64(42)).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "migration_mappings_entity_source_key"})

	err := store.Record(context.Background(), storeDB(store), "sheet", "s1", 42)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateMapping), "expected ErrDuplicateMapping, got %v", err)
}

func TestRecord_OtherErrorNotDuplicate(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO ` + TableName)).
		WillReturnError(fmt.Errorf("connection reset"))

	err := store.Record(context.Background(), storeDB(store), "sheet", "s1", 42)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrDuplicateMapping))
}

func TestResolve(t *testing.T) {
	store, mock := newMockStore(t)

	query := regexp.QuoteMeta(`SELECT destination_id FROM ` + TableName + ` WHERE entity_type = $1 AND source_id = $2`)

	mock.ExpectQuery(query).
		WithArgs("question", "q1").
		WillReturnRows(sqlmock.NewRows([]string{"destination_id"}).AddRow(int64(7)))

	id, err := store.Resolve(context.Background(), "question", "q1")
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, int64(7), *id)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolve_NoMapping(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT destination_id FROM `+TableName)).
		WithArgs("question", "missing").
		WillReturnError(sql.ErrNoRows)

	id, err := store.Resolve(context.Background(), "question", "missing")
	assert.NoError(t, err, "an unresolved reference is not an error")
	assert.Nil(t, id)
}

func TestResolve_EmptySourceID(t *testing.T) {
	store, mock := newMockStore(t)

	// No query expected: empty IDs short-circuit to nil.
	id, err := store.Resolve(context.Background(), "question", "")
	assert.NoError(t, err)
	assert.Nil(t, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveAll_PreservesOrderAndGaps(t *testing.T) {
	store, mock := newMockStore(t)

	sourceIDs := []string{"t1", "t2", "t3"}

	// t2 has no mapping; rows come back in arbitrary order.
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT source_id, destination_id FROM `+TableName+` WHERE entity_type = $1 AND source_id = ANY($2)`)).
		WithArgs("tag", sourceIDs).
		WillReturnRows(sqlmock.NewRows([]string{"source_id", "destination_id"}).
			AddRow("t3", int64(30)).
			AddRow("t1", int64(10)))

	resolved, err := store.ResolveAll(context.Background(), "tag", sourceIDs)
	require.NoError(t, err)
	require.Len(t, resolved, 3)

	require.NotNil(t, resolved[0])
	assert.Equal(t, int64(10), *resolved[0])
	assert.Nil(t, resolved[1])
	require.NotNil(t, resolved[2])
	assert.Equal(t, int64(30), *resolved[2])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveAll_EmptyInput(t *testing.T) {
	store, mock := newMockStore(t)

	resolved, err := store.ResolveAll(context.Background(), "tag", nil)
	require.NoError(t, err)
	assert.Empty(t, resolved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCount(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM ` + TableName + ` WHERE entity_type = $1`)).
		WithArgs("answer").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1289)))

	count, err := store.Count(context.Background(), "answer")
	require.NoError(t, err)
	assert.Equal(t, int64(1289), count)
}

func TestDeleteAll(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM ` + TableName + ` WHERE entity_type = $1`)).
		WithArgs("sheet").
		WillReturnResult(sqlmock.NewResult(0, 57))

	deleted, err := store.DeleteAll(context.Background(), "sheet")
	require.NoError(t, err)
	assert.Equal(t, int64(57), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// storeDB exposes the store's own handle as a Querier for tests that exercise
// Record outside a transaction.
func storeDB(s *Store) Querier {
	return s.db
}
