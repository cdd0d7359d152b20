package idmap_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sabercon-migrate/internal/idmap"
)

func TestMemory_PutGet(t *testing.T) {
	ctx := context.Background()
	var s idmap.Memory

	_, ok, err := s.Get(ctx, "user", "1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(ctx, "user", "1", "u-1"))
	// same pair again is a no-op
	require.NoError(t, s.Put(ctx, "user", "1", "u-1"))

	id, ok, err := s.Get(ctx, "user", "1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "u-1", id)

	// tables are separate namespaces
	_, ok, _ = s.Get(ctx, "certificate", "1")
	assert.False(t, ok)

	all, err := s.All(ctx, "user")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"1": "u-1"}, all)
}

func TestMemory_Conflict(t *testing.T) {
	ctx := context.Background()
	s := idmap.NewMemory()
	require.NoError(t, s.Put(ctx, "user", "1", "u-1"))

	err := s.Put(ctx, "user", "1", "u-2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, idmap.ErrMappingConflict))

	var ce *idmap.ConflictError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "user", ce.Table)
	assert.Equal(t, "1", ce.SourceID)
	assert.Equal(t, "u-1", ce.Existing)
	assert.Equal(t, "u-2", ce.Attempted)

	id, _, _ := s.Get(ctx, "user", "1")
	assert.Equal(t, "u-1", id, "conflicting put must not overwrite")
}

func TestMemory_AllReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := idmap.NewMemory()
	require.NoError(t, s.Put(ctx, "role", "1", "r-1"))

	all, err := s.All(ctx, "role")
	require.NoError(t, err)
	all["2"] = "r-2"

	_, ok, _ := s.Get(ctx, "role", "2")
	assert.False(t, ok)

	n, err := s.Delete(ctx, "role")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, ok, _ = s.Get(ctx, "role", "1")
	assert.False(t, ok)
}

func TestSQLStore_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	query := regexp.QuoteMeta(`SELECT target_id FROM "sabercon_id_mappings" WHERE table_name = $1 AND source_id = $2`)
	mock.ExpectQuery(query).WithArgs("user", "7").
		WillReturnRows(sqlmock.NewRows([]string{"target_id"}).AddRow("u-7"))
	mock.ExpectQuery(query).WithArgs("user", "8").
		WillReturnRows(sqlmock.NewRows([]string{"target_id"}))

	s := idmap.NewSQLStore(db, "")
	id, ok, err := s.Get(context.Background(), "user", "7")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "u-7", id)

	_, ok, err = s.Get(context.Background(), "user", "8")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_Put(t *testing.T) {
	insert := regexp.QuoteMeta(`INSERT INTO "sabercon_id_mappings" (table_name, source_id, target_id) VALUES ($1, $2, $3) ON CONFLICT (table_name, source_id) DO NOTHING`)
	lookup := regexp.QuoteMeta(`SELECT target_id FROM "sabercon_id_mappings" WHERE table_name = $1 AND source_id = $2`)

	t.Run("new mapping", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(insert).WithArgs("user", "1", "u-1").WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, idmap.NewSQLStore(db, "").Put(context.Background(), "user", "1", "u-1"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("same mapping again", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(insert).WithArgs("user", "1", "u-1").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(lookup).WithArgs("user", "1").
			WillReturnRows(sqlmock.NewRows([]string{"target_id"}).AddRow("u-1"))

		require.NoError(t, idmap.NewSQLStore(db, "").Put(context.Background(), "user", "1", "u-1"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("conflicting mapping", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(insert).WithArgs("user", "1", "u-2").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(lookup).WithArgs("user", "1").
			WillReturnRows(sqlmock.NewRows([]string{"target_id"}).AddRow("u-1"))

		err = idmap.NewSQLStore(db, "").Put(context.Background(), "user", "1", "u-2")
		require.Error(t, err)
		assert.ErrorIs(t, err, idmap.ErrMappingConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("driver failure", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(insert).WillReturnError(errors.New("connection reset"))

		err = idmap.NewSQLStore(db, "").Put(context.Background(), "user", "1", "u-1")
		require.Error(t, err)
		assert.NotErrorIs(t, err, idmap.ErrMappingConflict)
	})
}

func TestSQLStore_AllDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT source_id, target_id FROM "legacy_map" WHERE table_name = $1`)).
		WithArgs("role").
		WillReturnRows(sqlmock.NewRows([]string{"source_id", "target_id"}).AddRow("1", "r-1").AddRow("2", "r-2"))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "legacy_map" WHERE table_name = $1`)).
		WithArgs("role").
		WillReturnResult(sqlmock.NewResult(0, 2))

	s := idmap.NewSQLStore(db, "legacy_map")
	ctx := context.Background()

	all, err := s.All(ctx, "role")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"1": "r-1", "2": "r-2"}, all)

	n, err := s.Delete(ctx, "role")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_EnsureTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "legacy_map"`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, idmap.NewSQLStore(db, "legacy_map").EnsureTable(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

type countingStore struct {
	idmap.Memory
	gets int
	alls int
}

func (c *countingStore) Get(ctx context.Context, table, sourceID string) (string, bool, error) {
	c.gets++
	return c.Memory.Get(ctx, table, sourceID)
}

func (c *countingStore) All(ctx context.Context, table string) (map[string]string, error) {
	c.alls++
	return c.Memory.All(ctx, table)
}

func TestIndex(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{}
	require.NoError(t, store.Put(ctx, "user", "1", "u-1"))
	require.NoError(t, store.Put(ctx, "user", "2", "u-2"))

	x := idmap.NewIndex(store)

	// not loaded: read through
	id, ok, err := x.Lookup(ctx, "user", "1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "u-1", id)
	assert.Equal(t, 1, store.gets)

	require.NoError(t, x.Load(ctx, "user"))
	assert.True(t, x.Loaded("user"))
	assert.Equal(t, 2, x.Len("user"))

	_, ok, err = x.Lookup(ctx, "user", "3")
	require.NoError(t, err)
	assert.False(t, ok)

	x.Remember("user", "3", "u-3")
	id, ok, _ = x.Lookup(ctx, "user", "3")
	assert.True(t, ok)
	assert.Equal(t, "u-3", id)
	assert.Equal(t, 1, store.gets, "loaded tables are served from the cache")
	assert.Equal(t, 1, store.alls)
}
