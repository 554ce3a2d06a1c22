package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/ontomap/errors"
)

func TestOpen(t *testing.T) {
	t.Run("opens database with pragmas", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "cache.db")

		db, err := Open(dbPath, zaptest.NewLogger(t).Sugar())
		require.NoError(t, err)
		defer db.Close()

		var journalMode string
		require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
		assert.Equal(t, "wal", journalMode)

		var foreignKeys int
		require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys))
		assert.Equal(t, 1, foreignKeys)

		var busyTimeout int
		require.NoError(t, db.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout))
		assert.Equal(t, SQLiteBusyTimeoutMS, busyTimeout)

		_, err = os.Stat(dbPath)
		assert.NoError(t, err)
	})

	t.Run("returns error for invalid path", func(t *testing.T) {
		db, err := Open("/invalid/nonexistent/path/cache.db", nil)
		if err == nil && db != nil {
			err = db.Ping()
			db.Close()
		}
		assert.Error(t, err)
	})
}

func TestOpenWithMigrations(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cache.db")

	db, err := OpenWithMigrations(dbPath, nil)
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"schema_migrations", "ontology_cache"} {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "table %s should exist", table)
	}

	var applied int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied))
	assert.Equal(t, 2, applied)
}

func TestMigrate_Idempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cache.db")

	db, err := OpenWithMigrations(dbPath, nil)
	require.NoError(t, err)
	require.NoError(t, Migrate(db, zaptest.NewLogger(t).Sugar()))
	db.Close()

	// Reopening must not re-apply anything
	db, err = OpenWithMigrations(dbPath, nil)
	require.NoError(t, err)
	defer db.Close()

	var applied int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied))
	assert.Equal(t, 2, applied)
}

func TestMigrate_BeginFailure(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectQuery("SELECT EXISTS").WithArgs("000").WillReturnError(errors.New("no such table: schema_migrations"))
	mock.ExpectBegin().WillReturnError(errors.New("disk I/O error"))

	err = Migrate(mockDB, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin tx for 000_create_schema_migrations.sql")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_MissingTable(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectQuery("SELECT EXISTS").WithArgs("000").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("SELECT EXISTS").WithArgs("001").WillReturnError(errors.New("no such table: schema_migrations"))

	err = Migrate(mockDB, zaptest.NewLogger(t).Sugar())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema_migrations missing before 001_create_ontology_cache.sql")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsDatabaseClosed(t *testing.T) {
	assert.False(t, IsDatabaseClosed(nil))
	assert.True(t, IsDatabaseClosed(errors.Wrap(ErrDatabaseClosed, "list cache")))
	assert.True(t, IsDatabaseClosed(errors.New("sql: database is closed")))
	assert.False(t, IsDatabaseClosed(errors.New("no such table")))

	dbPath := filepath.Join(t.TempDir(), "cache.db")
	db, err := Open(dbPath, nil)
	require.NoError(t, err)
	db.Close()
	_, err = db.Exec("SELECT 1")
	assert.True(t, IsDatabaseClosed(err))
}
