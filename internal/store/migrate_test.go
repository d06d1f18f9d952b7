package store

import (
	"context"
	"regexp"
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestMigrate_AppliesPendingFilesInOrder(t *testing.T) {
	db, mock, _ := newMockDBAndStore(t)
	defer db.Close()

	files := fstest.MapFS{
		"migrations/000002_second.up.sql": {Data: []byte("CREATE TABLE second (id INT);")},
		"migrations/000001_first.up.sql":  {Data: []byte("CREATE TABLE first (id INT);")},
		"migrations/README.md":            {Data: []byte("ignored")},
	}

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS schema_migrations`)).WillReturnResult(sqlmock.NewResult(0, 0))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS`)).WithArgs("000001_first.up.sql").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS`)).WithArgs("000002_second.up.sql").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE second`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO schema_migrations`)).WithArgs("000002_second.up.sql").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, migrate(context.Background(), db, files, "migrations"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_EmbeddedFilesPresent(t *testing.T) {
	entries, err := migrationFiles.ReadDir("migrations")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "000001_create_products.up.sql", entries[0].Name())
	require.Equal(t, "000002_create_users.up.sql", entries[1].Name())
}
