package catalog

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupMockStore backs the store with the MySQL dialector over sqlmock so
// the tests can assert the statements sent to the production dialect.
func setupMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      conn,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return NewStore(db), mock
}

func TestAddQuarantinedReplicasSQL(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `quarantined_replicas`").
		WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectCommit()

	err := store.AddQuarantinedReplicas(context.Background(), "TEST_DATADISK", []Replica{
		{Scope: "scope", Name: "dark1", Path: "scope/dark1"},
		{Scope: "scope", Name: "dark2", Path: "scope/dark2"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeclareBadReplicasSQL(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `bad_replicas`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := store.DeclareBadReplicas(context.Background(), "TEST_DATADISK", []Replica{
		{Scope: "scope", Name: "lost", Path: "scope/lost"},
	}, "Reported by Auditor")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeclareBadReplicasSQLError(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `bad_replicas`").
		WillReturnError(gorm.ErrInvalidTransaction)
	mock.ExpectRollback()

	err := store.DeclareBadReplicas(context.Background(), "TEST_DATADISK", []Replica{
		{Scope: "scope", Name: "lost", Path: "scope/lost"},
	}, "Reported by Auditor")
	assert.Error(t, err)
}
