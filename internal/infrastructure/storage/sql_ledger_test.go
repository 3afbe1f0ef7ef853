package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BillsMonitor/internal/domain"
)

func TestPostgresLedgerLoad(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT bill_id FROM seen_bills").
		WillReturnRows(sqlmock.NewRows([]string{"bill_id"}).AddRow("57001").AddRow("57002"))

	got, err := NewPostgresLedger(db).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"57001", "57002"}, got.IDs())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLedgerLoadError(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT bill_id FROM seen_bills").WillReturnError(errors.New("connection refused"))

	got, err := NewPostgresLedger(db).Load(context.Background())
	require.Error(t, err)
	assert.Zero(t, got.Len())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLedgerSave(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM seen_bills").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO seen_bills \(bill_id\) VALUES \(\$1\),\(\$2\)`).
		WithArgs("57001", "57002").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err = NewPostgresLedger(db).Save(context.Background(), domain.NewSeenSet("57002", "57001"))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLedgerSaveRollsBack(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM seen_bills").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO seen_bills").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err = NewPostgresLedger(db).Save(context.Background(), domain.NewSeenSet("57001"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteLedgerRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ledger := NewSQLiteLedger(db)
	require.NoError(t, ledger.EnsureSchema(ctx))
	require.NoError(t, ledger.EnsureSchema(ctx))

	empty, err := ledger.Load(ctx)
	require.NoError(t, err)
	assert.Zero(t, empty.Len())

	ids := make([]string, 0, insertBatchSize+3)
	for i := 0; i < insertBatchSize+3; i++ {
		ids = append(ids, fmt.Sprintf("bill-%04d", i))
	}
	want := domain.NewSeenSet(ids...)
	require.NoError(t, ledger.Save(ctx, want))

	got, err := ledger.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, ledger.Save(ctx, domain.NewSeenSet("only")))
	got, err = ledger.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, got.IDs())
}
