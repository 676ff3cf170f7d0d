package logging

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestPostgresDialect(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS dispatch_outcomes")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	store, err := newSQLStore(db, postgresDialect)
	require.NoError(t, err)

	at := time.Unix(1_700_000_000, 0).UTC()
	rec := LogRecord{ID: "o1", Timestamp: at, DeviceID: "cover.garage", Value: 1}
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO dispatch_outcomes (ts, device_id, failed, record) VALUES ($1, $2, $3, $4)")).
		WithArgs(at.UnixNano(), "cover.garage", false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, store.Append(context.Background(), rec))

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT record FROM dispatch_outcomes WHERE 1=1 AND device_id = $1 AND failed = $2 ORDER BY ts")).
		WithArgs("cover.garage", true).
		WillReturnRows(sqlmock.NewRows([]string{"record"}).AddRow(string(data)))
	out, err := store.Query(context.Background(), LogQuery{DeviceID: "cover.garage", FailedOnly: true})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "o1", out[0].ID)

	mock.ExpectClose()
	require.NoError(t, store.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_SchemaFailureClosesDB(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectExec("CREATE TABLE").WillReturnError(context.DeadlineExceeded)
	mock.ExpectClose()
	_, err = newSQLStore(db, postgresDialect)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.NoError(t, mock.ExpectationsWereMet())
}
