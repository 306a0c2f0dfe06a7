package store

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bexardata/deedcrawler/internal/records"
)

func newMockGateway(t *testing.T) (*Postgres, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresWithPool(mock, zap.NewNop()), mock
}

func TestEnsureSchemaCreatesTable(t *testing.T) {
	t.Parallel()

	gw, mock := newMockGateway(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS land_records").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, gw.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertBatchEmptyIsNoOp(t *testing.T) {
	t.Parallel()

	gw, mock := newMockGateway(t)

	inserted, err := gw.UpsertBatch(context.Background(), nil)
	require.NoError(t, err)
	require.Zero(t, inserted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertBatchInsertsRecords(t *testing.T) {
	t.Parallel()

	gw, mock := newMockGateway(t)

	rec := records.DeedRecord{
		Grantor:          "SMITH JOHN",
		Grantee:          "DOE JANE",
		DocType:          "DEED",
		RecordedDate:     "01/21/2026",
		DocNumber:        "20260012345",
		BookVolumePage:   "BK 12345 PG 678",
		LegalDescription: "LOT 4 BLK 2",
		Lot:              "4",
		Block:            "2",
		NCB:              "11000",
		CountyBlock:      "CB 4321",
		PropertyAddress:  "123 MAIN ST",
	}
	recorded := time.Date(2026, time.January, 21, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO land_records").
		WithArgs(
			rec.DocNumber, rec.Grantor, rec.Grantee, rec.DocType, recorded,
			rec.BookVolumePage, rec.LegalDescription, rec.Lot, rec.Block,
			rec.NCB, rec.CountyBlock, rec.PropertyAddress,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	inserted, err := gw.UpsertBatch(context.Background(), []records.DeedRecord{rec})
	require.NoError(t, err)
	require.EqualValues(t, 1, inserted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertBatchStoresNullForBadDate(t *testing.T) {
	t.Parallel()

	gw, mock := newMockGateway(t)

	rec := records.DeedRecord{DocNumber: "2026001", RecordedDate: "N/A"}
	mock.ExpectExec("INSERT INTO land_records").
		WithArgs(
			rec.DocNumber, "", "", "", nil,
			"", "", "", "",
			"", "", "",
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	inserted, err := gw.UpsertBatch(context.Background(), []records.DeedRecord{rec})
	require.NoError(t, err)
	require.EqualValues(t, 1, inserted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertBatchConflictsAreSkipped(t *testing.T) {
	t.Parallel()

	gw, mock := newMockGateway(t)

	rec := records.DeedRecord{DocNumber: "2026001"}
	// Resubmitting an already-persisted record inserts nothing.
	mock.ExpectExec("INSERT INTO land_records").
		WithArgs(
			rec.DocNumber, "", "", "", nil,
			"", "", "", "",
			"", "", "",
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	inserted, err := gw.UpsertBatch(context.Background(), []records.DeedRecord{rec})
	require.NoError(t, err)
	require.Zero(t, inserted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsReportsCountAndOldestDate(t *testing.T) {
	t.Parallel()

	gw, mock := newMockGateway(t)

	oldest := time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\), MIN\\(recorded_date\\) FROM land_records").
		WillReturnRows(pgxmock.NewRows([]string{"count", "min"}).AddRow(int64(9600), &oldest))

	st, err := gw.Stats(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 9600, st.RecordCount)
	require.Equal(t, "20230601", st.OldestRecordedDate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsEmptyStore(t *testing.T) {
	t.Parallel()

	gw, mock := newMockGateway(t)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\), MIN\\(recorded_date\\) FROM land_records").
		WillReturnRows(pgxmock.NewRows([]string{"count", "min"}).AddRow(int64(0), (*time.Time)(nil)))

	st, err := gw.Stats(context.Background())
	require.NoError(t, err)
	require.Zero(t, st.RecordCount)
	require.Empty(t, st.OldestRecordedDate)
	require.NoError(t, mock.ExpectationsWereMet())
}
