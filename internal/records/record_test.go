package records

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFromRowMapsAllColumns(t *testing.T) {
	t.Parallel()

	row := CellMap{
		"col-3":  "SMITH JOHN",
		"col-4":  "DOE JANE",
		"col-5":  "DEED",
		"col-6":  "01/21/2026",
		"col-7":  "20260012345",
		"col-8":  "BK 12345 PG 678",
		"col-9":  "LOT 4 BLK 2 NCB 11000",
		"col-10": "4",
		"col-11": "2",
		"col-12": "11000",
		"col-13": "CB 4321",
		"col-14": "123 MAIN ST",
	}

	rec := FromRow(row)
	require.Equal(t, "SMITH JOHN", rec.Grantor)
	require.Equal(t, "DOE JANE", rec.Grantee)
	require.Equal(t, "DEED", rec.DocType)
	require.Equal(t, "01/21/2026", rec.RecordedDate)
	require.Equal(t, "20260012345", rec.DocNumber)
	require.Equal(t, "BK 12345 PG 678", rec.BookVolumePage)
	require.Equal(t, "LOT 4 BLK 2 NCB 11000", rec.LegalDescription)
	require.Equal(t, "4", rec.Lot)
	require.Equal(t, "2", rec.Block)
	require.Equal(t, "11000", rec.NCB)
	require.Equal(t, "CB 4321", rec.CountyBlock)
	require.Equal(t, "123 MAIN ST", rec.PropertyAddress)
	require.True(t, rec.Valid())
}

func TestFromRowMissingCellsBecomeEmpty(t *testing.T) {
	t.Parallel()

	rec := FromRow(CellMap{"col-7": "2026001"})
	require.Equal(t, "2026001", rec.DocNumber)
	require.Empty(t, rec.Grantor)
	require.Empty(t, rec.PropertyAddress)
	require.True(t, rec.Valid())
}

func TestFromRowTrimsWhitespace(t *testing.T) {
	t.Parallel()

	rec := FromRow(CellMap{"col-3": "  SMITH JOHN \n", "col-7": " 2026001 "})
	require.Equal(t, "SMITH JOHN", rec.Grantor)
	require.Equal(t, "2026001", rec.DocNumber)
}

func TestRecordWithoutDocNumberIsInvalid(t *testing.T) {
	t.Parallel()

	rec := FromRow(CellMap{"col-3": "SMITH JOHN", "col-7": "   "})
	require.False(t, rec.Valid())
}

func TestParseRecordedDate(t *testing.T) {
	t.Parallel()

	got, err := ParseRecordedDate("01/21/2026")
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, time.January, 21, 0, 0, 0, 0, time.UTC), got)

	got, err = ParseRecordedDate(" 12/31/1999 ")
	require.NoError(t, err)
	require.Equal(t, time.Date(1999, time.December, 31, 0, 0, 0, 0, time.UTC), got)
}

func TestParseRecordedDateRejectsGarbage(t *testing.T) {
	t.Parallel()

	for _, text := range []string{"", "N/A", "2026-01-21", "13/45/2026"} {
		_, err := ParseRecordedDate(text)
		require.Error(t, err, "input %q", text)
	}
}
