package checkpoint

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const defaultEnd = "20260121"

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	s := NewFileStore(filepath.Join(t.TempDir(), "scraper_state.json"), defaultEnd)
	s.now = func() time.Time { return time.Date(2026, time.January, 22, 3, 4, 5, 0, time.UTC) }
	return s
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	t.Parallel()

	st := newTestStore(t).Load()
	require.Equal(t, defaultEnd, st.EndDate)
	require.Zero(t, st.Offset)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	require.NoError(t, s.Save("20230601", 4750))

	st := s.Load()
	require.Equal(t, "20230601", st.EndDate)
	require.Equal(t, 4750, st.Offset)
	require.Equal(t, "2026-01-22 03:04:05", st.LastUpdated)
}

func TestSaveOverwritesPreviousState(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	require.NoError(t, s.Save("20230601", 250))
	require.NoError(t, s.Save("20230601", 500))

	st := s.Load()
	require.Equal(t, 500, st.Offset)
}

func TestLoadCorruptFileYieldsDefaults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "{{{"},
		{name: "empty end date", body: `{"current_end_date":"","current_offset":250}`},
		{name: "negative offset", body: `{"current_end_date":"20230601","current_offset":-1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := newTestStore(t)
			require.NoError(t, os.WriteFile(s.path, []byte(tt.body), 0o644))

			st := s.Load()
			require.Equal(t, defaultEnd, st.EndDate)
			require.Zero(t, st.Offset)
		})
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	require.NoError(t, s.Save("20230601", 250))

	entries, err := os.ReadDir(filepath.Dir(s.path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, filepath.Base(s.path), entries[0].Name())
}
