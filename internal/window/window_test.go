package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const minStart = "18000101"

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		end   string
		years int
		want  string
	}{
		{name: "plain ten year window", end: "20260121", years: 10, want: "20160121"},
		{name: "leap day falls back to day 28", end: "20240229", years: 10, want: "20140228"},
		{name: "leap day lands on leap year", end: "20240229", years: 4, want: "20200229"},
		{name: "clamped to minimum start", end: "18050101", years: 10, want: "18000101"},
		{name: "end at minimum start", end: "18000101", years: 10, want: "18000101"},
		{name: "unparseable end collapses to minimum", end: "not-a-date", years: 10, want: minStart},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := New(tt.end, tt.years, minStart)
			require.Equal(t, tt.want, got.Start)
			require.Equal(t, tt.end, got.End)
		})
	}
}

func TestNewStartNeverAfterEnd(t *testing.T) {
	t.Parallel()

	for _, end := range []string{"20260121", "20240229", "18010615", "19000301"} {
		win := New(end, 10, minStart)
		start, err := time.Parse(DateLayout, win.Start)
		require.NoError(t, err)
		endT, err := time.Parse(DateLayout, win.End)
		require.NoError(t, err)
		require.False(t, start.After(endT), "window %+v", win)
	}
}

func TestNewYearDistanceUnlessClamped(t *testing.T) {
	t.Parallel()

	win := New("20260121", 10, minStart)
	start, err := time.Parse(DateLayout, win.Start)
	require.NoError(t, err)
	endT, err := time.Parse(DateLayout, win.End)
	require.NoError(t, err)
	require.Equal(t, 10, endT.Year()-start.Year())
}
