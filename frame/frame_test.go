package frame

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dailyTimes(n int) []time.Time {
	base := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	times := make([]time.Time, n)
	for i := range times {
		times[i] = base.AddDate(0, 0, i)
	}
	return times
}

func TestWithFloatAndText(t *testing.T) {
	f := NewWithTimes("ts", dailyTimes(3))

	g, err := f.WithFloat("load", []float64{1, 2, 3})
	require.NoError(t, err)
	g, err = g.WithText("weather", []string{"sun", "rain", "sun"})
	require.NoError(t, err)

	assert.Equal(t, 3, g.Len())
	assert.Equal(t, []string{"load", "weather"}, g.Columns())
	assert.True(t, g.IsText("weather"))
	assert.Equal(t, []string{"load"}, g.NumericColumns())
	assert.Equal(t, []string{"weather"}, g.TextColumns())

	// The original frame is untouched.
	assert.Empty(t, f.Columns())

	_, err = g.WithFloat("bad", []float64{1})
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestReplaceKeepsOrder(t *testing.T) {
	f := New(2)
	f, _ = f.WithFloat("a", []float64{1, 2})
	f, _ = f.WithText("b", []string{"x", "y"})
	f, _ = f.WithFloat("c", []float64{3, 4})

	g, err := f.WithFloat("b", []float64{0, 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, g.Columns())
	assert.False(t, g.IsText("b"))
	assert.True(t, f.IsText("b"))
}

func TestFloatErrors(t *testing.T) {
	f := New(1)
	f, _ = f.WithText("cat", []string{"a"})

	_, err := f.Float("missing")
	assert.ErrorIs(t, err, ErrColumnNotFound)

	_, err = f.Float("cat")
	assert.Error(t, err)

	_, err = f.Text("missing")
	assert.ErrorIs(t, err, ErrColumnNotFound)
}

func TestDrop(t *testing.T) {
	f := New(1)
	f, _ = f.WithFloat("a", []float64{1})
	f, _ = f.WithFloat("b", []float64{2})
	f, _ = f.WithText("c", []string{"x"})

	g := f.Drop("b", "c", "unknown")
	assert.Equal(t, []string{"a"}, g.Columns())
	assert.Equal(t, []string{"a", "b", "c"}, f.Columns())
}

func TestSlice(t *testing.T) {
	f := NewWithTimes("ts", dailyTimes(5))
	f, _ = f.WithFloat("v", []float64{0, 1, 2, 3, 4})

	tests := []struct {
		name       string
		start, end int
		expected   []float64
	}{
		{"middle", 1, 4, []float64{1, 2, 3}},
		{"clamped", -2, 10, []float64{0, 1, 2, 3, 4}},
		{"empty", 3, 2, []float64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := f.Slice(tt.start, tt.end)
			values, err := s.Float("v")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, values)
			assert.Len(t, s.Times(), len(tt.expected))
		})
	}

	s := f.Slice(0, 2)
	values, _ := s.Float("v")
	values[0] = 100
	orig, _ := f.Float("v")
	assert.Equal(t, 0.0, orig[0], "slice must not share storage")
}

func TestSortByTime(t *testing.T) {
	times := dailyTimes(3)
	f := NewWithTimes("ts", []time.Time{times[2], times[0], times[1]})
	f, _ = f.WithFloat("v", []float64{2, 0, 1})
	f, _ = f.WithText("c", []string{"c", "a", "b"})

	s := f.SortByTime()
	values, _ := s.Float("v")
	text, _ := s.Text("c")
	assert.Equal(t, []float64{0, 1, 2}, values)
	assert.Equal(t, []string{"a", "b", "c"}, text)
	assert.Equal(t, times, s.Times())

	assert.Same(t, s, s.SortByTime())
}

func TestFromRecords(t *testing.T) {
	header := []string{"date / time", "load", "weather", "empty_numeric"}
	records := [][]string{
		{"2021-01-02", "2.5", "rain", ""},
		{"2021-01-01", "1.5", "sun", "NA"},
		{"2021-01-03", "NaN", "", "4"},
		{"", "", "", ""},
	}

	f, err := fromRecords(header, records, "date / time", false)
	require.NoError(t, err)
	require.Equal(t, 3, f.Len())

	load, err := f.Float("load")
	require.NoError(t, err)
	assert.Equal(t, 1.5, load[0])
	assert.Equal(t, 2.5, load[1])
	assert.True(t, math.IsNaN(load[2]))

	weather, err := f.Text("weather")
	require.NoError(t, err)
	assert.Equal(t, []string{"sun", "rain", ""}, weather)

	_, err = f.Float("empty_numeric")
	assert.NoError(t, err)
}

func TestFromRecordsMissingTimeColumn(t *testing.T) {
	_, err := fromRecords([]string{"a"}, [][]string{{"1"}}, "ts", false)
	assert.ErrorIs(t, err, ErrColumnNotFound)
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Time
	}{
		{"iso date", "2021-03-04", time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC)},
		{"date time", "2021-03-04 05:06:07", time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)},
		{"excel serial", "44259", time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC)},
		{"excel serial with time", "44259.25", time.Date(2021, 3, 4, 6, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, err := parseTime(tt.input, false)
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(ts), "got %v", ts)
		})
	}

	_, err := parseTime("yesterday", false)
	assert.Error(t, err)
}
