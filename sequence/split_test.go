package sequence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func extractIndex(t *testing.T, n, in, out int) (*Bundle, []time.Time) {
	t.Helper()
	f := indexFrame(t, n)
	b, err := Extract(f, []string{"enc"}, []string{"dec"}, "y", WindowSpec{InputLen: in, OutputLen: out})
	require.NoError(t, err)
	return b, f.Times()
}

func TestTrainWindows(t *testing.T) {
	tests := []struct {
		w        int
		ratio    float64
		expected int
	}{
		{86, 0.8, 68},
		{100, 0.7, 70},
		{10, 0.5, 5},
		{3, 1, 3},
		{7, 0.1, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, TrainWindows(tt.w, tt.ratio), "w=%d ratio=%v", tt.w, tt.ratio)
	}
}

func TestSplitByRatio(t *testing.T) {
	b, _ := extractIndex(t, 100, 10, 5)
	require.Equal(t, 86, b.Len())

	p, err := SplitByRatio(b, 0.8)
	require.NoError(t, err)

	assert.Equal(t, 68, p.Train.Len())
	assert.Equal(t, 18, p.Test.Len())
	assert.Equal(t, 68, p.Boundary)
	assert.Equal(t, 80, p.BoundaryRow)

	// Chronological, no shuffling.
	for i := 0; i < p.Train.Len(); i++ {
		assert.Equal(t, i, p.Train.Starts[i])
	}
	assert.Equal(t, 68, p.Test.Starts[0])
	assert.Equal(t, 68.0, p.Test.XEncoder.At(0, 0, 0))
	assert.Equal(t, 10000.0+68+10, p.Test.Y.At(0, 0, 0))
}

func TestSplitByRatioInvalid(t *testing.T) {
	b, _ := extractIndex(t, 30, 3, 2)

	_, err := SplitByRatio(b, 1.5)
	assert.Error(t, err)

	_, err = SplitByRatio(b, -0.2)
	assert.Error(t, err)

	// A ratio of 1 would leave the test set empty.
	_, err = SplitByRatio(b, 1)
	assert.ErrorContains(t, err, "out of range")

	_, err = Split(b, nil, SplitOptions{})
	var missing *MissingSplitCriterionError
	assert.ErrorAs(t, err, &missing)
}

func TestRatioForDate(t *testing.T) {
	_, times := extractIndex(t, 100, 10, 5)

	ratio, err := RatioForDate(times, times[50])
	require.NoError(t, err)
	assert.Equal(t, 0.5, ratio)

	ratio, err = RatioForDate(times, times[99].Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1.0, ratio)

	_, err = RatioForDate(times, times[0])
	var notFound *DateNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.True(t, notFound.Date.Equal(times[0]))

	_, err = RatioForDate(nil, times[10])
	assert.ErrorIs(t, err, ErrNoTimes)
}

func TestSplitByDateAfterLastRow(t *testing.T) {
	b, times := extractIndex(t, 100, 10, 5)

	p, err := Split(b, times, SplitOptions{Date: times[99].Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, 1.0, p.Ratio)
	assert.Equal(t, 86, p.Train.Len())
	assert.Equal(t, 0, p.Test.Len())
}

func TestSplitByDateMatchesRatio(t *testing.T) {
	b, times := extractIndex(t, 100, 10, 5)

	byDate, err := Split(b, times, SplitOptions{Date: times[50]})
	require.NoError(t, err)
	byRatio, err := SplitByRatio(b, 0.5)
	require.NoError(t, err)

	assert.Equal(t, 0.5, byDate.Ratio)
	assert.Equal(t, byRatio.Train.Starts, byDate.Train.Starts)
	assert.Equal(t, byRatio.Test.Starts, byDate.Test.Starts)
	assert.Equal(t, byRatio.Train.XEncoder.Data, byDate.Train.XEncoder.Data)
}

func TestSplitDateTakesPrecedence(t *testing.T) {
	b, times := extractIndex(t, 100, 10, 5)

	p, err := Split(b, times, SplitOptions{Ratio: 0.9, Date: times[50]})
	require.NoError(t, err)
	assert.Equal(t, 0.5, p.Ratio)
	assert.Equal(t, 43, p.Train.Len())
}

func TestSplitMonthFilter(t *testing.T) {
	b, times := extractIndex(t, 365, 1, 1)
	summer := []time.Month{time.June, time.July, time.August}

	all, err := Split(b, times, SplitOptions{Ratio: 0.5})
	require.NoError(t, err)
	p, err := Split(b, times, SplitOptions{Ratio: 0.5, Months: summer})
	require.NoError(t, err)

	assert.Equal(t, all.Boundary, p.Boundary)
	assert.Equal(t, 92, p.Train.Len()+p.Test.Len())

	inSummer := func(m time.Month) bool {
		return m == time.June || m == time.July || m == time.August
	}
	for _, start := range p.Train.Starts {
		assert.True(t, inSummer(times[start].Month()))
		assert.Less(t, start, p.Boundary)
	}
	for _, start := range p.Test.Starts {
		assert.True(t, inSummer(times[start].Month()))
		assert.GreaterOrEqual(t, start, p.Boundary)
	}

	// June 1 through July 1 train, the rest of the summer tests.
	assert.Equal(t, 31, p.Train.Len())
	assert.Equal(t, 61, p.Test.Len())
}

func TestSplitMonthFilterEmpty(t *testing.T) {
	b, times := extractIndex(t, 31, 2, 1)

	p, err := Split(b, times, SplitOptions{Ratio: 0.8, Months: []time.Month{time.June}})
	require.NoError(t, err)

	assert.Equal(t, 0, p.Train.Len())
	assert.Equal(t, 0, p.Test.Len())
	assert.Equal(t, [3]int{0, 2, 1}, p.Train.XEncoder.Shape)
	assert.Empty(t, p.Test.Y.Data)
}

func TestSplitMonthFilterRequiresTimes(t *testing.T) {
	b, _ := extractIndex(t, 31, 2, 1)

	_, err := Split(b, nil, SplitOptions{Ratio: 0.8, Months: []time.Month{time.January}})
	assert.ErrorIs(t, err, ErrNoTimes)
}

func TestSplitPurge(t *testing.T) {
	b, times := extractIndex(t, 100, 10, 5)

	p, err := Split(b, times, SplitOptions{Ratio: 0.8, Purge: true})
	require.NoError(t, err)

	assert.Equal(t, 80, p.BoundaryRow)
	assert.Equal(t, 66, p.Train.Len())
	assert.Equal(t, 18, p.Test.Len())
	for i := 0; i < p.Train.Len(); i++ {
		assert.Less(t, p.Train.LastRow(i), p.BoundaryRow)
	}
}
