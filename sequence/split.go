package sequence

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// MissingSplitCriterionError is returned when neither a split ratio nor a
// split date is given.
type MissingSplitCriterionError struct{}

func (e *MissingSplitCriterionError) Error() string {
	return "split ratio or split date must be set"
}

// DateNotFoundError is returned when no row precedes the split date.
type DateNotFoundError struct {
	Date time.Time
}

func (e *DateNotFoundError) Error() string {
	return fmt.Sprintf("no row precedes split date %s", e.Date.Format(time.RFC3339))
}

// ErrNoTimes is returned when a date split or month filter is requested
// without row timestamps.
var ErrNoTimes = errors.New("row timestamps are required")

// SplitOptions selects how a bundle is partitioned. Date takes precedence
// over Ratio when both are set.
type SplitOptions struct {
	Ratio  float64      // fraction of windows used for training, in (0, 1)
	Date   time.Time    // split at the first row not before Date
	Months []time.Month // keep only windows starting in these months
	Purge  bool         // drop training windows reaching rows at or past the boundary row
}

// Partition is a train/test split of a bundle.
type Partition struct {
	Train *Bundle
	Test  *Bundle

	Ratio       float64 // effective split ratio
	Boundary    int     // first window index of the test part before filtering
	BoundaryRow int     // first table row past the training rows
}

// TrainWindows returns how many of w windows fall in the training part for
// ratio. The count is floor(ratio * w).
func TrainWindows(w int, ratio float64) int {
	n := int(math.Floor(ratio*float64(w) + 1e-9))
	if n < 0 {
		return 0
	}
	if n > w {
		return w
	}
	return n
}

// RatioForDate converts a split date into a split ratio: the number of rows
// strictly before date divided by the number of rows.
func RatioForDate(times []time.Time, date time.Time) (float64, error) {
	if len(times) == 0 {
		return 0, ErrNoTimes
	}
	before := 0
	for _, ts := range times {
		if ts.Before(date) {
			before++
		}
	}
	if before == 0 {
		return 0, &DateNotFoundError{Date: date}
	}
	return float64(before) / float64(len(times)), nil
}

// ValidateRatio checks that an explicit split ratio lies in (0, 1). Ratios
// derived from a date may reach 1 when the date follows every row.
func ValidateRatio(ratio float64) error {
	if ratio <= 0 || ratio >= 1 || math.IsNaN(ratio) {
		return fmt.Errorf("split ratio %v out of range (0, 1)", ratio)
	}
	return nil
}

// SplitByRatio partitions b in order: the first floor(ratio * windows)
// windows train, the remainder test.
func SplitByRatio(b *Bundle, ratio float64) (*Partition, error) {
	return Split(b, nil, SplitOptions{Ratio: ratio})
}

// Split partitions b according to opts. times holds the timestamp of every
// table row and is required for date splits and month filters.
//
// Window order is preserved. The month filter is evaluated on the start row
// of each window and never moves a window across the train/test boundary.
// A filter that matches nothing yields empty bundles, not an error.
func Split(b *Bundle, times []time.Time, opts SplitOptions) (*Partition, error) {
	ratio := opts.Ratio
	if !opts.Date.IsZero() {
		r, err := RatioForDate(times, opts.Date)
		if err != nil {
			return nil, err
		}
		ratio = r
	} else {
		if ratio == 0 {
			return nil, &MissingSplitCriterionError{}
		}
		if err := ValidateRatio(ratio); err != nil {
			return nil, err
		}
	}
	if len(opts.Months) > 0 && len(times) < b.Rows {
		return nil, ErrNoTimes
	}

	boundary := TrainWindows(b.Len(), ratio)
	boundaryRow := int(math.Floor(ratio*float64(b.Rows) + 1e-9))

	months := make(map[time.Month]bool, len(opts.Months))
	for _, m := range opts.Months {
		months[m] = true
	}

	train := make([]int, 0, boundary)
	test := make([]int, 0, b.Len()-boundary)
	for i := 0; i < b.Len(); i++ {
		if len(months) > 0 && !months[times[b.Starts[i]].Month()] {
			continue
		}
		if i < boundary {
			if opts.Purge && b.LastRow(i) >= boundaryRow {
				continue
			}
			train = append(train, i)
		} else {
			test = append(test, i)
		}
	}

	return &Partition{
		Train:       b.Select(train),
		Test:        b.Select(test),
		Ratio:       ratio,
		Boundary:    boundary,
		BoundaryRow: boundaryRow,
	}, nil
}
