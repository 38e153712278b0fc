package preprocess

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/goseq/frame"
)

// TemporalMode selects the calendar key a temporal encoding is built on.
type TemporalMode string

const (
	Hours    TemporalMode = "hours"
	Months   TemporalMode = "months"
	Seasons  TemporalMode = "seasons"
	Weekdays TemporalMode = "weekdays"
	Holidays TemporalMode = "holidays"
)

// DefaultHolidays are the fixed-date holidays (MM-DD) used by the holidays mode.
var DefaultHolidays = []string{"01-01", "05-01", "12-24", "12-25", "12-26", "12-31"}

// ErrNoTime is returned when a temporal encoding is applied to a frame
// without a time column.
var ErrNoTime = errors.New("frame has no time column")

// TemporalEncoding maps the calendar key of every row (hour of day, month,
// season, weekday, or holiday flag) to the mean target value observed for
// that key on the fitting rows. Keys never seen while fitting map to
// Default, the overall mean of the fitting rows.
type TemporalEncoding struct {
	Mode     TemporalMode    `json:"mode"`
	Values   map[int]float64 `json:"values"`
	Default  float64         `json:"default"`
	Holidays []string        `json:"holidays,omitempty"`
}

// ParseTemporalMode validates a mode name.
func ParseTemporalMode(s string) (TemporalMode, error) {
	switch m := TemporalMode(s); m {
	case Hours, Months, Seasons, Weekdays, Holidays:
		return m, nil
	}
	return "", fmt.Errorf("unknown temporal encoding mode %q", s)
}

// TemporalColumn returns the name of the column a mode adds.
func TemporalColumn(mode TemporalMode) string {
	return "temporal_encoding_" + string(mode)
}

// FitTemporal fits an encoding of target over the first rows rows of f.
// holidays is only used by the holidays mode; nil selects DefaultHolidays.
func FitTemporal(f *frame.Frame, target string, mode TemporalMode, rows int, holidays []string) (*TemporalEncoding, error) {
	if _, err := ParseTemporalMode(string(mode)); err != nil {
		return nil, err
	}
	if !f.HasTime() {
		return nil, ErrNoTime
	}
	if rows <= 0 || rows > f.Len() {
		return nil, fmt.Errorf("temporal encoding fit rows %d out of range (0, %d]", rows, f.Len())
	}
	values, err := f.Float(target)
	if err != nil {
		return nil, fmt.Errorf("temporal encoding: %w", err)
	}

	enc := &TemporalEncoding{Mode: mode, Values: make(map[int]float64)}
	if mode == Holidays {
		if holidays == nil {
			holidays = DefaultHolidays
		}
		enc.Holidays = append([]string(nil), holidays...)
		sort.Strings(enc.Holidays)
	}

	groups := make(map[int][]float64)
	var all []float64
	times := f.Times()
	for i := 0; i < rows; i++ {
		if math.IsNaN(values[i]) {
			continue
		}
		key := enc.key(times[i])
		groups[key] = append(groups[key], values[i])
		all = append(all, values[i])
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("temporal encoding: target %q has no observed values in the fitting rows", target)
	}

	enc.Default = stat.Mean(all, nil)
	for key, group := range groups {
		enc.Values[key] = stat.Mean(group, nil)
	}
	return enc, nil
}

// Column returns the name of the column the encoding adds.
func (e *TemporalEncoding) Column() string {
	return TemporalColumn(e.Mode)
}

// Transform returns f with the encoding column added.
func (e *TemporalEncoding) Transform(f *frame.Frame) (*frame.Frame, error) {
	if !f.HasTime() {
		return nil, ErrNoTime
	}
	col := make([]float64, f.Len())
	for i, ts := range f.Times() {
		if v, ok := e.Values[e.key(ts)]; ok {
			col[i] = v
		} else {
			col[i] = e.Default
		}
	}
	return f.WithFloat(e.Column(), col)
}

func (e *TemporalEncoding) key(ts time.Time) int {
	switch e.Mode {
	case Hours:
		return ts.Hour()
	case Months:
		return int(ts.Month())
	case Seasons:
		// 0 winter (Dec-Feb), 1 spring, 2 summer, 3 autumn
		return int(ts.Month()) % 12 / 3
	case Weekdays:
		return int(ts.Weekday())
	case Holidays:
		day := ts.Format("01-02")
		i := sort.SearchStrings(e.Holidays, day)
		if i < len(e.Holidays) && e.Holidays[i] == day {
			return 1
		}
		return 0
	}
	return 0
}
