package frame

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrColumnNotFound is returned when a named column does not exist.
var ErrColumnNotFound = errors.New("column not found")

// ErrLengthMismatch is returned when a column does not match the frame length.
var ErrLengthMismatch = errors.New("column length does not match frame length")

// Frame is an ordered table of observations. Rows are addressed by their
// position 0..Len()-1; the optional time column holds one timestamp per row.
//
// A Frame is treated as immutable: every method that changes the table
// returns a new Frame. Column slices may be shared between frames, so
// callers must not modify the slices returned by Float, Text, or Times.
type Frame struct {
	TimeColumn string

	n       int
	times   []time.Time
	order   []string
	numeric map[string][]float64
	text    map[string][]string
}

// New creates an empty frame with n rows and no columns.
func New(n int) *Frame {
	return &Frame{
		n:       n,
		numeric: make(map[string][]float64),
		text:    make(map[string][]string),
	}
}

// NewWithTimes creates a frame whose rows are indexed by timestamps.
func NewWithTimes(timeColumn string, times []time.Time) *Frame {
	f := New(len(times))
	f.TimeColumn = timeColumn
	f.times = times
	return f
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return f.n
}

// Times returns the row timestamps, or nil when the frame has no time column.
func (f *Frame) Times() []time.Time {
	return f.times
}

// HasTime reports whether the frame carries a time column.
func (f *Frame) HasTime() bool {
	return f.times != nil
}

// Columns returns the column names in insertion order. The time column is
// not included.
func (f *Frame) Columns() []string {
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// HasColumn reports whether a numeric or text column exists.
func (f *Frame) HasColumn(name string) bool {
	if _, ok := f.numeric[name]; ok {
		return true
	}
	_, ok := f.text[name]
	return ok
}

// IsText reports whether name is a text (categorical) column.
func (f *Frame) IsText(name string) bool {
	_, ok := f.text[name]
	return ok
}

// TextColumns returns the names of all text columns in insertion order.
func (f *Frame) TextColumns() []string {
	var out []string
	for _, name := range f.order {
		if _, ok := f.text[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

// NumericColumns returns the names of all numeric columns in insertion order.
func (f *Frame) NumericColumns() []string {
	var out []string
	for _, name := range f.order {
		if _, ok := f.numeric[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

// Float returns the values of a numeric column.
func (f *Frame) Float(name string) ([]float64, error) {
	values, ok := f.numeric[name]
	if !ok {
		if _, isText := f.text[name]; isText {
			return nil, fmt.Errorf("column %q is not numeric", name)
		}
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	return values, nil
}

// Text returns the values of a text column.
func (f *Frame) Text(name string) ([]string, error) {
	values, ok := f.text[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	return values, nil
}

// WithFloat returns a new frame with the numeric column set to values.
// An existing column of the same name is replaced in place of the order.
func (f *Frame) WithFloat(name string, values []float64) (*Frame, error) {
	if len(values) != f.n {
		return nil, fmt.Errorf("%w: %q has %d values, want %d", ErrLengthMismatch, name, len(values), f.n)
	}
	out := f.shallow()
	delete(out.text, name)
	if !f.HasColumn(name) {
		out.order = append(out.order, name)
	}
	out.numeric[name] = values
	return out, nil
}

// WithText returns a new frame with the text column set to values.
func (f *Frame) WithText(name string, values []string) (*Frame, error) {
	if len(values) != f.n {
		return nil, fmt.Errorf("%w: %q has %d values, want %d", ErrLengthMismatch, name, len(values), f.n)
	}
	out := f.shallow()
	delete(out.numeric, name)
	if !f.HasColumn(name) {
		out.order = append(out.order, name)
	}
	out.text[name] = values
	return out, nil
}

// Drop returns a new frame without the named columns. Unknown names are ignored.
func (f *Frame) Drop(names ...string) *Frame {
	out := f.shallow()
	drop := make(map[string]bool, len(names))
	for _, name := range names {
		drop[name] = true
		delete(out.numeric, name)
		delete(out.text, name)
	}
	order := out.order[:0:0]
	for _, name := range f.order {
		if !drop[name] {
			order = append(order, name)
		}
	}
	out.order = order
	return out
}

// Slice returns rows [start, end) as a new frame with its own storage.
func (f *Frame) Slice(start, end int) *Frame {
	if start < 0 {
		start = 0
	}
	if end > f.n {
		end = f.n
	}
	if start > end {
		start = end
	}

	out := New(end - start)
	out.TimeColumn = f.TimeColumn
	if f.times != nil {
		out.times = make([]time.Time, end-start)
		copy(out.times, f.times[start:end])
	}
	out.order = f.Columns()
	for name, values := range f.numeric {
		col := make([]float64, end-start)
		copy(col, values[start:end])
		out.numeric[name] = col
	}
	for name, values := range f.text {
		col := make([]string, end-start)
		copy(col, values[start:end])
		out.text[name] = col
	}
	return out
}

// Copy creates a deep copy of the frame.
func (f *Frame) Copy() *Frame {
	return f.Slice(0, f.n)
}

// SortByTime returns the frame ordered chronologically. Frames without a
// time column, or already sorted, are returned unchanged.
func (f *Frame) SortByTime() *Frame {
	if f.times == nil || sort.SliceIsSorted(f.times, func(i, j int) bool { return f.times[i].Before(f.times[j]) }) {
		return f
	}

	idx := make([]int, f.n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool { return f.times[idx[i]].Before(f.times[idx[j]]) })

	out := New(f.n)
	out.TimeColumn = f.TimeColumn
	out.order = f.Columns()
	out.times = make([]time.Time, f.n)
	for i, j := range idx {
		out.times[i] = f.times[j]
	}
	for name, values := range f.numeric {
		col := make([]float64, f.n)
		for i, j := range idx {
			col[i] = values[j]
		}
		out.numeric[name] = col
	}
	for name, values := range f.text {
		col := make([]string, f.n)
		for i, j := range idx {
			col[i] = values[j]
		}
		out.text[name] = col
	}
	return out
}

// shallow copies the frame headers; column slices are shared.
func (f *Frame) shallow() *Frame {
	out := &Frame{
		TimeColumn: f.TimeColumn,
		n:          f.n,
		times:      f.times,
		order:      f.Columns(),
		numeric:    make(map[string][]float64, len(f.numeric)),
		text:       make(map[string][]string, len(f.text)),
	}
	for k, v := range f.numeric {
		out.numeric[k] = v
	}
	for k, v := range f.text {
		out.text[k] = v
	}
	return out
}
