package preprocess

import (
	"fmt"
	"sort"

	"github.com/sartorproj/goseq/frame"
)

// OneHotEncoder replaces every text column with one 0/1 column per
// category. Categories whose relative frequency is below MinRelOccurrence
// are not given a column; rows holding them (or a missing value) encode
// as all zeros.
type OneHotEncoder struct {
	MinRelOccurrence float64             `json:"min_rel_occurrence"`
	Columns          []string            `json:"columns"`    // encoded columns in fit order
	Categories       map[string][]string `json:"categories"` // column -> kept categories, sorted
}

// NewOneHotEncoder returns an unfitted encoder.
func NewOneHotEncoder(minRelOccurrence float64) *OneHotEncoder {
	return &OneHotEncoder{
		MinRelOccurrence: minRelOccurrence,
		Categories:       make(map[string][]string),
	}
}

// Fit selects the categories of every text column of f.
func (e *OneHotEncoder) Fit(f *frame.Frame) error {
	if e.MinRelOccurrence < 0 || e.MinRelOccurrence > 1 {
		return fmt.Errorf("min relative occurrence %v out of range [0, 1]", e.MinRelOccurrence)
	}

	columns := f.TextColumns()
	categories := make(map[string][]string, len(columns))
	n := float64(f.Len())

	for _, name := range columns {
		values, err := f.Text(name)
		if err != nil {
			return err
		}
		counts := make(map[string]int)
		for _, v := range values {
			if v != "" {
				counts[v]++
			}
		}
		kept := make([]string, 0, len(counts))
		for category, count := range counts {
			if n > 0 && float64(count)/n >= e.MinRelOccurrence {
				kept = append(kept, category)
			}
		}
		sort.Strings(kept)
		categories[name] = kept
	}

	e.Columns = columns
	e.Categories = categories
	return nil
}

// Transform returns a frame where each fitted text column is replaced by
// its one-hot columns, appended after the existing columns.
func (e *OneHotEncoder) Transform(f *frame.Frame) (*frame.Frame, error) {
	out := f
	for _, name := range e.Columns {
		values, err := f.Text(name)
		if err != nil {
			return nil, fmt.Errorf("one-hot encode: %w", err)
		}

		out = out.Drop(name)
		for _, category := range e.Categories[name] {
			col := make([]float64, len(values))
			for i, v := range values {
				if v == category {
					col[i] = 1
				}
			}
			if out, err = out.WithFloat(ColumnName(name, category), col); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// NewColumns returns the one-hot column names that replace column name.
func (e *OneHotEncoder) NewColumns(name string) ([]string, bool) {
	categories, ok := e.Categories[name]
	if !ok {
		return nil, false
	}
	out := make([]string, len(categories))
	for i, category := range categories {
		out[i] = ColumnName(name, category)
	}
	return out, true
}

// ExpandFeatures rewrites a feature list, replacing every encoded column by
// its one-hot columns.
func (e *OneHotEncoder) ExpandFeatures(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if cols, ok := e.NewColumns(name); ok {
			out = append(out, cols...)
		} else {
			out = append(out, name)
		}
	}
	return out
}

// ColumnName returns the name of the one-hot column for a category.
func ColumnName(column, category string) string {
	return column + "_" + category
}
