package preprocess

import (
	"math"
	"strconv"

	"gonum.org/v1/gonum/floats"

	"github.com/sartorproj/goseq/frame"
)

// NaNHandler fills missing values by carrying the last observed value
// forward. Leading gaps, which have no previous observation, take the
// column's fitted fallback: the first value observed during Fit.
type NaNHandler struct {
	Numeric map[string]float64 `json:"numeric"` // fallback per numeric column
	Text    map[string]string  `json:"text"`    // fallback per text column
}

// NewNaNHandler returns an unfitted handler.
func NewNaNHandler() *NaNHandler {
	return &NaNHandler{
		Numeric: make(map[string]float64),
		Text:    make(map[string]string),
	}
}

// Fit records the fallback value of every column in f.
func (h *NaNHandler) Fit(f *frame.Frame) error {
	numeric := make(map[string]float64)
	text := make(map[string]string)

	for _, name := range f.NumericColumns() {
		values, err := f.Float(name)
		if err != nil {
			return err
		}
		fill := 0.0
		for _, v := range values {
			if !math.IsNaN(v) {
				fill = v
				break
			}
		}
		numeric[name] = fill
	}

	for _, name := range f.TextColumns() {
		values, err := f.Text(name)
		if err != nil {
			return err
		}
		fill := ""
		for _, v := range values {
			if v != "" {
				fill = v
				break
			}
		}
		text[name] = fill
	}

	h.Numeric = numeric
	h.Text = text
	return nil
}

// Transform returns a frame with missing values filled. Columns not seen
// during Fit are forward filled only. A column fitted as text that arrives
// as numeric (an all-blank column loads that way) is restored as text first.
func (h *NaNHandler) Transform(f *frame.Frame) (*frame.Frame, error) {
	f, err := h.restoreText(f)
	if err != nil {
		return nil, err
	}
	out := f

	for _, name := range f.NumericColumns() {
		values, _ := f.Float(name)
		if !floats.HasNaN(values) {
			continue
		}
		fallback, ok := h.Numeric[name]
		filled := make([]float64, len(values))
		last, seen := fallback, ok
		for i, v := range values {
			if math.IsNaN(v) {
				if seen {
					filled[i] = last
				} else {
					filled[i] = v
				}
				continue
			}
			filled[i] = v
			last, seen = v, true
		}
		if out, err = out.WithFloat(name, filled); err != nil {
			return nil, err
		}
	}

	for _, name := range f.TextColumns() {
		values, _ := f.Text(name)
		fallback, ok := h.Text[name]
		filled := make([]string, len(values))
		last, seen := fallback, ok
		changed := false
		for i, v := range values {
			if v == "" {
				if seen {
					filled[i] = last
					changed = true
				}
				continue
			}
			filled[i] = v
			last, seen = v, true
		}
		if !changed {
			continue
		}
		if out, err = out.WithText(name, filled); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// restoreText converts fitted text columns that were loaded as numeric back
// to text. Missing values become empty strings.
func (h *NaNHandler) restoreText(f *frame.Frame) (*frame.Frame, error) {
	out := f
	var err error
	for _, name := range f.NumericColumns() {
		if _, ok := h.Text[name]; !ok {
			continue
		}
		values, _ := f.Float(name)
		text := make([]string, len(values))
		for i, v := range values {
			if !math.IsNaN(v) {
				text[i] = strconv.FormatFloat(v, 'f', -1, 64)
			}
		}
		if out, err = out.WithText(name, text); err != nil {
			return nil, err
		}
	}
	return out, nil
}
