package preprocess

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/goseq/frame"
)

// ErrNotFitted is returned when a transformer is used before Fit.
var ErrNotFitted = errors.New("transformer is not fitted")

// StandardScaler standardizes columns to zero mean and unit variance using
// the population statistics of the fitting rows. Columns with zero variance
// are only centred.
type StandardScaler struct {
	Columns  []string  `json:"columns"`
	Mean     []float64 `json:"mean"`
	Variance []float64 `json:"variance"`
	Scale    []float64 `json:"scale"`
	Samples  int       `json:"n_samples"`
}

// Fit computes mean and variance of columns over the first rows rows of f.
// Missing values are ignored.
func (s *StandardScaler) Fit(f *frame.Frame, columns []string, rows int) error {
	if rows <= 0 || rows > f.Len() {
		return fmt.Errorf("scaler fit rows %d out of range (0, %d]", rows, f.Len())
	}

	mean := make([]float64, len(columns))
	variance := make([]float64, len(columns))
	scale := make([]float64, len(columns))

	for j, name := range columns {
		values, err := f.Float(name)
		if err != nil {
			return fmt.Errorf("scaler fit: %w", err)
		}
		sample := make([]float64, 0, rows)
		for _, v := range values[:rows] {
			if !math.IsNaN(v) {
				sample = append(sample, v)
			}
		}
		if len(sample) == 0 {
			return fmt.Errorf("scaler fit: column %q has no observed values in the fitting rows", name)
		}
		mean[j], variance[j] = stat.PopMeanVariance(sample, nil)
		scale[j] = math.Sqrt(variance[j])
		if scale[j] == 0 {
			scale[j] = 1
		}
	}

	s.Columns = append([]string(nil), columns...)
	s.Mean = mean
	s.Variance = variance
	s.Scale = scale
	s.Samples = rows
	return nil
}

// Transform returns a frame with every fitted column standardized.
func (s *StandardScaler) Transform(f *frame.Frame) (*frame.Frame, error) {
	if s.Scale == nil {
		return nil, ErrNotFitted
	}
	out := f
	for j, name := range s.Columns {
		values, err := f.Float(name)
		if err != nil {
			return nil, fmt.Errorf("scaler transform: %w", err)
		}
		scaled := make([]float64, len(values))
		for i, v := range values {
			scaled[i] = (v - s.Mean[j]) / s.Scale[j]
		}
		if out, err = out.WithFloat(name, scaled); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// InverseTransform returns a frame with every fitted column mapped back to
// its original units.
func (s *StandardScaler) InverseTransform(f *frame.Frame) (*frame.Frame, error) {
	if s.Scale == nil {
		return nil, ErrNotFitted
	}
	out := f
	for _, name := range s.Columns {
		values, err := f.Float(name)
		if err != nil {
			return nil, fmt.Errorf("scaler inverse transform: %w", err)
		}
		restored, err := s.InverseColumn(name, values)
		if err != nil {
			return nil, err
		}
		if out, err = out.WithFloat(name, restored); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// InverseColumn maps scaled values of one fitted column back to original units.
func (s *StandardScaler) InverseColumn(name string, values []float64) ([]float64, error) {
	j := s.index(name)
	if j < 0 {
		return nil, fmt.Errorf("scaler has no column %q", name)
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v*s.Scale[j] + s.Mean[j]
	}
	return out, nil
}

func (s *StandardScaler) index(name string) int {
	for j, c := range s.Columns {
		if c == name {
			return j
		}
	}
	return -1
}

// FitRows returns the number of leading rows of an n-row table that fall in
// the fitting (training) part for ratio.
func FitRows(n int, ratio float64) int {
	rows := int(math.Floor(ratio*float64(n) + 1e-9))
	if rows < 0 {
		return 0
	}
	if rows > n {
		return n
	}
	return rows
}
