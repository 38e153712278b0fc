package sequence

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/sartorproj/goseq/frame"
)

// PredictionRow pairs one table row with its true target and every
// prediction made for it. Predictions[k] comes from the window whose k-th
// decoder step lands on this row; it is NaN where no such window exists,
// which is always the case for the warm-up rows before the first decoder
// window and for part of the tail.
type PredictionRow struct {
	Time        time.Time
	Truth       float64
	Predictions []float64
}

// AlignPredictions lays out per-window predictions along the table they
// were made from. predictions[i] holds the decoder-step outputs of window
// i, which starts at row i.
func AlignPredictions(times []time.Time, truth []float64, predictions [][]float64, spec WindowSpec) ([]PredictionRow, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	n := len(truth)
	if times != nil && len(times) != n {
		return nil, fmt.Errorf("got %d timestamps for %d rows", len(times), n)
	}
	offsets := spec.DecoderOffsets()
	if windows := spec.Windows(n); len(predictions) > windows {
		return nil, fmt.Errorf("got %d prediction windows, table holds at most %d", len(predictions), windows)
	}
	for i, p := range predictions {
		if len(p) != len(offsets) {
			return nil, fmt.Errorf("window %d: got %d predictions, want %d", i, len(p), len(offsets))
		}
	}

	rows := make([]PredictionRow, n)
	for r := range rows {
		rows[r].Truth = truth[r]
		if times != nil {
			rows[r].Time = times[r]
		}
		rows[r].Predictions = make([]float64, len(offsets))
		for k, off := range offsets {
			w := r - off
			if w >= 0 && w < len(predictions) {
				rows[r].Predictions[k] = predictions[w][k]
			} else {
				rows[r].Predictions[k] = math.NaN()
			}
		}
	}
	return rows, nil
}

// ReportFrame converts aligned rows into a frame with a truth column and
// one prediction_h<k> column per decoder step.
func ReportFrame(rows []PredictionRow, timeColumn string) (*frame.Frame, error) {
	var f *frame.Frame
	if timeColumn != "" {
		times := make([]time.Time, len(rows))
		for i, row := range rows {
			times[i] = row.Time
		}
		f = frame.NewWithTimes(timeColumn, times)
	} else {
		f = frame.New(len(rows))
	}

	truth := make([]float64, len(rows))
	for i, row := range rows {
		truth[i] = row.Truth
	}
	f, err := f.WithFloat("truth", truth)
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return f, nil
	}
	for k := range rows[0].Predictions {
		col := make([]float64, len(rows))
		for i, row := range rows {
			col[i] = row.Predictions[k]
		}
		if f, err = f.WithFloat("prediction_h"+strconv.Itoa(k+1), col); err != nil {
			return nil, err
		}
	}
	return f, nil
}
