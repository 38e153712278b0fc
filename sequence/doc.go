// Package sequence provides window extraction and train/test splitting for
// sequence-to-sequence models.
//
// # Extracting Windows
//
// Every start row t with t+InputLen+OutputLen <= N yields one window:
//
//	rows [t, t+InputLen)                     encoder inputs
//	rows [t+InputLen, t+InputLen+OutputLen)  decoder inputs and targets
//	row  t+InputLen-1                        YLast, the last known target
//
// YShifted holds the targets moved one decoder step back, as used for
// teacher forcing.
//
//	spec := sequence.WindowSpec{InputLen: 168, OutputLen: 24}
//	b, err := sequence.Extract(f, encoderCols, decoderCols, "load", spec)
//	// b.XEncoder.Shape == [3]int{N-191, 168, len(encoderCols)}
//
// A table shorter than InputLen+OutputLen yields an InsufficientDataError.
//
// # Splitting
//
// Splits are chronological and never shuffle windows:
//
//	p, err := sequence.SplitByRatio(b, 0.8)
//
//	p, err := sequence.Split(b, f.Times(), sequence.SplitOptions{
//	    Date:   time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC),
//	    Months: []time.Month{time.June, time.July, time.August},
//	})
//
// # Aligning Predictions
//
// AlignPredictions maps per-window model outputs back onto table rows for
// reporting; ReportFrame turns the result into a frame for CSV export.
package sequence
