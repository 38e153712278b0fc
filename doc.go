// Package goseq prepares tabular time series for sequence-to-sequence
// (encoder/decoder) forecasting models.
//
// GoSeq loads raw observations from a spreadsheet, fills missing values,
// encodes categorical and calendar features, standardizes numeric columns,
// and slices the result into aligned encoder, decoder, and target windows.
// The fitted state of every step is saved to a directory so that the exact
// same transformation can be replayed on new data at inference time.
//
// # Features
//
//   - Window extraction with encoder/decoder strides and teacher-forcing targets
//   - Chronological train/test splits by ratio or date, with month filters
//   - Missing value imputation (forward fill with fitted fallbacks)
//   - One-hot encoding with a minimum relative category frequency
//   - Target-mean encodings of hours, months, seasons, weekdays, and holidays
//   - Standard scaling fitted on the training rows only
//   - Portable JSON configuration with bit-for-bit replay
//
// # Quick Start
//
// Process a table and split the windows:
//
//	raw, _ := frame.Load("load.xlsx", frame.FormatXLSX, frame.LoadOptions{TimeColumn: "date / time"})
//	res, _ := dataset.Process(raw, dataset.ProcessOptions{
//	    EncoderFeatures: []string{"load", "temperature"},
//	    DecoderFeatures: []string{"temperature"},
//	    Target:          "load",
//	    Window:          sequence.WindowSpec{InputLen: 168, OutputLen: 24},
//	    ModelType:       dataset.TCNTCN,
//	    SplitRatio:      0.8,
//	})
//	p, _ := res.Split(sequence.SplitOptions{})
//	train, validation := res.Config.PartitionInputs(p)
//	_ = dataset.SaveConfig("models/load-v1", res.Config)
//
// Replay the configuration on new data:
//
//	cfg, _ := dataset.LoadConfig("models/load-v1")
//	out, _ := dataset.Replay(cfg, recent, dataset.ReplayOptions{Inference: true})
//	inputs := out.Inputs(true)
//
// # Packages
//
//   - frame: the table type, xlsx ingestion, and CSV export
//   - preprocess: imputer, one-hot encoder, scaler, and temporal encodings
//   - sequence: window extraction, splitting, and prediction alignment
//   - dataset: the processing pipeline and the configuration store
//   - cmd/goseq: command line interface driven by a YAML run file
package goseq
