// Package dataset turns a raw frame into model-ready windows and persists
// the fitted state needed to repeat the exact same transformation later.
//
// # Processing
//
// Process fits the temporal encodings, the missing-value handler, the one-hot
// encoder, and both scalers, then extracts encoder/decoder windows:
//
//	res, err := dataset.Process(raw, dataset.ProcessOptions{
//	    EncoderFeatures: []string{"load", "temperature", "day_type"},
//	    DecoderFeatures: []string{"temperature", "day_type"},
//	    Target:          "load",
//	    Window:          sequence.WindowSpec{InputLen: 168, OutputLen: 24},
//	    ModelType:       dataset.TCNTCN,
//	    SplitRatio:      0.8,
//	    TemporalModes:   []preprocess.TemporalMode{preprocess.Hours, preprocess.Weekdays},
//	})
//	p, err := res.Split(sequence.SplitOptions{})
//	trainX := res.Config.Inputs(p.Train, false)
//
// # Replaying
//
// SaveConfig writes the fitted state to a directory; LoadConfig and Replay
// apply it to new data without refitting:
//
//	cfg, err := dataset.LoadConfig("models/load-v1")
//	res, err := dataset.Replay(cfg, raw, dataset.ReplayOptions{Inference: true})
//	x := res.Inputs(true)
package dataset
