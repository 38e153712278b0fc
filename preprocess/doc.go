// Package preprocess provides the stateful transformers applied to a frame
// before it is windowed: missing value imputation, one-hot encoding of
// categorical columns, standard scaling, and temporal encodings.
//
// Every transformer is fitted once and can then transform any number of
// frames. Fitted state is held in exported fields with JSON tags, so a
// transformer can be persisted and restored without refitting.
//
// # Imputation
//
//	h := preprocess.NewNaNHandler()
//	h.Fit(f)
//	f, err = h.Transform(f)
//
// # One-Hot Encoding
//
//	ohe := preprocess.NewOneHotEncoder(0.01)
//	ohe.Fit(f)
//	f, err = ohe.Transform(f)
//	features = ohe.ExpandFeatures(features)
//
// # Scaling
//
// Scalers are fitted on the leading training rows only:
//
//	var s preprocess.StandardScaler
//	s.Fit(f, columns, preprocess.FitRows(f.Len(), 0.8))
//	f, err = s.Transform(f)
//
// # Temporal Encodings
//
// A temporal encoding replaces the calendar key of every row with the mean
// target value seen for that key during training:
//
//	enc, err := preprocess.FitTemporal(f, "load", preprocess.Hours, rows, nil)
//	f, err = enc.Transform(f) // adds "temporal_encoding_hours"
package preprocess
