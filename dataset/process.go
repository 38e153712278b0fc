package dataset

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sartorproj/goseq/frame"
	"github.com/sartorproj/goseq/preprocess"
	"github.com/sartorproj/goseq/sequence"
)

// ProcessOptions configures a Process run.
type ProcessOptions struct {
	EncoderFeatures []string
	DecoderFeatures []string
	Target          string
	Window          sequence.WindowSpec
	ModelType       ModelType
	Autoregressive  bool

	// SplitRatio or SplitDate select the training rows the transformers
	// are fitted on. SplitDate wins when both are set.
	SplitRatio float64
	SplitDate  time.Time

	TemporalModes    []preprocess.TemporalMode
	Holidays         []string // MM-DD dates for the holidays mode; nil uses preprocess.DefaultHolidays
	MinRelOccurrence float64

	Logger *zap.Logger
}

// Result is the outcome of Process or Replay.
type Result struct {
	Config *Config
	Frame  *frame.Frame     // processed table
	Bundle *sequence.Bundle // windows extracted from Frame
	Ratio  float64          // split ratio the transformers were fitted with; 0 after Replay

	splitDate time.Time
}

// Inputs returns the model inputs of the whole bundle.
func (r *Result) Inputs(inference bool) []*sequence.Tensor {
	return r.Config.Inputs(r.Bundle, inference)
}

// Split partitions the bundle chronologically. A zero Ratio and Date in
// opts fall back to the date or ratio the transformers were fitted with.
func (r *Result) Split(opts sequence.SplitOptions) (*sequence.Partition, error) {
	if opts.Ratio == 0 && opts.Date.IsZero() {
		opts.Ratio, opts.Date = r.Ratio, r.splitDate
	}
	return sequence.Split(r.Bundle, r.Frame.Times(), opts)
}

// Process fits every transformer on raw and extracts the windows. The
// stages run in a fixed order, each producing a new frame:
//
//	temporal encodings -> missing values -> one-hot -> scale inputs -> scale target -> windows
//
// Scalers and temporal encodings only see the first floor(ratio*N) rows.
// On failure no Config is returned.
func Process(raw *frame.Frame, opts ProcessOptions) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if opts.SplitRatio == 0 && opts.SplitDate.IsZero() {
		return nil, &MissingSplitCriterionError{}
	}
	modelType, err := ParseModelType(string(opts.ModelType))
	if err != nil {
		return nil, err
	}
	if err := opts.Window.Validate(); err != nil {
		return nil, err
	}
	if opts.Target == "" {
		return nil, errors.New("target feature is required")
	}
	if opts.MinRelOccurrence < 0 || opts.MinRelOccurrence > 1 {
		return nil, fmt.Errorf("min relative occurrence %v out of range [0, 1]", opts.MinRelOccurrence)
	}

	if opts.Window.Windows(raw.Len()) == 0 {
		return nil, &InsufficientDataError{Rows: raw.Len(), InputLen: opts.Window.InputLen, OutputLen: opts.Window.OutputLen}
	}

	ratio := opts.SplitRatio
	if !opts.SplitDate.IsZero() {
		if ratio, err = sequence.RatioForDate(raw.Times(), opts.SplitDate); err != nil {
			return nil, err
		}
	} else if err = sequence.ValidateRatio(ratio); err != nil {
		return nil, err
	}
	fitRows := preprocess.FitRows(raw.Len(), ratio)
	if fitRows == 0 {
		return nil, fmt.Errorf("split ratio %v leaves no training rows out of %d", ratio, raw.Len())
	}

	cfg := &Config{
		Version:          SchemaVersion,
		ID:               uuid.NewString(),
		CreatedAt:        time.Now().UTC(),
		EncoderFeatures:  append([]string(nil), opts.EncoderFeatures...),
		DecoderFeatures:  append([]string(nil), opts.DecoderFeatures...),
		Target:           opts.Target,
		TimeColumn:       raw.TimeColumn,
		Autoregressive:   opts.Autoregressive,
		ModelType:        modelType,
		MinRelOccurrence: opts.MinRelOccurrence,
		WindowSpec:       opts.Window,
	}

	logger.Debug("processing dataset",
		zap.String("config_id", cfg.ID),
		zap.Int("rows", raw.Len()),
		zap.Float64("split_ratio", ratio),
		zap.Int("fit_rows", fitRows),
	)

	f := raw
	for _, mode := range opts.TemporalModes {
		enc, err := preprocess.FitTemporal(f, opts.Target, mode, fitRows, opts.Holidays)
		if err != nil {
			return nil, err
		}
		if f, err = enc.Transform(f); err != nil {
			return nil, err
		}
		cfg.TemporalEncodings = append(cfg.TemporalEncodings, enc)
		logger.Debug("temporal encoding fitted", zap.String("mode", string(mode)), zap.Int("keys", len(enc.Values)))
	}

	cfg.NaNHandler = preprocess.NewNaNHandler()
	if err := cfg.NaNHandler.Fit(f); err != nil {
		return nil, fmt.Errorf("nan handler: %w", err)
	}
	if f, err = cfg.NaNHandler.Transform(f); err != nil {
		return nil, fmt.Errorf("nan handler: %w", err)
	}

	cfg.OneHot = preprocess.NewOneHotEncoder(opts.MinRelOccurrence)
	if err := cfg.OneHot.Fit(f); err != nil {
		return nil, fmt.Errorf("one-hot encoder: %w", err)
	}
	if f, err = cfg.OneHot.Transform(f); err != nil {
		return nil, fmt.Errorf("one-hot encoder: %w", err)
	}
	logger.Debug("one-hot encoder fitted", zap.Strings("columns", cfg.OneHot.Columns))

	encoderCols := cfg.EncoderColumns()
	decoderCols := cfg.DecoderColumns()

	cfg.ScalerX = &preprocess.StandardScaler{}
	if err := cfg.ScalerX.Fit(f, inputColumns(encoderCols, decoderCols, opts.Target), fitRows); err != nil {
		return nil, err
	}
	if f, err = cfg.ScalerX.Transform(f); err != nil {
		return nil, err
	}

	cfg.ScalerY = &preprocess.StandardScaler{}
	if err := cfg.ScalerY.Fit(f, []string{opts.Target}, fitRows); err != nil {
		return nil, err
	}
	if f, err = cfg.ScalerY.Transform(f); err != nil {
		return nil, err
	}

	b, err := sequence.Extract(f, encoderCols, decoderCols, opts.Target, opts.Window)
	if err != nil {
		return nil, err
	}

	logger.Info("dataset processed",
		zap.String("config_id", cfg.ID),
		zap.String("model_type", string(cfg.ModelType)),
		zap.Int("windows", b.Len()),
		zap.Int("encoder_features", len(encoderCols)),
		zap.Int("decoder_features", len(decoderCols)),
	)
	return &Result{Config: cfg, Frame: f, Bundle: b, Ratio: ratio, splitDate: opts.SplitDate}, nil
}

// ReplayOptions configures Replay. Zero window lengths keep the lengths
// stored in the configuration.
type ReplayOptions struct {
	InputLen  int
	OutputLen int
	Inference bool // extract without the Y tensor
	Logger    *zap.Logger
}

// Replay applies the fitted state of cfg to raw without refitting. cfg is
// not modified; Result.Config is a copy carrying the effective window
// lengths.
func Replay(cfg *Config, raw *frame.Frame, opts ReplayOptions) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.NaNHandler == nil || cfg.OneHot == nil || cfg.ScalerX == nil || cfg.ScalerY == nil {
		return nil, errors.New("replay: config is not fitted")
	}

	replayed := *cfg
	if opts.InputLen != 0 {
		replayed.InputLen = opts.InputLen
	}
	if opts.OutputLen != 0 {
		replayed.OutputLen = opts.OutputLen
	}
	if err := replayed.WindowSpec.Validate(); err != nil {
		return nil, err
	}

	var err error
	f := raw
	for _, enc := range cfg.TemporalEncodings {
		if f, err = enc.Transform(f); err != nil {
			return nil, err
		}
	}
	if f, err = cfg.NaNHandler.Transform(f); err != nil {
		return nil, fmt.Errorf("nan handler: %w", err)
	}
	if f, err = cfg.OneHot.Transform(f); err != nil {
		return nil, fmt.Errorf("one-hot encoder: %w", err)
	}
	if f, err = cfg.ScalerX.Transform(f); err != nil {
		return nil, err
	}
	if f, err = cfg.ScalerY.Transform(f); err != nil {
		return nil, err
	}

	extract := sequence.Extract
	if opts.Inference {
		extract = sequence.ExtractInference
	}
	b, err := extract(f, replayed.EncoderColumns(), replayed.DecoderColumns(), cfg.Target, replayed.WindowSpec)
	if err != nil {
		return nil, err
	}

	logger.Info("dataset replayed",
		zap.String("config_id", cfg.ID),
		zap.Bool("inference", opts.Inference),
		zap.Int("rows", raw.Len()),
		zap.Int("windows", b.Len()),
	)
	return &Result{Config: &replayed, Frame: f, Bundle: b}, nil
}

// inputColumns returns the union of the encoder and decoder columns without
// the target, which has its own scaler.
func inputColumns(encoder, decoder []string, target string) []string {
	seen := map[string]bool{target: true}
	var out []string
	for _, names := range [][]string{encoder, decoder} {
		for _, name := range names {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}
