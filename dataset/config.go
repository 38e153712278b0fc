package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sartorproj/goseq/preprocess"
	"github.com/sartorproj/goseq/sequence"
)

// SchemaVersion is the version written to dataset_config.json.
const SchemaVersion = 1

// Artifact file names inside a configuration directory.
const (
	ConfigFile        = "dataset_config.json"
	NaNHandlerFile    = "nan_handler.json"
	OneHotEncoderFile = "one_hot_encoder.json"
	ScalerXFile       = "scaler_x.json"
	ScalerYFile       = "scaler_y.json"
)

// ModelType names the model family a dataset is prepared for. It decides
// which tensors make up the model inputs.
type ModelType string

const (
	TCNTCN ModelType = "tcn_tcn"
	TCNGRU ModelType = "tcn_gru"
)

// ParseModelType validates a model type name.
func ParseModelType(s string) (ModelType, error) {
	switch m := ModelType(s); m {
	case TCNTCN, TCNGRU:
		return m, nil
	}
	return "", fmt.Errorf("model type must be one of [%s %s], got %q", TCNTCN, TCNGRU, s)
}

// Config is the fitted state of a processed dataset. The feature lists hold
// the names given by the caller; the temporal-encoding and one-hot columns
// fed to the extractor are derived from them on demand, so a Config never
// changes once it has been created or loaded.
type Config struct {
	Version   int       `json:"version"`
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	EncoderFeatures   []string                       `json:"features_input_encoder"`
	DecoderFeatures   []string                       `json:"features_input_decoder"`
	Target            string                         `json:"feature_target"`
	TimeColumn        string                         `json:"time_col"`
	TemporalEncodings []*preprocess.TemporalEncoding `json:"temporal_encoding"`
	Autoregressive    bool                           `json:"autoregressive"`
	ModelType         ModelType                      `json:"model_type"`
	MinRelOccurrence  float64                        `json:"min_rel_occurrence"`

	sequence.WindowSpec

	NaNHandler *preprocess.NaNHandler     `json:"-"`
	OneHot     *preprocess.OneHotEncoder  `json:"-"`
	ScalerX    *preprocess.StandardScaler `json:"-"`
	ScalerY    *preprocess.StandardScaler `json:"-"`
}

// TemporalColumns returns the columns added by the temporal encodings.
func (c *Config) TemporalColumns() []string {
	out := make([]string, len(c.TemporalEncodings))
	for i, enc := range c.TemporalEncodings {
		out[i] = enc.Column()
	}
	return out
}

// EncoderColumns returns the encoder columns of the processed frame: the
// encoder features plus the temporal encodings, with every categorical
// feature expanded into its one-hot columns.
func (c *Config) EncoderColumns() []string {
	return c.expand(c.EncoderFeatures)
}

// DecoderColumns is EncoderColumns for the decoder features.
func (c *Config) DecoderColumns() []string {
	return c.expand(c.DecoderFeatures)
}

func (c *Config) expand(features []string) []string {
	names := make([]string, 0, len(features)+len(c.TemporalEncodings))
	names = append(names, features...)
	names = append(names, c.TemporalColumns()...)
	if c.OneHot == nil {
		return names
	}
	return c.OneHot.ExpandFeatures(names)
}

// Inputs assembles the model inputs of b:
//
//	tcn_tcn                  [XEncoder, XDecoder]
//	tcn_tcn, autoregressive  [XEncoder, XDecoder, YShifted] for training,
//	                         [XEncoder, XDecoder, YLast] for inference
//	tcn_gru                  [XEncoder, XDecoder, YLast]
func (c *Config) Inputs(b *sequence.Bundle, inference bool) []*sequence.Tensor {
	switch {
	case c.ModelType == TCNGRU:
		return []*sequence.Tensor{b.XEncoder, b.XDecoder, b.YLast}
	case !c.Autoregressive:
		return []*sequence.Tensor{b.XEncoder, b.XDecoder}
	case inference:
		return []*sequence.Tensor{b.XEncoder, b.XDecoder, b.YLast}
	default:
		return []*sequence.Tensor{b.XEncoder, b.XDecoder, b.YShifted}
	}
}

// PartitionInputs assembles the training and validation inputs of p.
// Validation windows are fed the way they are at inference, so an
// autoregressive tcn_tcn model sees YLast rather than the shifted targets.
func (c *Config) PartitionInputs(p *sequence.Partition) (train, test []*sequence.Tensor) {
	return c.Inputs(p.Train, false), c.Inputs(p.Test, true)
}

func (c *Config) validate() error {
	if c.Version != SchemaVersion {
		return fmt.Errorf("unsupported schema version %d", c.Version)
	}
	if _, err := ParseModelType(string(c.ModelType)); err != nil {
		return err
	}
	if c.Target == "" {
		return errors.New("feature_target is empty")
	}
	if err := c.WindowSpec.Validate(); err != nil {
		return err
	}
	for i, enc := range c.TemporalEncodings {
		if enc == nil {
			return fmt.Errorf("temporal_encoding[%d] is null", i)
		}
		if _, err := preprocess.ParseTemporalMode(string(enc.Mode)); err != nil {
			return err
		}
	}
	return nil
}

// SaveConfig writes cfg to dir, creating the directory if needed. Every
// artifact is written to a temporary file first and renamed into place.
func SaveConfig(dir string, cfg *Config) error {
	if cfg.NaNHandler == nil || cfg.OneHot == nil || cfg.ScalerX == nil || cfg.ScalerY == nil {
		return errors.New("save dataset config: config is not fitted")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("save dataset config: %w", err)
	}

	artifacts := []struct {
		name  string
		value any
	}{
		{ConfigFile, cfg},
		{NaNHandlerFile, cfg.NaNHandler},
		{OneHotEncoderFile, cfg.OneHot},
		{ScalerXFile, cfg.ScalerX},
		{ScalerYFile, cfg.ScalerY},
	}
	for _, a := range artifacts {
		if err := writeJSON(filepath.Join(dir, a.name), a.value); err != nil {
			return fmt.Errorf("save dataset config: %s: %w", a.name, err)
		}
	}
	return nil
}

// LoadConfig reads a configuration written by SaveConfig. It returns a
// *ConfigLoadError naming the first artifact that is missing or malformed,
// and never a partially populated Config.
func LoadConfig(dir string) (*Config, error) {
	var (
		cfg     Config
		nan     preprocess.NaNHandler
		onehot  preprocess.OneHotEncoder
		scalerX preprocess.StandardScaler
		scalerY preprocess.StandardScaler
	)

	artifacts := []struct {
		name  string
		value any
	}{
		{ConfigFile, &cfg},
		{NaNHandlerFile, &nan},
		{OneHotEncoderFile, &onehot},
		{ScalerXFile, &scalerX},
		{ScalerYFile, &scalerY},
	}
	for _, a := range artifacts {
		if err := readJSON(filepath.Join(dir, a.name), a.value); err != nil {
			return nil, &ConfigLoadError{Artifact: a.name, Err: err}
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, &ConfigLoadError{Artifact: ConfigFile, Err: err}
	}
	if len(scalerX.Scale) != len(scalerX.Columns) || len(scalerX.Mean) != len(scalerX.Columns) {
		return nil, &ConfigLoadError{Artifact: ScalerXFile, Err: errors.New("column and statistic counts differ")}
	}
	if len(scalerY.Columns) != 1 || len(scalerY.Scale) != 1 || len(scalerY.Mean) != 1 {
		return nil, &ConfigLoadError{Artifact: ScalerYFile, Err: errors.New("target scaler must hold exactly one column")}
	}
	if nan.Numeric == nil {
		nan.Numeric = make(map[string]float64)
	}
	if nan.Text == nil {
		nan.Text = make(map[string]string)
	}
	if onehot.Categories == nil {
		onehot.Categories = make(map[string][]string)
	}

	cfg.NaNHandler = &nan
	cfg.OneHot = &onehot
	cfg.ScalerX = &scalerX
	cfg.ScalerY = &scalerY
	return &cfg, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
