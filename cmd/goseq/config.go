package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/sartorproj/goseq/dataset"
	"github.com/sartorproj/goseq/frame"
	"github.com/sartorproj/goseq/preprocess"
	"github.com/sartorproj/goseq/sequence"
)

// RunConfig is the YAML run file read by every command.
type RunConfig struct {
	Data     DataConfig     `mapstructure:"data"`
	Features FeatureConfig  `mapstructure:"features"`
	Window   WindowConfig   `mapstructure:"window"`
	Split    SplitConfig    `mapstructure:"split"`
	Encoding EncodingConfig `mapstructure:"encoding"`
	Model    ModelConfig    `mapstructure:"model"`
	Output   OutputConfig   `mapstructure:"output"`
}

type DataConfig struct {
	Path       string `mapstructure:"path"`
	Format     string `mapstructure:"format"`
	TimeColumn string `mapstructure:"time_column"`
	Sheet      string `mapstructure:"sheet"`
}

type FeatureConfig struct {
	Encoder []string `mapstructure:"encoder"`
	Decoder []string `mapstructure:"decoder"`
	Target  string   `mapstructure:"target"`
}

type WindowConfig struct {
	Input         int `mapstructure:"input"`
	Output        int `mapstructure:"output"`
	EncoderStride int `mapstructure:"encoder_stride"`
	DecoderStride int `mapstructure:"decoder_stride"`
}

type SplitConfig struct {
	Ratio  float64 `mapstructure:"ratio"`
	Date   string  `mapstructure:"date"`
	Months []int   `mapstructure:"months"`
	Purge  bool    `mapstructure:"purge"`
}

type EncodingConfig struct {
	Temporal         []string `mapstructure:"temporal"`
	Holidays         []string `mapstructure:"holidays"`
	MinRelOccurrence float64  `mapstructure:"min_rel_occurrence"`
}

type ModelConfig struct {
	Type           string `mapstructure:"type"`
	Autoregressive bool   `mapstructure:"autoregressive"`
}

type OutputConfig struct {
	ConfigDir   string `mapstructure:"config_dir"`
	Processed   string `mapstructure:"processed"`
	Report      string `mapstructure:"report"`
	Predictions string `mapstructure:"predictions"`
}

var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05"}

// newViper returns a viper instance with every run file key registered, so
// that GOSEQ_* environment variables override them.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("GOSEQ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("data.path", "")
	v.SetDefault("data.format", string(frame.FormatXLSX))
	v.SetDefault("data.time_column", "date / time")
	v.SetDefault("data.sheet", "")
	v.SetDefault("features.encoder", []string{})
	v.SetDefault("features.decoder", []string{})
	v.SetDefault("features.target", "")
	v.SetDefault("window.input", 0)
	v.SetDefault("window.output", 0)
	v.SetDefault("window.encoder_stride", 1)
	v.SetDefault("window.decoder_stride", 1)
	v.SetDefault("split.ratio", 0.0)
	v.SetDefault("split.date", "")
	v.SetDefault("split.months", []int{})
	v.SetDefault("split.purge", false)
	v.SetDefault("encoding.temporal", []string{})
	v.SetDefault("encoding.holidays", []string{})
	v.SetDefault("encoding.min_rel_occurrence", 0.0)
	v.SetDefault("model.type", string(dataset.TCNTCN))
	v.SetDefault("model.autoregressive", false)
	v.SetDefault("output.config_dir", "")
	v.SetDefault("output.processed", "")
	v.SetDefault("output.report", "")
	v.SetDefault("output.predictions", "")
	return v
}

// loadRunConfig reads path (if set) into v and decodes the result.
func loadRunConfig(v *viper.Viper, path string) (*RunConfig, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read run file: %w", err)
		}
	}

	var rc RunConfig
	if err := v.Unmarshal(&rc); err != nil {
		return nil, fmt.Errorf("failed to decode run file: %w", err)
	}
	return &rc, nil
}

// loadOptions returns the ingestion options of the data section.
func (rc *RunConfig) loadOptions() frame.LoadOptions {
	return frame.LoadOptions{TimeColumn: rc.Data.TimeColumn, Sheet: rc.Data.Sheet}
}

// processOptions converts the run file into dataset options.
func (rc *RunConfig) processOptions(logger *zap.Logger) (dataset.ProcessOptions, error) {
	opts := dataset.ProcessOptions{
		EncoderFeatures: rc.Features.Encoder,
		DecoderFeatures: rc.Features.Decoder,
		Target:          rc.Features.Target,
		Window: sequence.WindowSpec{
			InputLen:      rc.Window.Input,
			OutputLen:     rc.Window.Output,
			EncoderStride: rc.Window.EncoderStride,
			DecoderStride: rc.Window.DecoderStride,
		},
		ModelType:        dataset.ModelType(rc.Model.Type),
		Autoregressive:   rc.Model.Autoregressive,
		SplitRatio:       rc.Split.Ratio,
		MinRelOccurrence: rc.Encoding.MinRelOccurrence,
		Logger:           logger,
	}
	if len(rc.Encoding.Holidays) > 0 {
		opts.Holidays = rc.Encoding.Holidays
	}

	if rc.Split.Date != "" {
		date, err := parseDate(rc.Split.Date)
		if err != nil {
			return opts, err
		}
		opts.SplitDate = date
	}

	for _, name := range rc.Encoding.Temporal {
		mode, err := preprocess.ParseTemporalMode(name)
		if err != nil {
			return opts, err
		}
		opts.TemporalModes = append(opts.TemporalModes, mode)
	}
	return opts, nil
}

// splitOptions returns the month filter and purge settings. The split
// point itself comes from the processing ratio.
func (rc *RunConfig) splitOptions() (sequence.SplitOptions, error) {
	var opts sequence.SplitOptions
	for _, m := range rc.Split.Months {
		if m < 1 || m > 12 {
			return opts, fmt.Errorf("split month %d out of range [1, 12]", m)
		}
		opts.Months = append(opts.Months, time.Month(m))
	}
	opts.Purge = rc.Split.Purge
	return opts, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse split date %q", s)
}
