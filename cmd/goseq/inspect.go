package main

import (
	"errors"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sartorproj/goseq/dataset"
)

type configView struct {
	ID             string         `yaml:"id"`
	Version        int            `yaml:"version"`
	CreatedAt      time.Time      `yaml:"created_at"`
	ModelType      string         `yaml:"model_type"`
	Autoregressive bool           `yaml:"autoregressive"`
	TimeColumn     string         `yaml:"time_column"`
	Target         string         `yaml:"target"`
	Window         windowView     `yaml:"window"`
	Encoder        []string       `yaml:"encoder_columns"`
	Decoder        []string       `yaml:"decoder_columns"`
	Temporal       []temporalView `yaml:"temporal_encodings,omitempty"`
	OneHot         []oneHotView   `yaml:"one_hot,omitempty"`
	Fill           map[string]any `yaml:"fill_values,omitempty"`
	ScalerX        []scaledColumn `yaml:"scaler_x"`
	ScalerY        []scaledColumn `yaml:"scaler_y"`
}

type windowView struct {
	Input         int `yaml:"input"`
	Output        int `yaml:"output"`
	EncoderStride int `yaml:"encoder_stride,omitempty"`
	DecoderStride int `yaml:"decoder_stride,omitempty"`
}

type temporalView struct {
	Mode    string          `yaml:"mode"`
	Column  string          `yaml:"column"`
	Default float64         `yaml:"default"`
	Values  map[int]float64 `yaml:"values"`
}

type oneHotView struct {
	Column     string   `yaml:"column"`
	Categories []string `yaml:"categories"`
}

type scaledColumn struct {
	Column string  `yaml:"column"`
	Mean   float64 `yaml:"mean"`
	Scale  float64 `yaml:"scale"`
}

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "inspect",
		Short:   "Print a saved dataset configuration as YAML",
		Example: `  goseq inspect --config-dir models/load-v1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rc, err := a.runConfig()
			if err != nil {
				return err
			}
			if rc.Output.ConfigDir == "" {
				return errors.New("output.config_dir is required")
			}
			cfg, err := dataset.LoadConfig(rc.Output.ConfigDir)
			if err != nil {
				return err
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(newConfigView(cfg)); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}

func newConfigView(cfg *dataset.Config) configView {
	view := configView{
		ID:             cfg.ID,
		Version:        cfg.Version,
		CreatedAt:      cfg.CreatedAt,
		ModelType:      string(cfg.ModelType),
		Autoregressive: cfg.Autoregressive,
		TimeColumn:     cfg.TimeColumn,
		Target:         cfg.Target,
		Window: windowView{
			Input:         cfg.InputLen,
			Output:        cfg.OutputLen,
			EncoderStride: cfg.EncoderStride,
			DecoderStride: cfg.DecoderStride,
		},
		Encoder: cfg.EncoderColumns(),
		Decoder: cfg.DecoderColumns(),
		Fill:    make(map[string]any),
	}

	for _, t := range cfg.TemporalEncodings {
		view.Temporal = append(view.Temporal, temporalView{
			Mode:    string(t.Mode),
			Column:  t.Column(),
			Default: t.Default,
			Values:  t.Values,
		})
	}
	for _, col := range cfg.OneHot.Columns {
		view.OneHot = append(view.OneHot, oneHotView{Column: col, Categories: cfg.OneHot.Categories[col]})
	}
	for name, v := range cfg.NaNHandler.Numeric {
		view.Fill[name] = v
	}
	for name, v := range cfg.NaNHandler.Text {
		view.Fill[name] = v
	}
	for i, col := range cfg.ScalerX.Columns {
		view.ScalerX = append(view.ScalerX, scaledColumn{Column: col, Mean: cfg.ScalerX.Mean[i], Scale: cfg.ScalerX.Scale[i]})
	}
	for i, col := range cfg.ScalerY.Columns {
		view.ScalerY = append(view.ScalerY, scaledColumn{Column: col, Mean: cfg.ScalerY.Mean[i], Scale: cfg.ScalerY.Scale[i]})
	}
	sort.Slice(view.OneHot, func(i, j int) bool { return view.OneHot[i].Column < view.OneHot[j].Column })
	return view
}
