package dataset

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap/zaptest"
	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/goseq/frame"
	"github.com/sartorproj/goseq/preprocess"
	"github.com/sartorproj/goseq/sequence"
)

// rawFrame builds n daily rows with a weekly load pattern, a trending
// temperature with gaps, and a day type category.
func rawFrame(t *testing.T, n int) *frame.Frame {
	t.Helper()
	base := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	times := make([]time.Time, n)
	load := make([]float64, n)
	temp := make([]float64, n)
	kind := make([]string, n)
	for i := 0; i < n; i++ {
		times[i] = base.AddDate(0, 0, i)
		load[i] = 50 + 10*math.Sin(2*math.Pi*float64(i)/7) + float64(i%5)
		temp[i] = 10 + 0.1*float64(i)
		switch times[i].Weekday() {
		case time.Saturday, time.Sunday:
			kind[i] = "weekend"
		default:
			kind[i] = "work"
		}
	}
	if n > 20 {
		temp[0] = math.NaN()
		temp[3] = math.NaN()
		kind[10] = ""
		kind[20] = "holiday"
	}

	f := frame.NewWithTimes("date / time", times)
	var err error
	f, err = f.WithFloat("load", load)
	require.NoError(t, err)
	f, err = f.WithFloat("temp", temp)
	require.NoError(t, err)
	f, err = f.WithText("kind", kind)
	require.NoError(t, err)
	return f
}

func defaultOptions(t *testing.T) ProcessOptions {
	return ProcessOptions{
		EncoderFeatures:  []string{"load", "temp", "kind"},
		DecoderFeatures:  []string{"temp", "kind"},
		Target:           "load",
		Window:           sequence.WindowSpec{InputLen: 10, OutputLen: 5},
		ModelType:        TCNTCN,
		SplitRatio:       0.8,
		TemporalModes:    []preprocess.TemporalMode{preprocess.Weekdays},
		MinRelOccurrence: 0.05,
		Logger:           zaptest.NewLogger(t),
	}
}

func TestProcess(t *testing.T) {
	raw := rawFrame(t, 100)
	res, err := Process(raw, defaultOptions(t))
	require.NoError(t, err)

	cfg := res.Config
	assert.Equal(t, SchemaVersion, cfg.Version)
	assert.NotEmpty(t, cfg.ID)
	assert.Equal(t, "date / time", cfg.TimeColumn)
	assert.Equal(t, 0.8, res.Ratio)

	assert.Equal(t, []string{"load", "temp", "kind"}, cfg.EncoderFeatures)
	assert.Equal(t, []string{"load", "temp", "kind_weekend", "kind_work", "temporal_encoding_weekdays"}, cfg.EncoderColumns())
	assert.Equal(t, []string{"temp", "kind_weekend", "kind_work", "temporal_encoding_weekdays"}, cfg.DecoderColumns())
	assert.Equal(t, []string{"temp", "kind_weekend", "kind_work", "temporal_encoding_weekdays"}, cfg.ScalerX.Columns)
	assert.Equal(t, []string{"load"}, cfg.ScalerY.Columns)

	assert.Equal(t, 86, res.Bundle.Len())
	assert.Equal(t, [3]int{86, 10, 5}, res.Bundle.XEncoder.Shape)
	assert.Equal(t, [3]int{86, 5, 4}, res.Bundle.XDecoder.Shape)
	assert.Equal(t, [3]int{86, 5, 1}, res.Bundle.Y.Shape)

	assert.False(t, res.Frame.HasColumn("kind"))
	for _, x := range []*sequence.Tensor{res.Bundle.XEncoder, res.Bundle.XDecoder, res.Bundle.Y} {
		for _, v := range x.Data {
			require.False(t, math.IsNaN(v))
		}
	}
}

func TestProcessFitsOnTrainingRowsOnly(t *testing.T) {
	raw := rawFrame(t, 100)
	res, err := Process(raw, defaultOptions(t))
	require.NoError(t, err)

	load, err := raw.Float("load")
	require.NoError(t, err)
	mean, variance := stat.PopMeanVariance(load[:80], nil)
	assert.Equal(t, 80, res.Config.ScalerY.Samples)
	assert.InDelta(t, mean, res.Config.ScalerY.Mean[0], 1e-12)
	assert.InDelta(t, variance, res.Config.ScalerY.Variance[0], 1e-9)

	// Gaps are filled before scaling: the leading gap by the first observed
	// value, the later one by the previous value.
	temp, err := raw.Float("temp")
	require.NoError(t, err)
	filled := append([]float64(nil), temp[:80]...)
	filled[0] = temp[1]
	filled[3] = temp[2]
	assert.InDelta(t, stat.Mean(filled, nil), res.Config.ScalerX.Mean[0], 1e-12)

	// Changing only the test rows leaves every fitted parameter unchanged.
	shifted := append([]float64(nil), load...)
	for i := 80; i < len(shifted); i++ {
		shifted[i] += 1000
	}
	changed, err := raw.WithFloat("load", shifted)
	require.NoError(t, err)
	res2, err := Process(changed, defaultOptions(t))
	require.NoError(t, err)

	assert.Equal(t, res.Config.ScalerY.Mean, res2.Config.ScalerY.Mean)
	assert.Equal(t, res.Config.ScalerX.Mean, res2.Config.ScalerX.Mean)
	assert.Equal(t, res.Config.TemporalEncodings[0].Values, res2.Config.TemporalEncodings[0].Values)
}

func TestProcessSplitDate(t *testing.T) {
	raw := rawFrame(t, 100)

	byDateOpts := defaultOptions(t)
	byDateOpts.SplitRatio = 0
	byDateOpts.SplitDate = raw.Times()[50]
	byDate, err := Process(raw, byDateOpts)
	require.NoError(t, err)

	byRatioOpts := defaultOptions(t)
	byRatioOpts.SplitRatio = 0.5
	byRatio, err := Process(raw, byRatioOpts)
	require.NoError(t, err)

	assert.Equal(t, 0.5, byDate.Ratio)
	assert.Equal(t, byRatio.Config.ScalerY.Mean, byDate.Config.ScalerY.Mean)
	assert.Equal(t, byRatio.Bundle.XEncoder.Data, byDate.Bundle.XEncoder.Data)

	p1, err := byDate.Split(sequence.SplitOptions{})
	require.NoError(t, err)
	p2, err := byRatio.Split(sequence.SplitOptions{})
	require.NoError(t, err)
	assert.Equal(t, p2.Train.Starts, p1.Train.Starts)
	assert.Equal(t, p2.Test.Starts, p1.Test.Starts)
	assert.Equal(t, 43, p1.Train.Len())

	// A date after the last row trains on every window.
	lateOpts := defaultOptions(t)
	lateOpts.SplitRatio = 0
	lateOpts.SplitDate = raw.Times()[99].AddDate(0, 0, 1)
	late, err := Process(raw, lateOpts)
	require.NoError(t, err)
	assert.Equal(t, 1.0, late.Ratio)
	p3, err := late.Split(sequence.SplitOptions{})
	require.NoError(t, err)
	assert.Equal(t, 86, p3.Train.Len())
	assert.Equal(t, 0, p3.Test.Len())
}

func TestProcessErrors(t *testing.T) {
	raw := rawFrame(t, 100)

	tests := []struct {
		name   string
		raw    *frame.Frame
		modify func(*ProcessOptions)
		check  func(*testing.T, error)
	}{
		{
			name:   "missing split criterion",
			raw:    raw,
			modify: func(o *ProcessOptions) { o.SplitRatio = 0 },
			check: func(t *testing.T, err error) {
				var target *MissingSplitCriterionError
				assert.ErrorAs(t, err, &target)
			},
		},
		{
			name:   "split ratio of one",
			raw:    raw,
			modify: func(o *ProcessOptions) { o.SplitRatio = 1 },
			check: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "out of range")
			},
		},
		{
			name:   "unknown model type",
			raw:    raw,
			modify: func(o *ProcessOptions) { o.ModelType = "lstm" },
			check: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "model type")
			},
		},
		{
			name:   "table too short",
			raw:    rawFrame(t, 14),
			modify: func(o *ProcessOptions) {},
			check: func(t *testing.T, err error) {
				var target *InsufficientDataError
				require.ErrorAs(t, err, &target)
				assert.Equal(t, 14, target.Rows)
			},
		},
		{
			name:   "split date before first row",
			raw:    raw,
			modify: func(o *ProcessOptions) { o.SplitDate = raw.Times()[0].AddDate(0, 0, -3) },
			check: func(t *testing.T, err error) {
				var target *DateNotFoundError
				assert.ErrorAs(t, err, &target)
			},
		},
		{
			name:   "unknown feature",
			raw:    raw,
			modify: func(o *ProcessOptions) { o.DecoderFeatures = []string{"humidity"} },
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, frame.ErrColumnNotFound)
			},
		},
		{
			name:   "unknown temporal mode",
			raw:    raw,
			modify: func(o *ProcessOptions) { o.TemporalModes = []preprocess.TemporalMode{"minutes"} },
			check: func(t *testing.T, err error) {
				assert.Error(t, err)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := defaultOptions(t)
			tt.modify(&opts)
			res, err := Process(tt.raw, opts)
			assert.Nil(t, res)
			tt.check(t, err)
		})
	}
}

func TestInputs(t *testing.T) {
	raw := rawFrame(t, 60)
	res, err := Process(raw, defaultOptions(t))
	require.NoError(t, err)
	b := res.Bundle

	tests := []struct {
		name           string
		modelType      ModelType
		autoregressive bool
		inference      bool
		expected       []*sequence.Tensor
	}{
		{"tcn_tcn", TCNTCN, false, false, []*sequence.Tensor{b.XEncoder, b.XDecoder}},
		{"tcn_tcn inference", TCNTCN, false, true, []*sequence.Tensor{b.XEncoder, b.XDecoder}},
		{"tcn_tcn autoregressive", TCNTCN, true, false, []*sequence.Tensor{b.XEncoder, b.XDecoder, b.YShifted}},
		{"tcn_tcn autoregressive inference", TCNTCN, true, true, []*sequence.Tensor{b.XEncoder, b.XDecoder, b.YLast}},
		{"tcn_gru", TCNGRU, false, false, []*sequence.Tensor{b.XEncoder, b.XDecoder, b.YLast}},
		{"tcn_gru autoregressive", TCNGRU, true, false, []*sequence.Tensor{b.XEncoder, b.XDecoder, b.YLast}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{ModelType: tt.modelType, Autoregressive: tt.autoregressive}
			got := cfg.Inputs(b, tt.inference)
			require.Len(t, got, len(tt.expected))
			for i := range got {
				assert.Same(t, tt.expected[i], got[i])
			}
		})
	}
}

func TestPartitionInputs(t *testing.T) {
	opts := defaultOptions(t)
	opts.Autoregressive = true
	res, err := Process(rawFrame(t, 100), opts)
	require.NoError(t, err)
	p, err := res.Split(sequence.SplitOptions{})
	require.NoError(t, err)

	train, test := res.Config.PartitionInputs(p)
	require.Len(t, train, 3)
	require.Len(t, test, 3)
	assert.Same(t, p.Train.YShifted, train[2])
	assert.Same(t, p.Test.YLast, test[2])
	assert.Equal(t, [3]int{68, 5, 1}, train[2].Shape)
	assert.Equal(t, [3]int{18, 1, 1}, test[2].Shape)
}

func TestConfigRoundTrip(t *testing.T) {
	raw := rawFrame(t, 120)
	opts := defaultOptions(t)
	opts.TemporalModes = []preprocess.TemporalMode{preprocess.Weekdays, preprocess.Months, preprocess.Holidays}
	opts.Autoregressive = true
	res, err := Process(raw, opts)
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "config")
	require.NoError(t, SaveConfig(dir, res.Config))
	for _, name := range []string{ConfigFile, NaNHandlerFile, OneHotEncoderFile, ScalerXFile, ScalerYFile} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	loaded, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, res.Config.ID, loaded.ID)
	assert.True(t, res.Config.CreatedAt.Equal(loaded.CreatedAt))
	assert.Equal(t, res.Config.EncoderFeatures, loaded.EncoderFeatures)
	assert.Equal(t, res.Config.WindowSpec, loaded.WindowSpec)
	assert.Equal(t, res.Config.ScalerX, loaded.ScalerX)
	assert.Equal(t, res.Config.ScalerY, loaded.ScalerY)
	assert.Equal(t, res.Config.OneHot.Categories, loaded.OneHot.Categories)
	assert.Equal(t, res.Config.NaNHandler, loaded.NaNHandler)
	require.Len(t, loaded.TemporalEncodings, 3)
	assert.Equal(t, res.Config.TemporalEncodings[2].Holidays, loaded.TemporalEncodings[2].Holidays)

	replayed, err := Replay(loaded, raw, ReplayOptions{Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)

	assert.Equal(t, res.Bundle.Starts, replayed.Bundle.Starts)
	assert.Equal(t, res.Bundle.XEncoder, replayed.Bundle.XEncoder)
	assert.Equal(t, res.Bundle.XDecoder, replayed.Bundle.XDecoder)
	assert.Equal(t, res.Bundle.Y, replayed.Bundle.Y)
	assert.Equal(t, res.Bundle.YShifted, replayed.Bundle.YShifted)
	assert.Equal(t, res.Bundle.YLast, replayed.Bundle.YLast)
}

func TestReplayDoesNotMutateConfig(t *testing.T) {
	raw := rawFrame(t, 100)
	res, err := Process(raw, defaultOptions(t))
	require.NoError(t, err)
	cfg := res.Config

	first, err := Replay(cfg, raw, ReplayOptions{InputLen: 7, OutputLen: 3})
	require.NoError(t, err)
	second, err := Replay(cfg, raw, ReplayOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"load", "temp", "kind"}, cfg.EncoderFeatures)
	assert.Equal(t, []string{"temp", "kind"}, cfg.DecoderFeatures)
	assert.Equal(t, 10, cfg.InputLen)
	assert.Equal(t, 5, cfg.OutputLen)

	assert.Equal(t, 7, first.Config.InputLen)
	assert.Equal(t, 3, first.Config.OutputLen)
	assert.Equal(t, 91, first.Bundle.Len())
	assert.Equal(t, [3]int{91, 7, 5}, first.Bundle.XEncoder.Shape)

	assert.Equal(t, res.Bundle.XEncoder, second.Bundle.XEncoder)
}

func TestReplayInference(t *testing.T) {
	raw := rawFrame(t, 100)
	opts := defaultOptions(t)
	opts.Autoregressive = true
	res, err := Process(raw, opts)
	require.NoError(t, err)

	// New data beyond the training period.
	recent := raw.Slice(60, 100)
	out, err := Replay(res.Config, recent, ReplayOptions{Inference: true})
	require.NoError(t, err)

	assert.Nil(t, out.Bundle.Y)
	assert.Equal(t, 26, out.Bundle.Len())
	inputs := out.Inputs(true)
	require.Len(t, inputs, 3)
	assert.Same(t, out.Bundle.YLast, inputs[2])

	// Replayed values use the stored scaler, not one refitted on the slice.
	load, err := recent.Float("load")
	require.NoError(t, err)
	expected := (load[9] - res.Config.ScalerY.Mean[0]) / res.Config.ScalerY.Scale[0]
	assert.Equal(t, expected, out.Bundle.YLast.At(0, 0, 0))
}

// writeBlankKind writes n daily rows starting at start to an xlsx workbook
// whose kind column has a header and no values.
func writeBlankKind(t *testing.T, start time.Time, n int) string {
	t.Helper()

	book := excelize.NewFile()
	defer book.Close()
	sheet := book.GetSheetName(0)

	rows := [][]interface{}{{"date / time", "load", "temp", "kind"}}
	for i := 0; i < n; i++ {
		ts := start.AddDate(0, 0, i)
		rows = append(rows, []interface{}{ts.Format("2006-01-02 15:04:05"), 50 + float64(i%7), 20 + 0.1*float64(i)})
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, book.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "recent.xlsx")
	require.NoError(t, book.SaveAs(path))
	return path
}

func TestReplayBlankCategory(t *testing.T) {
	raw := rawFrame(t, 100)
	res, err := Process(raw, defaultOptions(t))
	require.NoError(t, err)

	path := writeBlankKind(t, raw.Times()[99].AddDate(0, 0, 1), 30)
	recent, err := frame.Load(path, frame.FormatXLSX, frame.LoadOptions{TimeColumn: "date / time"})
	require.NoError(t, err)
	require.True(t, recent.HasColumn("kind"))

	out, err := Replay(res.Config, recent, ReplayOptions{Inference: true})
	require.NoError(t, err)
	assert.Equal(t, 16, out.Bundle.Len())

	// Every row takes the fitted fallback category.
	assert.Equal(t, "work", res.Config.NaNHandler.Text["kind"])
	scaled := func(column string, v float64) float64 {
		for i, name := range res.Config.ScalerX.Columns {
			if name == column {
				return (v - res.Config.ScalerX.Mean[i]) / res.Config.ScalerX.Scale[i]
			}
		}
		t.Fatalf("column %q is not scaled", column)
		return 0
	}
	work, err := out.Frame.Float("kind_work")
	require.NoError(t, err)
	weekend, err := out.Frame.Float("kind_weekend")
	require.NoError(t, err)
	for i := range work {
		assert.InDelta(t, scaled("kind_work", 1), work[i], 1e-12)
		assert.InDelta(t, scaled("kind_weekend", 0), weekend[i], 1e-12)
	}
}

func TestReplayErrors(t *testing.T) {
	raw := rawFrame(t, 100)
	res, err := Process(raw, defaultOptions(t))
	require.NoError(t, err)

	_, err = Replay(res.Config, raw.Drop("kind"), ReplayOptions{})
	assert.ErrorIs(t, err, frame.ErrColumnNotFound)

	_, err = Replay(res.Config, raw.Slice(0, 12), ReplayOptions{})
	var insufficient *InsufficientDataError
	assert.ErrorAs(t, err, &insufficient)

	_, err = Replay(&Config{}, raw, ReplayOptions{})
	assert.Error(t, err)
}

func TestLoadConfigErrors(t *testing.T) {
	raw := rawFrame(t, 100)
	res, err := Process(raw, defaultOptions(t))
	require.NoError(t, err)

	tests := []struct {
		name     string
		corrupt  func(t *testing.T, dir string)
		artifact string
	}{
		{
			name:     "missing directory",
			corrupt:  func(t *testing.T, dir string) { require.NoError(t, os.RemoveAll(dir)) },
			artifact: ConfigFile,
		},
		{
			name:     "missing target scaler",
			corrupt:  func(t *testing.T, dir string) { require.NoError(t, os.Remove(filepath.Join(dir, ScalerYFile))) },
			artifact: ScalerYFile,
		},
		{
			name: "malformed nan handler",
			corrupt: func(t *testing.T, dir string) {
				require.NoError(t, os.WriteFile(filepath.Join(dir, NaNHandlerFile), []byte("{\"numeric\": ["), 0o644))
			},
			artifact: NaNHandlerFile,
		},
		{
			name: "unknown schema version",
			corrupt: func(t *testing.T, dir string) {
				path := filepath.Join(dir, ConfigFile)
				data, err := os.ReadFile(path)
				require.NoError(t, err)
				data = []byte(strings.Replace(string(data), `"version": 1`, `"version": 7`, 1))
				require.NoError(t, os.WriteFile(path, data, 0o644))
			},
			artifact: ConfigFile,
		},
		{
			name: "empty input scaler",
			corrupt: func(t *testing.T, dir string) {
				require.NoError(t, os.WriteFile(filepath.Join(dir, ScalerXFile), []byte(`{"columns": ["temp"]}`), 0o644))
			},
			artifact: ScalerXFile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, SaveConfig(dir, res.Config))
			tt.corrupt(t, dir)

			cfg, err := LoadConfig(dir)
			assert.Nil(t, cfg)

			var loadErr *ConfigLoadError
			require.True(t, errors.As(err, &loadErr), "got %v", err)
			assert.Equal(t, tt.artifact, loadErr.Artifact)
			assert.Contains(t, err.Error(), tt.artifact)
		})
	}
}

func TestSaveConfigRequiresFittedState(t *testing.T) {
	err := SaveConfig(t.TempDir(), &Config{Version: SchemaVersion})
	assert.Error(t, err)
}

func TestParseModelType(t *testing.T) {
	m, err := ParseModelType("tcn_gru")
	require.NoError(t, err)
	assert.Equal(t, TCNGRU, m)

	_, err = ParseModelType("transformer")
	assert.Error(t, err)
}
