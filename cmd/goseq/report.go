package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sartorproj/goseq/dataset"
	"github.com/sartorproj/goseq/frame"
	"github.com/sartorproj/goseq/sequence"
)

func newReportCmd(a *app) *cobra.Command {
	var (
		predictions string
		scaled      bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Align model predictions with the table they were made from",
		Long: `Report reads a CSV file with one row of decoder-step predictions per
window, maps every prediction back to the row it forecasts, and writes a CSV
with the true target and one prediction column per decoder step.

Predictions are expected in scaled units and are mapped back with the
stored target scaler unless --scaled=false.`,
		Example: `  goseq report --run run.yaml --predictions predictions.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rc, err := a.runConfig()
			if err != nil {
				return err
			}
			if predictions != "" {
				rc.Output.Predictions = predictions
			}
			return runReport(cmd, a.logger, rc, scaled)
		},
	}

	cmd.Flags().StringVar(&predictions, "predictions", "", "predictions CSV, one row per window (output.predictions)")
	cmd.Flags().BoolVar(&scaled, "scaled", true, "predictions are in scaled units")
	return cmd
}

func runReport(cmd *cobra.Command, logger *zap.Logger, rc *RunConfig, scaled bool) error {
	switch {
	case rc.Output.ConfigDir == "":
		return errors.New("output.config_dir is required")
	case rc.Data.Path == "":
		return errors.New("data.path is required")
	case rc.Output.Predictions == "":
		return errors.New("output.predictions is required")
	case rc.Output.Report == "":
		return errors.New("output.report is required")
	}

	cfg, err := dataset.LoadConfig(rc.Output.ConfigDir)
	if err != nil {
		return err
	}
	opts := rc.loadOptions()
	if cfg.TimeColumn != "" {
		opts.TimeColumn = cfg.TimeColumn
	}
	raw, err := frame.Load(rc.Data.Path, frame.Format(rc.Data.Format), opts)
	if err != nil {
		return err
	}
	truth, err := raw.Float(cfg.Target)
	if err != nil {
		return err
	}

	file, err := os.Open(rc.Output.Predictions)
	if err != nil {
		return err
	}
	defer file.Close()
	preds, err := readPredictions(file)
	if err != nil {
		return fmt.Errorf("read %s: %w", rc.Output.Predictions, err)
	}
	if scaled {
		for i, p := range preds {
			if preds[i], err = cfg.ScalerY.InverseColumn(cfg.Target, p); err != nil {
				return err
			}
		}
	}

	rows, err := sequence.AlignPredictions(raw.Times(), truth, preds, cfg.WindowSpec)
	if err != nil {
		return err
	}
	report, err := sequence.ReportFrame(rows, raw.TimeColumn)
	if err != nil {
		return err
	}
	if err := frame.SaveCSV(report, rc.Output.Report); err != nil {
		return err
	}

	logger.Info("report written",
		zap.String("path", rc.Output.Report),
		zap.Int("rows", len(rows)),
		zap.Int("windows", len(preds)),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "report:   %s (%d rows, %d windows)\n", rc.Output.Report, len(rows), len(preds))
	return nil
}

// readPredictions parses one row of floats per window. A first row that
// does not parse is taken as a header.
func readPredictions(r io.Reader) ([][]float64, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}

	var out [][]float64
	for i, record := range records {
		row := make([]float64, len(record))
		for j, cell := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				if i == 0 {
					row = nil
					break
				}
				return nil, fmt.Errorf("row %d column %d: %w", i+1, j+1, err)
			}
			row[j] = v
		}
		if row != nil {
			out = append(out, row)
		}
	}
	return out, nil
}
