package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// app carries the state shared by all commands of one invocation.
type app struct {
	v       *viper.Viper
	logger  *zap.Logger
	runFile string
	verbose bool
	logFile string
}

func newRootCmd() *cobra.Command {
	a := &app{v: newViper(), logger: zap.NewNop()}

	root := &cobra.Command{
		Use:           "goseq",
		Short:         "Prepare time-series tables for encoder/decoder sequence models",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.logger = newLogger(a.verbose, a.logFile)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.runFile, "run", "", "YAML run file")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")
	flags.StringVar(&a.logFile, "log-file", "", "also write JSON logs to this file, rotated")
	flags.String("data", "", "raw data file (data.path)")
	flags.String("format", "", "raw data format (data.format)")
	flags.String("config-dir", "", "dataset configuration directory (output.config_dir)")
	_ = a.v.BindPFlag("data.path", flags.Lookup("data"))
	_ = a.v.BindPFlag("data.format", flags.Lookup("format"))
	_ = a.v.BindPFlag("output.config_dir", flags.Lookup("config-dir"))

	root.AddCommand(
		newProcessCmd(a),
		newReplayCmd(a),
		newReportCmd(a),
		newInspectCmd(a),
	)
	return root
}

func (a *app) runConfig() (*RunConfig, error) {
	return loadRunConfig(a.v, a.runFile)
}
