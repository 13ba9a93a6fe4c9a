package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/bayesavg/internal/version"
)

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bayesavgctl",
		Short: "bayesavgctl - Bayesian model averaging from the command line",
		Long: `bayesavgctl pools the posterior samples of competing models, each
weighted by its posterior model probability derived from Bayes factors.

Models are read from a YAML or JSON document; nothing is stored.`,
		Version:      version.String(),
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(_ *cobra.Command, _ []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	cmd.AddCommand(newAverageCommand())

	return cmd
}

func execute() error {
	return newRootCommand().Execute()
}
