package main

import (
	"github.com/spf13/cobra"

	"github.com/msldiarra/sirafuel/internal/alerts"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one alert sweep over active stations",
	Args:  cobra.NoArgs,
	RunE:  runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, _ []string) error {
	generator := alerts.NewGenerator(deps.Repo, deps.SweepLocker, deps.Publisher(deps.Config.KafkaTopicAlerts), deps.Logger)

	report, err := generator.Sweep(cmd.Context())
	if err != nil {
		return err
	}
	return printJSON(report)
}
