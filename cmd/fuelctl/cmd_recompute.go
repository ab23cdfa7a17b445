package main

import (
	"github.com/spf13/cobra"

	"github.com/msldiarra/sirafuel/internal/estimate"
	"github.com/msldiarra/sirafuel/internal/ingest"
)

var recomputeCmd = &cobra.Command{
	Use:   "recompute <station-id>...",
	Short: "Recompute waiting time and reliability for stations",
	Args:  cobra.MatchAll(cobra.MinimumNArgs(1), idArgs),
	RunE:  runRecompute,
}

func init() {
	rootCmd.AddCommand(recomputeCmd)
}

func runRecompute(cmd *cobra.Command, args []string) error {
	service := ingest.NewService(
		deps.Repo,
		estimate.NewEstimator(deps.Repo, nil),
		deps.Locker,
		nil,
		deps.Config.RecomputeLockWait,
		deps.Logger,
	)

	results := make([]ingest.Recomputation, 0, len(args))
	for _, stationID := range args {
		rec, err := service.Recompute(cmd.Context(), stationID)
		if err != nil {
			return err
		}
		results = append(results, rec)
	}
	return printJSON(results)
}
