package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/msldiarra/sirafuel/internal/bootstrap"
)

var deps *bootstrap.Deps

var rootCmd = &cobra.Command{
	Use:   "fuelctl",
	Short: "Operate the fuel availability platform",
	Long: `fuelctl runs operator tasks against the station database: alert sweeps,
station recomputes and alert resolution.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		d, err := bootstrap.Open(cmd.Context(), "fuelctl", false)
		if err != nil {
			return err
		}
		deps = d
		return nil
	},
}

// idArgs rejects positional arguments that are not UUIDs.
func idArgs(_ *cobra.Command, args []string) error {
	for _, a := range args {
		if _, err := uuid.Parse(a); err != nil {
			return fmt.Errorf("%q is not a valid id", a)
		}
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if deps != nil {
		deps.Close()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
