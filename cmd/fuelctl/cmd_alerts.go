package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msldiarra/sirafuel/internal/alerts"
	"github.com/msldiarra/sirafuel/internal/contracts"
)

var (
	alertStatus string
	alertType   string
	alertLimit  int
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Inspect and resolve operational alerts",
}

var alertsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List alerts, newest first",
	Args:  cobra.MatchAll(cobra.NoArgs, alertFilterArgs),
	RunE:  runAlertsList,
}

var alertsResolveCmd = &cobra.Command{
	Use:   "resolve <alert-id>",
	Short: "Mark an open alert as resolved",
	Args:  cobra.MatchAll(cobra.ExactArgs(1), idArgs),
	RunE:  runAlertsResolve,
}

func init() {
	alertsListCmd.Flags().StringVar(&alertStatus, "status", "OPEN", "OPEN, RESOLVED or empty for both")
	alertsListCmd.Flags().StringVar(&alertType, "type", "", "NO_UPDATE, HIGH_WAIT or CONTRADICTION")
	alertsListCmd.Flags().IntVar(&alertLimit, "limit", 50, "maximum number of alerts")

	rootCmd.AddCommand(alertsCmd)
	alertsCmd.AddCommand(alertsListCmd)
	alertsCmd.AddCommand(alertsResolveCmd)
}

// parseAlertFilters checks the list flags. Empty values mean no filter.
func parseAlertFilters(rawStatus, rawType string) (contracts.AlertStatus, contracts.AlertType, error) {
	status := contracts.AlertStatus(rawStatus)
	if status != "" && status != contracts.AlertOpen && status != contracts.AlertResolved {
		return "", "", fmt.Errorf("invalid status: %s", rawStatus)
	}
	t := contracts.AlertType(rawType)
	if t != "" && !t.Valid() {
		return "", "", fmt.Errorf("invalid alert type: %s", rawType)
	}
	return status, t, nil
}

// alertFilterArgs fails before any connection is opened.
func alertFilterArgs(*cobra.Command, []string) error {
	_, _, err := parseAlertFilters(alertStatus, alertType)
	return err
}

func runAlertsList(cmd *cobra.Command, _ []string) error {
	status, t, err := parseAlertFilters(alertStatus, alertType)
	if err != nil {
		return err
	}

	items, err := deps.Repo.ListAlerts(cmd.Context(), status, t, alertLimit)
	if err != nil {
		return err
	}
	return printJSON(items)
}

func runAlertsResolve(cmd *cobra.Command, args []string) error {
	alert, err := alerts.NewResolver(deps.Repo, deps.Logger).Resolve(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printJSON(alert)
}
