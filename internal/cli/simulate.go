package cli

import (
	"github.com/spf13/cobra"
)

var (
	simulateCrossed []string
	simulateNear    []string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Send a synthetic digest through the configured notifier",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().SimulateAlert(cmd.Context(), simulateCrossed, simulateNear)
	},
}

func init() {
	simulateCmd.Flags().StringSliceVar(&simulateCrossed, "crossed", nil, "Symbols for the crossed digest")
	simulateCmd.Flags().StringSliceVar(&simulateNear, "near", nil, "Symbols for the near digest")
}
