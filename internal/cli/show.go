package cli

import (
	"github.com/spf13/cobra"

	"support-band-alerts/internal/app"
)

var showLimit int

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print recently dispatched alert digests",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Show(cmd.Context(), app.ShowOptions{Limit: showLimit})
	},
}

func init() {
	showCmd.Flags().IntVar(&showLimit, "limit", 20, "Number of audit rows to print")
}
