package cli

import (
	"github.com/spf13/cobra"

	"support-band-alerts/internal/app"
)

var (
	exportSymbol    string
	exportPNG       string
	exportCSV       string
	exportDays      int
	exportMaxPoints int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export one symbol's price and support band as CSV and/or PNG",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Export(cmd.Context(), app.ExportOptions{
			Symbol:    exportSymbol,
			PNGPath:   exportPNG,
			CSVPath:   exportCSV,
			Days:      exportDays,
			MaxPoints: exportMaxPoints,
		})
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportSymbol, "symbol", "", "Symbol to export (required)")
	exportCmd.Flags().StringVar(&exportPNG, "png", "", "Write chart PNG to this path")
	exportCmd.Flags().StringVar(&exportCSV, "csv", "", "Write CSV to this path")
	exportCmd.Flags().IntVar(&exportDays, "days", 0, "History lookback in days (default from config)")
	exportCmd.Flags().IntVar(&exportMaxPoints, "max-points", 0, "Downsample to at most this many points")
}
