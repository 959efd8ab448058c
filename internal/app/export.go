package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	chart "github.com/wcharczuk/go-chart/v2"

	"support-band-alerts/internal/band"
)

type bandPoint struct {
	Timestamp time.Time
	Price     decimal.Decimal
	Baseline  decimal.Decimal
	Support   decimal.Decimal
}

// Export fetches one symbol's history and renders the price together with
// the rolling baseline and support band as CSV and/or PNG.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.Symbol == "" {
		return errors.New("--symbol is required")
	}
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	days := opts.Days
	if days <= 0 {
		days = a.Config.Provider.LookbackDays
	}
	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	history, err := a.newProvider().DailyHistory(ctx, opts.Symbol, days)
	if err != nil {
		return fmt.Errorf("fetch history for %s: %w", opts.Symbol, err)
	}

	window := a.Config.Indicator.Window
	depth := decimal.NewFromFloat(a.Config.Indicator.DepthPct)
	points := rollingBand(history, window, depth)
	if len(points) == 0 {
		a.Logger.Info().Str("symbol", opts.Symbol).Int("history", len(history)).Msg("not enough history to cover the window; nothing to export")
		return nil
	}

	points = downsamplePoints(points, opts.MaxPoints)
	a.Logger.Info().Str("symbol", opts.Symbol).Int("points", len(points)).Msg("exporting band history")

	if opts.CSVPath != "" {
		if err := writeBandCSV(opts.CSVPath, points); err != nil {
			return err
		}
	}
	if opts.PNGPath != "" {
		if err := writeBandPNG(opts.PNGPath, opts.Symbol, points); err != nil {
			return err
		}
	}
	return nil
}

// rollingBand computes the trailing SMA and support level at every index the
// window covers.
func rollingBand(history []band.PricePoint, window int, depth decimal.Decimal) []bandPoint {
	if window < 1 || len(history) < window {
		return nil
	}

	one := decimal.NewFromInt(1)
	windowSize := decimal.NewFromInt(int64(window))

	sum := decimal.Zero
	for _, p := range history[:window] {
		sum = sum.Add(p.Price)
	}

	points := make([]bandPoint, 0, len(history)-window+1)
	for i := window - 1; ; i++ {
		baseline := sum.Div(windowSize)
		points = append(points, bandPoint{
			Timestamp: history[i].Timestamp,
			Price:     history[i].Price,
			Baseline:  baseline,
			Support:   baseline.Mul(one.Sub(depth)),
		})
		if i+1 >= len(history) {
			break
		}
		sum = sum.Add(history[i+1].Price).Sub(history[i-window+1].Price)
	}
	return points
}

func downsamplePoints(points []bandPoint, max int) []bandPoint {
	if max <= 0 || len(points) <= max {
		return points
	}

	result := make([]bandPoint, 0, max)
	step := float64(len(points)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(points) {
			idx = len(points) - 1
		}
		result = append(result, points[idx])
	}
	return result
}

func writeBandCSV(path string, points []bandPoint) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"date", "price", "baseline", "support"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, point := range points {
		record := []string{
			point.Timestamp.UTC().Format("2006-01-02"),
			point.Price.String(),
			point.Baseline.String(),
			point.Support.String(),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	return writer.Error()
}

func writeBandPNG(path, symbol string, points []bandPoint) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, len(points))
	price := make([]float64, len(points))
	baseline := make([]float64, len(points))
	support := make([]float64, len(points))

	for i, point := range points {
		x[i] = point.Timestamp
		price[i] = point.Price.InexactFloat64()
		baseline[i] = point.Baseline.InexactFloat64()
		support[i] = point.Support.InexactFloat64()
	}

	graph := chart.Chart{
		Title:  symbol,
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name: "Price (USD)",
		},
		Series: []chart.Series{
			chart.TimeSeries{Name: "Price", XValues: x, YValues: price},
			chart.TimeSeries{Name: "Baseline (SMA)", XValues: x, YValues: baseline},
			chart.TimeSeries{Name: "Support", XValues: x, YValues: support},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
