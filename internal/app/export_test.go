package app

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"support-band-alerts/internal/band"
)

func TestRollingBandMatchesCompute(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	history := make([]band.PricePoint, 15)
	for i := range history {
		history[i] = band.PricePoint{
			Timestamp: start.AddDate(0, 0, i),
			Price:     decimal.NewFromInt(int64(100 + i)),
		}
	}

	depth := decimal.NewFromFloat(0.2558)
	points := rollingBand(history, 12, depth)
	if len(points) != 4 {
		t.Fatalf("expected 4 windows over 15 points, got %d", len(points))
	}

	// The final rolling value must agree with a direct computation.
	indicator, err := band.Compute(history, 12, depth)
	if err != nil {
		t.Fatal(err)
	}
	last := points[len(points)-1]
	if !last.Baseline.Equal(indicator.Baseline) {
		t.Fatalf("rolling baseline %s != computed %s", last.Baseline, indicator.Baseline)
	}
	if !last.Support.Equal(indicator.SupportLevel) {
		t.Fatalf("rolling support %s != computed %s", last.Support, indicator.SupportLevel)
	}
}

func TestRollingBandShortHistory(t *testing.T) {
	history := []band.PricePoint{{Price: decimal.NewFromInt(1)}}
	if got := rollingBand(history, 12, decimal.Zero); got != nil {
		t.Fatalf("short history must produce no points, got %d", len(got))
	}
}

func TestDownsamplePoints(t *testing.T) {
	points := make([]bandPoint, 100)
	for i := range points {
		points[i].Price = decimal.NewFromInt(int64(i))
	}

	sampled := downsamplePoints(points, 10)
	if len(sampled) != 10 {
		t.Fatalf("expected 10 points, got %d", len(sampled))
	}
	if !sampled[0].Price.Equal(points[0].Price) || !sampled[9].Price.Equal(points[99].Price) {
		t.Fatal("downsampling must keep the endpoints")
	}

	if got := downsamplePoints(points, 200); len(got) != 100 {
		t.Fatal("downsampling under the cap must be a no-op")
	}
}
