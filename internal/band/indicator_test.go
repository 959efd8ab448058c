package band

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func flatHistory(n int, price int64) []PricePoint {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]PricePoint, n)
	for i := range points {
		points[i] = PricePoint{
			Timestamp: start.AddDate(0, 0, i),
			Price:     decimal.NewFromInt(price),
		}
	}
	return points
}

func TestComputeInsufficientHistory(t *testing.T) {
	indicator, err := Compute(flatHistory(5, 100), 12, decimal.NewFromFloat(0.2558))
	if err != nil {
		t.Fatalf("short history is not an error: %v", err)
	}
	if indicator != nil {
		t.Fatalf("expected nil indicator for 5 points with window 12, got %+v", indicator)
	}
}

func TestComputeFlatSeries(t *testing.T) {
	indicator, err := Compute(flatHistory(12, 100), 12, decimal.NewFromFloat(0.2558))
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if indicator == nil {
		t.Fatal("expected indicator for exactly window points")
	}
	if !indicator.Baseline.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected baseline 100, got %s", indicator.Baseline)
	}
	if !indicator.SupportLevel.Equal(decimal.NewFromFloat(74.42)) {
		t.Fatalf("expected support 74.42, got %s", indicator.SupportLevel)
	}
}

func TestComputeUsesTrailingWindow(t *testing.T) {
	// 20 points at 50 followed by 12 at 110: only the trailing 12 count.
	history := flatHistory(20, 50)
	start := history[len(history)-1].Timestamp
	for i := 0; i < 12; i++ {
		history = append(history, PricePoint{
			Timestamp: start.AddDate(0, 0, i+1),
			Price:     decimal.NewFromInt(110),
		})
	}

	indicator, err := Compute(history, 12, decimal.Zero)
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if !indicator.Baseline.Equal(decimal.NewFromInt(110)) {
		t.Fatalf("expected trailing baseline 110, got %s", indicator.Baseline)
	}
}

func TestComputeSupportNeverExceedsBaseline(t *testing.T) {
	for _, depth := range []float64{0, 0.03, 0.1279, 0.2558, 0.99} {
		indicator, err := Compute(flatHistory(12, 200), 12, decimal.NewFromFloat(depth))
		if err != nil {
			t.Fatalf("depth %v: %v", depth, err)
		}
		if indicator.SupportLevel.GreaterThan(indicator.Baseline) {
			t.Fatalf("depth %v: support %s above baseline %s", depth, indicator.SupportLevel, indicator.Baseline)
		}
	}
}

func TestComputeRejectsBadParameters(t *testing.T) {
	if _, err := Compute(flatHistory(12, 100), 0, decimal.Zero); err == nil {
		t.Fatal("window 0 must be rejected")
	}
	if _, err := Compute(flatHistory(12, 100), 12, decimal.NewFromInt(1)); err == nil {
		t.Fatal("depth_pct 1 must be rejected")
	}
	if _, err := Compute(flatHistory(12, 100), 12, decimal.NewFromFloat(-0.1)); err == nil {
		t.Fatal("negative depth_pct must be rejected")
	}
}
