package band

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint is one observation in a symbol's daily price history.
type PricePoint struct {
	Timestamp time.Time
	Price     decimal.Decimal
}

// Indicator holds the smoothed baseline and the derived support level.
type Indicator struct {
	Baseline     decimal.Decimal
	SupportLevel decimal.Decimal
}

// Compute derives the SMA baseline over the trailing window and the support
// level baseline*(1-depthPct). History must be sorted ascending by timestamp.
// A history shorter than the window yields (nil, nil): not enough data, skip
// the symbol.
func Compute(history []PricePoint, window int, depthPct decimal.Decimal) (*Indicator, error) {
	if window < 1 {
		return nil, fmt.Errorf("window must be at least 1, got %d", window)
	}
	if depthPct.IsNegative() || depthPct.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("depth_pct must be in [0,1), got %s", depthPct.String())
	}

	if len(history) < window {
		return nil, nil
	}

	sum := decimal.Zero
	for _, point := range history[len(history)-window:] {
		sum = sum.Add(point.Price)
	}
	baseline := sum.Div(decimal.NewFromInt(int64(window)))
	support := baseline.Mul(decimal.NewFromInt(1).Sub(depthPct))

	return &Indicator{Baseline: baseline, SupportLevel: support}, nil
}
