package band

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrInvalidIndicator signals a non-positive support level, which makes the
// percentage distance undefined. The symbol is skipped, not the run.
var ErrInvalidIndicator = errors.New("band: support level must be positive")

// Classification describes where the current price sits relative to the band.
type Classification int

const (
	// Normal means the price is comfortably above the support level.
	Normal Classification = iota
	// Crossed means the price is at or below the support level.
	Crossed
	// Near means the price is above the support level but within the
	// near-threshold percentage of it.
	Near
)

func (c Classification) String() string {
	switch c {
	case Crossed:
		return "crossed"
	case Near:
		return "near"
	default:
		return "normal"
	}
}

var dec100 = decimal.NewFromInt(100)

// Classify compares the current price to the support level. Exact equality
// counts as Crossed.
func Classify(price, supportLevel, nearThresholdPct decimal.Decimal) (Classification, error) {
	if !supportLevel.IsPositive() {
		return Normal, ErrInvalidIndicator
	}

	if price.LessThanOrEqual(supportLevel) {
		return Crossed, nil
	}

	distancePct := price.Sub(supportLevel).Div(supportLevel).Mul(dec100)
	if distancePct.LessThanOrEqual(nearThresholdPct) {
		return Near, nil
	}

	return Normal, nil
}
