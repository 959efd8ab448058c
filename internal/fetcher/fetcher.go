package fetcher

import (
	"context"

	"support-band-alerts/internal/band"
)

// HistoryProvider retrieves the ordered daily price history for one symbol.
// Implementations are thin adapters over a market data API; retry and pacing
// live in the evaluation engine, so calls must be idempotent.
type HistoryProvider interface {
	DailyHistory(ctx context.Context, symbol string, days int) ([]band.PricePoint, error)
}
