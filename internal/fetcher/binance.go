package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"support-band-alerts/internal/band"
)

// BinanceOptions parameterise the Binance spot history provider.
type BinanceOptions struct {
	BaseURL string
}

// Binance fetches daily klines from the spot API and extracts close prices.
// Symbols are exchange pairs in BTCUSDT form, not the slash notation.
type Binance struct {
	cli    *binance.Client
	logger zerolog.Logger
}

// NewBinance constructs a Binance history provider. Kline endpoints are
// public, so no credentials are needed.
func NewBinance(opts BinanceOptions, logger zerolog.Logger) *Binance {
	cli := binance.NewClient("", "")
	if opts.BaseURL != "" {
		cli.BaseURL = opts.BaseURL
	}
	return &Binance{
		cli:    cli,
		logger: logger.With().Str("component", "history_binance").Logger(),
	}
}

// DailyHistory retrieves the last `days` daily klines for a trading pair.
func (b *Binance) DailyHistory(ctx context.Context, symbol string, days int) ([]band.PricePoint, error) {
	klines, err := b.cli.NewKlinesService().
		Symbol(symbol).
		Interval("1d").
		Limit(days).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance klines %s: %w", symbol, err)
	}

	points := make([]band.PricePoint, 0, len(klines))
	for _, k := range klines {
		closePrice, err := decimal.NewFromString(k.Close)
		if err != nil {
			return nil, fmt.Errorf("parse close price for %s: %w", symbol, err)
		}
		points = append(points, band.PricePoint{
			Timestamp: time.UnixMilli(k.OpenTime).UTC(),
			Price:     closePrice,
		})
	}
	return points, nil
}

var _ HistoryProvider = (*Binance)(nil)
