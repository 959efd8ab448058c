package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"support-band-alerts/internal/band"
)

// CoinGeckoOptions parameterise the CoinGecko history provider.
type CoinGeckoOptions struct {
	BaseURL    string
	VsCurrency string
	Timeout    time.Duration
	UserAgent  string
}

// CoinGecko fetches daily price charts from the CoinGecko API.
type CoinGecko struct {
	opts    CoinGeckoOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewCoinGecko constructs a CoinGecko history provider.
func NewCoinGecko(opts CoinGeckoOptions, logger zerolog.Logger) *CoinGecko {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.coingecko.com/api/v3"
	}
	if opts.VsCurrency == "" {
		opts.VsCurrency = "usd"
	}

	return &CoinGecko{
		opts:    opts,
		logger:  logger.With().Str("component", "history_coingecko").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

type marketChartResponse struct {
	Prices [][2]float64 `json:"prices"`
}

// DailyHistory retrieves the last `days` daily prices for a coin id,
// ascending by timestamp as served by the API.
func (c *CoinGecko) DailyHistory(ctx context.Context, symbol string, days int) ([]band.PricePoint, error) {
	query := url.Values{}
	query.Set("vs_currency", c.opts.VsCurrency)
	query.Set("days", strconv.Itoa(days))
	query.Set("interval", "daily")

	endpoint := fmt.Sprintf("%s/coins/%s/market_chart?%s", c.baseURL, url.PathEscape(symbol), query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(c.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("coingecko market_chart %s: status %d: %s", symbol, resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var chart marketChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return nil, fmt.Errorf("decode market_chart for %s: %w", symbol, err)
	}

	points := make([]band.PricePoint, 0, len(chart.Prices))
	for _, pair := range chart.Prices {
		points = append(points, band.PricePoint{
			Timestamp: time.UnixMilli(int64(pair[0])).UTC(),
			Price:     decimal.NewFromFloat(pair[1]),
		})
	}
	return points, nil
}

var _ HistoryProvider = (*CoinGecko)(nil)
