package universe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// CoinGeckoOptions parameterise the market-cap universe source.
type CoinGeckoOptions struct {
	BaseURL    string
	VsCurrency string
	Pages      int
	PerPage    int
	ShardIndex int
	ShardSize  int
	Timeout    time.Duration
}

// CoinGecko resolves the universe from the top-market-cap listing, optionally
// sliced into a shard so parallel deployments split the coin list between
// them.
type CoinGecko struct {
	opts    CoinGeckoOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewCoinGecko constructs a CoinGecko universe source.
func NewCoinGecko(opts CoinGeckoOptions, logger zerolog.Logger) *CoinGecko {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.coingecko.com/api/v3"
	}
	if opts.Pages <= 0 {
		opts.Pages = 4
	}
	if opts.PerPage <= 0 {
		opts.PerPage = 100
	}
	if opts.VsCurrency == "" {
		opts.VsCurrency = "usd"
	}

	return &CoinGecko{
		opts:    opts,
		logger:  logger.With().Str("component", "universe_coingecko").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

type marketEntry struct {
	ID string `json:"id"`
}

// Symbols fetches the configured pages and returns the shard slice. A single
// failed page is logged and skipped; an empty final list is an error because
// a run without a universe has nothing to do.
func (c *CoinGecko) Symbols(ctx context.Context) ([]string, error) {
	var all []string
	for page := 1; page <= c.opts.Pages; page++ {
		ids, err := c.fetchPage(ctx, page)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Warn().Err(err).Int("page", page).Msg("failed to fetch universe page; skipping")
			continue
		}
		all = append(all, ids...)
	}

	all = lo.Uniq(all)
	if len(all) == 0 {
		return nil, errors.New("universe resolution returned no symbols")
	}

	if c.opts.ShardSize > 0 {
		start := c.opts.ShardIndex * c.opts.ShardSize
		if start >= len(all) {
			return nil, fmt.Errorf("shard %d starts past the universe (%d symbols)", c.opts.ShardIndex, len(all))
		}
		end := start + c.opts.ShardSize
		if end > len(all) {
			end = len(all)
		}
		all = all[start:end]
	}

	c.logger.Info().Int("symbols", len(all)).Msg("universe resolved")
	return all, nil
}

func (c *CoinGecko) fetchPage(ctx context.Context, page int) ([]string, error) {
	query := url.Values{}
	query.Set("vs_currency", c.opts.VsCurrency)
	query.Set("order", "market_cap_desc")
	query.Set("per_page", strconv.Itoa(c.opts.PerPage))
	query.Set("page", strconv.Itoa(page))

	endpoint := c.baseURL + "/coins/markets?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coingecko markets page %d: status %d", page, resp.StatusCode)
	}

	var entries []marketEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode markets page %d: %w", page, err)
	}

	ids := lo.FilterMap(entries, func(e marketEntry, _ int) (string, bool) {
		return e.ID, e.ID != ""
	})
	return ids, nil
}

var _ Source = (*CoinGecko)(nil)
