package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"support-band-alerts/internal/alerting"
	"support-band-alerts/internal/config"
	"support-band-alerts/internal/engine"
	"support-band-alerts/internal/fetcher"
	"support-band-alerts/internal/state"
	"support-band-alerts/internal/universe"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newUniverse() universe.Source {
	cfg := a.Config.Universe
	if cfg.Source == "static" {
		return universe.NewStatic(cfg.Symbols)
	}
	return universe.NewCoinGecko(universe.CoinGeckoOptions{
		BaseURL:    cfg.BaseURL,
		VsCurrency: cfg.VsCurrency,
		Pages:      cfg.Pages,
		PerPage:    cfg.PerPage,
		ShardIndex: cfg.ShardIndex,
		ShardSize:  cfg.ShardSize,
		Timeout:    cfg.Timeout,
	}, a.Logger)
}

func (a *App) newProvider() fetcher.HistoryProvider {
	cfg := a.Config.Provider
	if cfg.Name == "binance" {
		return fetcher.NewBinance(fetcher.BinanceOptions{BaseURL: cfg.BaseURL}, a.Logger)
	}
	return fetcher.NewCoinGecko(fetcher.CoinGeckoOptions{
		BaseURL:    cfg.BaseURL,
		VsCurrency: cfg.VsCurrency,
		Timeout:    cfg.RequestTimeout,
		UserAgent:  cfg.UserAgent,
	}, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Enabled && a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

// openStore builds the configured state backend. The closer is nil for
// backends without resources to release.
func (a *App) openStore(ctx context.Context) (state.Store, func(), error) {
	cfg := a.Config.State
	switch cfg.Backend {
	case "postgres":
		store, err := state.OpenPostgres(ctx, cfg.DSN, a.Logger)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case "redis":
		store := state.NewRedisStore(cfg.RedisAddr, cfg.RedisKey, a.Logger)
		return store, func() { _ = store.Close() }, nil
	default:
		return state.NewFileStore(cfg.Path, a.Logger), nil, nil
	}
}

func (a *App) engineConfig() engine.Config {
	cfg := a.Config
	return engine.Config{
		Window:           cfg.Indicator.Window,
		DepthPct:         decimal.NewFromFloat(cfg.Indicator.DepthPct),
		NearThresholdPct: decimal.NewFromFloat(cfg.Indicator.NearThresholdPct),
		LookbackDays:     cfg.Provider.LookbackDays,
		Pacing:           cfg.Provider.Pacing,
		RetryAttempts:    cfg.Provider.RetryAttempts,
		RetryDelay:       cfg.Provider.RetryDelay,
		RetryBackoff:     cfg.Provider.RetryBackoff,
	}
}

// Run executes one evaluation pass: resolve the universe, evaluate every
// symbol, then dispatch the digests. Scheduling between passes belongs to
// the operator (cron, CI pipeline), not to the binary.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	symbols, err := a.newUniverse().Symbols(ctx)
	if err != nil {
		return fmt.Errorf("resolve universe: %w", err)
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	if pg, ok := store.(*state.PostgresStore); ok && a.Config.State.LockKey != 0 {
		unlock, acquired, err := pg.TryRunLock(ctx, a.Config.State.LockKey)
		if err != nil {
			return err
		}
		if !acquired {
			a.Logger.Warn().Msg("another run holds the lock; skipping this pass")
			return nil
		}
		defer unlock()
	}

	eng := engine.New(a.newProvider(), store, a.engineConfig(), a.Logger)
	result, err := eng.Evaluate(ctx, symbols)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			a.Logger.Warn().Msg("run cancelled")
			return err
		}
		return err
	}

	a.dispatch(ctx, eng.RunID(), store, result)
	return nil
}

// dispatch sends the digests. Delivery failure is logged, never fatal: the
// dedup marks are already persisted and the next day's run will fire again.
func (a *App) dispatch(ctx context.Context, runID string, store state.Store, result engine.Result) {
	messages := alerting.BuildDigests(result.Crossed, result.Near)
	if len(messages) == 0 {
		a.Logger.Info().Msg("no symbols to notify")
		return
	}

	notifier := a.newNotifier()
	if notifier == nil {
		a.Logger.Warn().Msg("alerting disabled; digests logged only")
	}

	pg, _ := store.(*state.PostgresStore)
	for _, message := range messages {
		a.Logger.Info().
			Str("classification", message.Classification).
			Strs("symbols", message.Symbols).
			Msg("digest ready")

		if notifier != nil {
			if err := notifier.Notify(ctx, message); err != nil {
				a.Logger.Error().Err(err).Str("classification", message.Classification).Msg("failed to dispatch digest")
			}
		}
		if pg != nil {
			if err := pg.LogAlerts(ctx, runID, message.Classification, message.Symbols); err != nil {
				a.Logger.Error().Err(err).Msg("failed to persist alert audit row")
			}
		}
	}
}

// ExportOptions hold parameters for exporting one symbol's band history.
type ExportOptions struct {
	Symbol    string
	PNGPath   string
	CSVPath   string
	Days      int
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}
