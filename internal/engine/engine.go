package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"support-band-alerts/internal/band"
	"support-band-alerts/internal/fetcher"
	"support-band-alerts/internal/state"
)

// Config tunes one evaluation run.
type Config struct {
	Window           int
	DepthPct         decimal.Decimal
	NearThresholdPct decimal.Decimal
	LookbackDays     int
	Pacing           time.Duration
	RetryAttempts    int
	RetryDelay       time.Duration
	RetryBackoff     float64
	Now              func() time.Time
}

// Result collects the symbols that need a notification this run, in
// evaluation order.
type Result struct {
	Crossed []string
	Near    []string
}

// Engine evaluates every symbol of a run against the support band and the
// persisted dedup state. Per-symbol failures are skipped, never fatal.
type Engine struct {
	provider fetcher.HistoryProvider
	store    state.Store
	cfg      Config
	logger   zerolog.Logger
	runID    string
}

// New constructs an evaluation engine. Zero config values fall back to the
// deployment defaults (window 12, 90 day lookback, 3 attempts).
func New(provider fetcher.HistoryProvider, store state.Store, cfg Config, logger zerolog.Logger) *Engine {
	if cfg.Window <= 0 {
		cfg.Window = 12
	}
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 90
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 5 * time.Second
	}
	if cfg.RetryBackoff < 1 {
		cfg.RetryBackoff = 2
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	runID := uuid.NewString()
	return &Engine{
		provider: provider,
		store:    store,
		cfg:      cfg,
		logger:   logger.With().Str("component", "engine").Str("run_id", runID).Logger(),
		runID:    runID,
	}
}

// RunID identifies this engine's run in logs and audit rows.
func (e *Engine) RunID() string {
	return e.runID
}

// Evaluate processes the symbols in list order. The alert record is loaded
// once, mutated as symbols qualify, and saved once at the end; a symbol is
// added to the result only after its dedup slot is marked.
func (e *Engine) Evaluate(ctx context.Context, symbols []string) (Result, error) {
	record, err := e.store.Load(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load alert state: %w", err)
	}

	today := state.Today(e.cfg.Now())
	var result Result

	for i, symbol := range symbols {
		if i > 0 && e.cfg.Pacing > 0 {
			if err := sleep(ctx, e.cfg.Pacing); err != nil {
				break
			}
		}
		if ctx.Err() != nil {
			break
		}
		e.evaluateSymbol(ctx, symbol, record, today, &result)
	}

	if err := e.store.Save(ctx, record); err != nil {
		return result, fmt.Errorf("save alert state: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	e.logger.Info().
		Int("symbols", len(symbols)).
		Int("crossed", len(result.Crossed)).
		Int("near", len(result.Near)).
		Str("date", today).
		Msg("evaluation complete")
	return result, nil
}

func (e *Engine) evaluateSymbol(ctx context.Context, symbol string, record *state.Record, today string, result *Result) {
	logger := e.logger.With().Str("symbol", symbol).Logger()

	history, err := e.fetchWithRetry(ctx, symbol)
	if err != nil {
		logger.Warn().Err(err).Msg("history fetch failed; skipping symbol")
		return
	}
	if len(history) == 0 {
		logger.Debug().Msg("no history; skipping symbol")
		return
	}

	indicator, err := band.Compute(history, e.cfg.Window, e.cfg.DepthPct)
	if err != nil {
		logger.Warn().Err(err).Msg("indicator parameters rejected; skipping symbol")
		return
	}
	if indicator == nil {
		logger.Debug().Int("points", len(history)).Int("window", e.cfg.Window).Msg("insufficient history; skipping symbol")
		return
	}

	price := history[len(history)-1].Price
	classification, err := band.Classify(price, indicator.SupportLevel, e.cfg.NearThresholdPct)
	if err != nil {
		if errors.Is(err, band.ErrInvalidIndicator) {
			logger.Warn().Str("support", indicator.SupportLevel.String()).Msg("invalid indicator from upstream data; skipping symbol")
			return
		}
		logger.Warn().Err(err).Msg("classification failed; skipping symbol")
		return
	}

	logger.Debug().
		Str("price", price.StringFixed(4)).
		Str("support", indicator.SupportLevel.StringFixed(4)).
		Str("classification", classification.String()).
		Msg("symbol evaluated")

	if classification == band.Normal {
		return
	}
	if !record.ShouldNotify(symbol, classification, today) {
		logger.Debug().Str("classification", classification.String()).Msg("already notified today; suppressed")
		return
	}

	record.MarkNotified(symbol, classification, today)
	switch classification {
	case band.Crossed:
		result.Crossed = append(result.Crossed, symbol)
	case band.Near:
		result.Near = append(result.Near, symbol)
	}
}

func (e *Engine) fetchWithRetry(ctx context.Context, symbol string) ([]band.PricePoint, error) {
	delay := e.cfg.RetryDelay
	var lastErr error

	for attempt := 1; attempt <= e.cfg.RetryAttempts; attempt++ {
		history, err := e.provider.DailyHistory(ctx, symbol, e.cfg.LookbackDays)
		if err == nil {
			return history, nil
		}
		lastErr = err
		if attempt == e.cfg.RetryAttempts || ctx.Err() != nil {
			break
		}

		e.logger.Warn().Err(err).Str("symbol", symbol).Int("attempt", attempt).Dur("retry_in", delay).Msg("history fetch failed; retrying")
		if err := sleep(ctx, delay); err != nil {
			return nil, lastErr
		}
		delay = time.Duration(float64(delay) * e.cfg.RetryBackoff)
	}
	return nil, lastErr
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
