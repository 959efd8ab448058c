package state

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const (
	ensureSchemaSQL = `CREATE TABLE IF NOT EXISTS alert_state (
        symbol     text PRIMARY KEY,
        crossed_on date,
        near_on    date,
        updated_at timestamptz NOT NULL DEFAULT now()
    );
    CREATE TABLE IF NOT EXISTS alert_log (
        id             bigserial PRIMARY KEY,
        run_id         text NOT NULL,
        classification text NOT NULL,
        symbols        text[] NOT NULL,
        created_at     timestamptz NOT NULL DEFAULT now()
    );`

	loadStateSQL = `SELECT symbol, crossed_on, near_on FROM alert_state;`

	upsertStateSQL = `INSERT INTO alert_state (symbol, crossed_on, near_on, updated_at)
    VALUES ($1, $2, $3, now())
    ON CONFLICT (symbol) DO UPDATE
    SET crossed_on = EXCLUDED.crossed_on,
        near_on    = EXCLUDED.near_on,
        updated_at = now();`

	insertAlertLogSQL = `INSERT INTO alert_log (run_id, classification, symbols)
    VALUES ($1, $2, $3);`

	recentAlertsSQL = `SELECT id, run_id, classification, symbols, created_at
    FROM alert_log
    ORDER BY created_at DESC
    LIMIT $1;`

	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

// AlertLogEntry is one audited digest dispatch.
type AlertLogEntry struct {
	ID             int64
	RunID          string
	Classification string
	Symbols        []string
	CreatedAt      time.Time
}

// PostgresStore keeps the alert record in PostgreSQL, one row per symbol.
// A session advisory lock serialises overlapping runs.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// OpenPostgres connects a pool and ensures the schema exists. Connection
// failure here is fatal for the run: without the store there is no dedup
// truth to consult.
func OpenPostgres(ctx context.Context, dsn string, logger zerolog.Logger) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("state.dsn is required for the postgres backend")
	}

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse state dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	if _, err := pool.Exec(ctx, ensureSchemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure state schema: %w", err)
	}

	return &PostgresStore{
		pool:   pool,
		logger: logger.With().Str("component", "state_postgres").Logger(),
	}, nil
}

// Close releases the underlying pool resources.
func (s *PostgresStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Load reads all per-symbol rows. Query failure is logged and yields an
// empty record so the run can still evaluate.
func (s *PostgresStore) Load(ctx context.Context) (*Record, error) {
	record := NewRecord()

	rows, err := s.pool.Query(ctx, loadStateSQL)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to load alert state; starting from empty record")
		return record, nil
	}
	defer rows.Close()

	for rows.Next() {
		var symbol string
		var crossedOn, nearOn *time.Time
		if err := rows.Scan(&symbol, &crossedOn, &nearOn); err != nil {
			s.logger.Warn().Err(err).Msg("failed to scan alert state row; starting from empty record")
			return NewRecord(), nil
		}
		record.Symbols[symbol] = Entry{
			CrossedOn: formatDate(crossedOn),
			NearOn:    formatDate(nearOn),
		}
	}
	if err := rows.Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to read alert state rows; starting from empty record")
		return NewRecord(), nil
	}

	return record, nil
}

// Save upserts every symbol row in one transaction.
func (s *PostgresStore) Save(ctx context.Context, record *Record) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin state save: %w", err)
	}
	defer tx.Rollback(ctx)

	for symbol, entry := range record.Symbols {
		if _, err := tx.Exec(ctx, upsertStateSQL, symbol, parseDate(entry.CrossedOn), parseDate(entry.NearOn)); err != nil {
			return fmt.Errorf("upsert alert state for %s: %w", symbol, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit state save: %w", err)
	}
	return nil
}

// TryRunLock attempts the advisory lock that guards against overlapping
// runs. The returned func releases the lock and its connection.
func (s *PostgresStore) TryRunLock(ctx context.Context, key int64) (func(), bool, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		if _, err := conn.Exec(context.Background(), advisoryUnlockSQL, key); err != nil {
			s.logger.Warn().Err(err).Msg("failed to release advisory lock")
		}
		conn.Release()
	}
	return unlock, true, nil
}

// LogAlerts appends one audit row for a dispatched digest.
func (s *PostgresStore) LogAlerts(ctx context.Context, runID, classification string, symbols []string) error {
	if len(symbols) == 0 {
		return nil
	}
	if _, err := s.pool.Exec(ctx, insertAlertLogSQL, runID, classification, symbols); err != nil {
		return fmt.Errorf("insert alert log: %w", err)
	}
	return nil
}

// RecentAlerts lists the newest audit rows, newest first.
func (s *PostgresStore) RecentAlerts(ctx context.Context, limit int) ([]AlertLogEntry, error) {
	rows, err := s.pool.Query(ctx, recentAlertsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent alerts: %w", err)
	}
	defer rows.Close()

	var entries []AlertLogEntry
	for rows.Next() {
		var entry AlertLogEntry
		if err := rows.Scan(&entry.ID, &entry.RunID, &entry.Classification, &entry.Symbols, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan alert log row: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(dateLayout)
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return nil
	}
	return &t
}

var _ Store = (*PostgresStore)(nil)
