package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

const redisSaveAttempts = 3

// RedisStore keeps the alert record as a single JSON value. Saves run inside
// a WATCH transaction: if another run replaced the value since it was read,
// the write is retried with the fresh value merged in.
type RedisStore struct {
	client *redis.Client
	key    string
	logger zerolog.Logger
}

// NewRedisStore constructs a redis-backed store.
func NewRedisStore(addr, key string, logger zerolog.Logger) *RedisStore {
	if key == "" {
		key = "bandwatch:alert_state"
	}
	return &RedisStore{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		key:    key,
		logger: logger.With().Str("component", "state_redis").Str("key", key).Logger(),
	}
}

// Load reads and decodes the stored record. A missing key is an empty
// record; malformed content is logged and yields an empty record.
func (s *RedisStore) Load(ctx context.Context) (*Record, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to load alert state; starting from empty record")
		}
		return NewRecord(), nil
	}

	record, err := Decode(data)
	if err != nil {
		s.logger.Warn().Err(err).Msg("stored alert state is malformed; starting from empty record")
		return NewRecord(), nil
	}
	return record, nil
}

// Save replaces the stored record, merging concurrent updates on conflict.
func (s *RedisStore) Save(ctx context.Context, record *Record) error {
	save := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, s.key).Bytes()
		if err == nil {
			if onStore, decodeErr := Decode(current); decodeErr == nil {
				record.Merge(onStore)
			}
		} else if !errors.Is(err, redis.Nil) {
			return err
		}

		data, err := record.Encode()
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.key, data, 0)
			return nil
		})
		return err
	}

	var err error
	for attempt := 0; attempt < redisSaveAttempts; attempt++ {
		err = s.client.Watch(ctx, save, s.key)
		if err == nil {
			return nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
		s.logger.Warn().Int("attempt", attempt+1).Msg("alert state changed during save; retrying")
	}
	return fmt.Errorf("save alert state: %w", err)
}

// Close releases the redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
