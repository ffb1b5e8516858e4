// README: Settings store; Postgres is the source of truth, Redis caches reads.
package settings

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"ridebook/internal/infra"
)

const cacheKeyPrefix = "settings:"

// absentMarker caches a missing key so repeated misses do not hit Postgres.
const absentMarker = "\x00absent"

type Store struct {
	db    *pgxpool.Pool
	cache *redis.Client
	ttl   time.Duration
	log   zerolog.Logger
}

func NewStore(db *pgxpool.Pool, cache *redis.Client, ttl time.Duration, log zerolog.Logger) *Store {
	return &Store{db: db, cache: cache, ttl: ttl, log: log}
}

func (s *Store) Lookup(ctx context.Context, key string) (string, bool, error) {
	if s.cache != nil {
		v, err := s.cache.Get(ctx, cacheKeyPrefix+key).Result()
		switch {
		case err == nil:
			if v == absentMarker {
				return "", false, nil
			}
			return v, true, nil
		case !errors.Is(err, redis.Nil):
			s.log.Warn().Err(err).Str("key", key).Msg("settings cache read failed")
		}
	}

	var value string
	// inside a unit of work this reads on the transaction's connection
	err := infra.Conn(ctx, s.db).QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	found := true
	if errors.Is(err, pgx.ErrNoRows) {
		found = false
	} else if err != nil {
		return "", false, err
	}

	if s.cache != nil {
		cached := value
		if !found {
			cached = absentMarker
		}
		if err := s.cache.Set(ctx, cacheKeyPrefix+key, cached, s.ttl).Err(); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("settings cache write failed")
		}
	}
	return value, found, nil
}
