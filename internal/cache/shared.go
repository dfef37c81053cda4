package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"

	apperrors "github.com/FeruzLatifov/hemis-back-sub004/pkg/errors"
)

// sharedReadTimeout caps every tier-2 read. A read that cannot answer within
// this budget falls through to the database; blocking the request on a slow
// cache would invert the point of caching.
const sharedReadTimeout = 50 * time.Millisecond

// Shared is the tier-2 cache: Redis, shared across all process instances.
// Every call goes through a circuit breaker so that a down Redis degrades to
// database reads after a few failures instead of paying the timeout on every
// request. All errors, including breaker-open and timeouts, surface as
// apperrors.ErrCacheUnavailable, which callers treat as a miss, never as a
// request failure.
type Shared struct {
	client  *redis.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  *slog.Logger
}

// NewShared creates a tier-2 cache over the given Redis client.
func NewShared(client *redis.Client, logger *slog.Logger) *Shared {
	settings := gobreaker.Settings{
		Name:        "shared-cache",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			breakerState.WithLabelValues(name).Set(float64(to))
			logger.Warn("cache circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	}

	return &Shared{
		client:  client,
		breaker: gobreaker.NewCircuitBreaker[[]byte](settings),
		logger:  logger,
	}
}

// GetJSON reads a key and unmarshals it into dst. Returns
// apperrors.ErrCacheUnavailable on any failure and apperrors.ErrNotFound on
// a clean miss.
func (c *Shared) GetJSON(ctx context.Context, key string, dst any) error {
	data, err := c.breaker.Execute(func() ([]byte, error) {
		readCtx, cancel := context.WithTimeout(ctx, sharedReadTimeout)
		defer cancel()
		return c.client.Get(readCtx, key).Bytes()
	})
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("shared cache get %s: %w", key, apperrors.ErrCacheUnavailable)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		// A corrupt entry is indistinguishable from a miss for callers.
		return fmt.Errorf("shared cache decode %s: %w", key, apperrors.ErrNotFound)
	}

	return nil
}

// SetJSON writes a key with the given TTL, best effort.
func (c *Shared) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("shared cache encode %s: %w", key, err)
	}

	_, err = c.breaker.Execute(func() ([]byte, error) {
		return nil, c.client.Set(ctx, key, data, ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("shared cache set %s: %w", key, apperrors.ErrCacheUnavailable)
	}

	return nil
}

// Delete removes keys. Unlike reads, eviction failures matter: the caller
// logs them and relies on TTL expiry as the safety net.
func (c *Shared) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	_, err := c.breaker.Execute(func() ([]byte, error) {
		return nil, c.client.Del(ctx, keys...).Err()
	})
	if err != nil {
		return fmt.Errorf("shared cache delete: %w", apperrors.ErrCacheUnavailable)
	}

	return nil
}

// DeleteByPattern removes all keys matching a glob pattern using SCAN, for
// broad invalidations like a menu-structure edit.
func (c *Shared) DeleteByPattern(ctx context.Context, pattern string) error {
	_, err := c.breaker.Execute(func() ([]byte, error) {
		iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
		batch := make([]string, 0, 100)
		for iter.Next(ctx) {
			batch = append(batch, iter.Val())
			if len(batch) == 100 {
				if err := c.client.Del(ctx, batch...).Err(); err != nil {
					return nil, err
				}
				batch = batch[:0]
			}
		}
		if err := iter.Err(); err != nil {
			return nil, err
		}
		if len(batch) > 0 {
			if err := c.client.Del(ctx, batch...).Err(); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("shared cache delete pattern %s: %w", pattern, apperrors.ErrCacheUnavailable)
	}

	return nil
}

// Ping verifies connectivity for health checks.
func (c *Shared) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
