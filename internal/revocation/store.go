package revocation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"github.com/FeruzLatifov/hemis-back-sub004/pkg/logger"
)

const keyPrefix = "revoked:"

// result: clean|revoked|error. The error count matters operationally: every
// error here is a request rejected fail-closed.
var revocationChecks = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "identity_revocation_checks_total",
		Help: "Denylist lookups by outcome",
	},
	[]string{"result"},
)

// Store is a TTL denylist of token IDs backed by Redis. Tokens are otherwise
// stateless, so this is the only shared state consulted per request. An
// entry's TTL is set to the token's remaining lifetime at revocation time,
// so the denylist self-cleans and never outgrows the set of live tokens.
type Store struct {
	client *redis.Client
	logger *slog.Logger
}

// NewStore creates a new revocation store.
func NewStore(client *redis.Client, logger *slog.Logger) *Store {
	return &Store{
		client: client,
		logger: logger,
	}
}

// Revoke marks a token ID as unusable for the given remaining lifetime. A
// non-positive ttl means the token already expired and there is nothing to
// deny.
func (s *Store) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	if err := s.client.Set(ctx, keyPrefix+tokenID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token %s: %w", tokenID, err)
	}

	return nil
}

// Entry pairs a token ID with the remaining lifetime to deny it for.
type Entry struct {
	TokenID string
	TTL     time.Duration
}

// RevokeAll revokes a batch of token IDs in a single pipeline round trip,
// used at logout to kill the access and refresh tokens of one session
// together. A partial failure is logged as a security-relevant anomaly but
// does not fail the whole batch: the error returned reflects only a total
// failure to reach the store.
func (s *Store) RevokeAll(ctx context.Context, entries []Entry) error {
	live := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.TTL > 0 {
			live = append(live, e)
		}
	}
	if len(live) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	for _, e := range live {
		pipe.Set(ctx, keyPrefix+e.TokenID, "1", e.TTL)
	}

	cmds, err := pipe.Exec(ctx)

	failed := 0
	for i, cmd := range cmds {
		if cmd.Err() != nil {
			failed++
			logger.WithContext(ctx, s.logger).WarnContext(ctx, "token revocation failed for batch entry",
				slog.String("token_id", live[i].TokenID),
				slog.String("error", cmd.Err().Error()),
			)
		}
	}

	if failed == len(live) && err != nil {
		return fmt.Errorf("revoke token batch: %w", err)
	}

	return nil
}

// IsRevoked reports whether a token ID is on the denylist. An unreachable
// store returns an error; the caller decides the policy, and the request
// pipeline treats it as revoked because a denylist that cannot be read
// cannot prove a token is still good.
func (s *Store) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, keyPrefix+tokenID).Result()
	if err != nil {
		revocationChecks.WithLabelValues("error").Inc()
		return false, fmt.Errorf("check revocation of %s: %w", tokenID, err)
	}
	if n > 0 {
		revocationChecks.WithLabelValues("revoked").Inc()
		return true, nil
	}
	revocationChecks.WithLabelValues("clean").Inc()
	return false, nil
}

// Ping verifies connectivity for health checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
