package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/FeruzLatifov/hemis-back-sub004/internal/repository"
	apperrors "github.com/FeruzLatifov/hemis-back-sub004/pkg/errors"
	"github.com/FeruzLatifov/hemis-back-sub004/pkg/logger"
)

func permissionKey(userID string) string {
	return "perms:user:" + userID
}

// PermissionCache answers "what may this user do" on every authenticated
// request. Reads go tier-1 (process-local LRU), then tier-2 (shared Redis),
// then the database; every miss path writes through to the tiers above it.
// An empty permission set is a valid cached value and is never confused with
// "not yet computed": only a true absence falls through.
type PermissionCache struct {
	local  *Local[[]string]
	shared *Shared
	repo   repository.PermissionRepository
	ttl    time.Duration // tier-2 TTL; tier-1 TTL lives inside Local
	logger *slog.Logger
}

// NewPermissionCache creates the two-tier permission cache. sharedTTL is the
// tier-2 expiry; the tier-1 expiry is fixed at construction of local.
func NewPermissionCache(
	local *Local[[]string],
	shared *Shared,
	repo repository.PermissionRepository,
	sharedTTL time.Duration,
	log *slog.Logger,
) *PermissionCache {
	return &PermissionCache{
		local:  local,
		shared: shared,
		repo:   repo,
		ttl:    sharedTTL,
		logger: log,
	}
}

// GetPermissions returns the user's effective permission codes. The result
// is identical whichever tier serves it; cache unavailability degrades to
// the database and is logged, never surfaced.
func (c *PermissionCache) GetPermissions(ctx context.Context, userID string) ([]string, error) {
	key := permissionKey(userID)

	if perms, ok := c.local.Get(key); ok {
		observeHit("permissions", "local")
		return perms, nil
	}
	observeMiss("permissions", "local")

	var perms []string
	err := c.shared.GetJSON(ctx, key, &perms)
	switch {
	case err == nil:
		observeHit("permissions", "shared")
		if perms == nil {
			perms = []string{}
		}
		c.local.Set(key, perms)
		return perms, nil
	case errors.Is(err, apperrors.ErrCacheUnavailable):
		observeFallback("permissions")
		logger.WithContext(ctx, c.logger).WarnContext(ctx, "permission cache unavailable, falling back to database",
			slog.String("error", err.Error()),
		)
	case errors.Is(err, apperrors.ErrNotFound):
		observeMiss("permissions", "shared")
	default:
		return nil, fmt.Errorf("read shared permission cache: %w", err)
	}

	perms, err = c.repo.PermissionsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load permissions for user %s: %w", userID, err)
	}
	if perms == nil {
		perms = []string{}
	}

	if err := c.shared.SetJSON(ctx, key, perms, c.ttl); err != nil {
		logger.WithContext(ctx, c.logger).WarnContext(ctx, "failed to populate shared permission cache",
			slog.String("error", err.Error()),
		)
	}
	c.local.Set(key, perms)

	return perms, nil
}

// Evict drops a single user's entry from both tiers. The tier-2 eviction
// error is returned so the caller can log it; tier-1 eviction cannot fail.
func (c *PermissionCache) Evict(ctx context.Context, userID string) error {
	c.local.Delete(permissionKey(userID))
	return c.shared.Delete(ctx, permissionKey(userID))
}

// EvictAllLocal drops every tier-1 entry, used when a broad change makes
// per-user eviction impractical.
func (c *PermissionCache) EvictAllLocal() {
	c.local.Purge()
}
