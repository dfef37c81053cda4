package cache

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/FeruzLatifov/hemis-back-sub004/internal/repository"
	"github.com/FeruzLatifov/hemis-back-sub004/pkg/logger"
)

// Notifier announces completed invalidations to other process instances so
// they can drop their tier-1 entries too. Publishing is best effort: tier-2
// is already evicted by the time the notifier runs, and sibling tier-1
// entries expire within their short TTL regardless.
type Notifier interface {
	CacheInvalidated(ctx context.Context, scope string, userIDs []string) error
}

// Invalidation scopes announced to sibling instances.
const (
	ScopeUser       = "user"
	ScopeRole       = "role"
	ScopePermission = "permission"
	ScopeMenu       = "menu"
)

// Invalidator is the write side of the caches: it evicts permission and menu
// entries when role or permission assignments change. Eviction runs
// synchronously before the mutating call is reported complete, which bounds
// the staleness window; a missed eviction degrades to TTL expiry.
type Invalidator struct {
	perms    *PermissionCache
	menu     *MenuCache
	repo     repository.PermissionRepository
	notifier Notifier
	logger   *slog.Logger
}

// NewInvalidator creates an invalidator. notifier may be nil when no event
// bus is configured.
func NewInvalidator(
	perms *PermissionCache,
	menu *MenuCache,
	repo repository.PermissionRepository,
	notifier Notifier,
	log *slog.Logger,
) *Invalidator {
	return &Invalidator{
		perms:    perms,
		menu:     menu,
		repo:     repo,
		notifier: notifier,
		logger:   log,
	}
}

// InvalidateUser evicts one user's permission and menu entries from both
// tiers.
func (i *Invalidator) InvalidateUser(ctx context.Context, userID string) error {
	if err := i.evictUsers(ctx, []string{userID}); err != nil {
		return err
	}
	i.notify(ctx, ScopeUser, []string{userID})
	return nil
}

// InvalidateRole fans out to every user holding the role.
func (i *Invalidator) InvalidateRole(ctx context.Context, roleID string) error {
	userIDs, err := i.repo.UserIDsWithRole(ctx, roleID)
	if err != nil {
		return fmt.Errorf("resolve users for role %s: %w", roleID, err)
	}

	if err := i.evictUsers(ctx, userIDs); err != nil {
		return err
	}
	i.notify(ctx, ScopeRole, userIDs)
	return nil
}

// InvalidatePermission fans out to every user granted the permission through
// any role. Rare and administrative; the fan-out may be broad.
func (i *Invalidator) InvalidatePermission(ctx context.Context, permissionID string) error {
	userIDs, err := i.repo.UserIDsWithPermission(ctx, permissionID)
	if err != nil {
		return fmt.Errorf("resolve users for permission %s: %w", permissionID, err)
	}

	if err := i.evictUsers(ctx, userIDs); err != nil {
		return err
	}
	i.notify(ctx, ScopePermission, userIDs)
	return nil
}

// InvalidateMenu drops all cached menu rows and resolved trees after a
// menu-structure edit.
func (i *Invalidator) InvalidateMenu(ctx context.Context) error {
	if err := i.menu.EvictAll(ctx); err != nil {
		return fmt.Errorf("evict menu caches: %w", err)
	}
	i.notify(ctx, ScopeMenu, nil)
	return nil
}

func (i *Invalidator) evictUsers(ctx context.Context, userIDs []string) error {
	for _, userID := range userIDs {
		if err := i.perms.Evict(ctx, userID); err != nil {
			return fmt.Errorf("evict permissions for user %s: %w", userID, err)
		}
		if err := i.menu.EvictUser(ctx, userID); err != nil {
			return fmt.Errorf("evict menu for user %s: %w", userID, err)
		}
	}
	return nil
}

func (i *Invalidator) notify(ctx context.Context, scope string, userIDs []string) {
	if i.notifier == nil {
		return
	}
	if err := i.notifier.CacheInvalidated(ctx, scope, userIDs); err != nil {
		logger.WithContext(ctx, i.logger).WarnContext(ctx, "failed to announce cache invalidation",
			slog.String("scope", scope),
			slog.String("error", err.Error()),
		)
	}
}
