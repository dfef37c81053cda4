package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/FeruzLatifov/hemis-back-sub004/internal/domain"
	"github.com/FeruzLatifov/hemis-back-sub004/internal/repository"
	apperrors "github.com/FeruzLatifov/hemis-back-sub004/pkg/errors"
	"github.com/FeruzLatifov/hemis-back-sub004/pkg/logger"
)

func menuRowsKey(language string) string {
	return "menu:rows:" + language
}

// MenuResultKey identifies one user's resolved tree in one language.
func MenuResultKey(userID, language string) string {
	return "menu:user:" + userID + ":" + language
}

// MenuCache caches two things with the same two-tier policy as permissions:
// the flat per-language row sets (menu structure changes rarely) and the
// per-(user, language) resolved trees.
type MenuCache struct {
	localRows    *Local[[]domain.MenuRow]
	localResults *Local[[]*domain.MenuNode]
	shared       *Shared
	repo         repository.MenuRepository
	ttl          time.Duration
	logger       *slog.Logger
}

// NewMenuCache creates the menu cache. sharedTTL applies to both row sets
// and resolved trees in tier 2.
func NewMenuCache(
	localRows *Local[[]domain.MenuRow],
	localResults *Local[[]*domain.MenuNode],
	shared *Shared,
	repo repository.MenuRepository,
	sharedTTL time.Duration,
	log *slog.Logger,
) *MenuCache {
	return &MenuCache{
		localRows:    localRows,
		localResults: localResults,
		shared:       shared,
		repo:         repo,
		ttl:          sharedTTL,
		logger:       log,
	}
}

// Rows returns the active menu rows for a language, served from the tiers
// or loaded from the database with write-through.
func (c *MenuCache) Rows(ctx context.Context, language string) ([]domain.MenuRow, error) {
	key := menuRowsKey(language)

	if rows, ok := c.localRows.Get(key); ok {
		observeHit("menu_rows", "local")
		return rows, nil
	}
	observeMiss("menu_rows", "local")

	var rows []domain.MenuRow
	err := c.shared.GetJSON(ctx, key, &rows)
	switch {
	case err == nil:
		observeHit("menu_rows", "shared")
		c.localRows.Set(key, rows)
		return rows, nil
	case errors.Is(err, apperrors.ErrCacheUnavailable):
		observeFallback("menu_rows")
		logger.WithContext(ctx, c.logger).WarnContext(ctx, "menu cache unavailable, falling back to database",
			slog.String("error", err.Error()),
		)
	case errors.Is(err, apperrors.ErrNotFound):
		observeMiss("menu_rows", "shared")
	default:
		return nil, fmt.Errorf("read shared menu row cache: %w", err)
	}

	rows, err = c.repo.ActiveRows(ctx, language)
	if err != nil {
		return nil, fmt.Errorf("load menu rows: %w", err)
	}

	if err := c.shared.SetJSON(ctx, key, rows, c.ttl); err != nil {
		logger.WithContext(ctx, c.logger).WarnContext(ctx, "failed to populate shared menu row cache",
			slog.String("error", err.Error()),
		)
	}
	c.localRows.Set(key, rows)

	return rows, nil
}

// GetResult returns a cached resolved tree for (user, language), or false on
// a miss in both tiers. Cache trouble counts as a miss.
func (c *MenuCache) GetResult(ctx context.Context, userID, language string) ([]*domain.MenuNode, bool) {
	key := MenuResultKey(userID, language)

	if tree, ok := c.localResults.Get(key); ok {
		observeHit("menu_result", "local")
		return tree, true
	}
	observeMiss("menu_result", "local")

	var tree []*domain.MenuNode
	if err := c.shared.GetJSON(ctx, key, &tree); err != nil {
		if errors.Is(err, apperrors.ErrCacheUnavailable) {
			logger.WithContext(ctx, c.logger).WarnContext(ctx, "menu result cache unavailable",
				slog.String("error", err.Error()),
			)
		}
		observeMiss("menu_result", "shared")
		return nil, false
	}

	observeHit("menu_result", "shared")
	c.localResults.Set(key, tree)
	return tree, true
}

// SetResult stores a resolved tree in both tiers, best effort.
func (c *MenuCache) SetResult(ctx context.Context, userID, language string, tree []*domain.MenuNode) {
	key := MenuResultKey(userID, language)

	if err := c.shared.SetJSON(ctx, key, tree, c.ttl); err != nil {
		logger.WithContext(ctx, c.logger).WarnContext(ctx, "failed to populate shared menu result cache",
			slog.String("error", err.Error()),
		)
	}
	c.localResults.Set(key, tree)
}

// EvictUser drops one user's resolved trees in every language from both
// tiers. Row sets are untouched: they contain no per-user data.
func (c *MenuCache) EvictUser(ctx context.Context, userID string) error {
	c.localResults.Purge()
	return c.shared.DeleteByPattern(ctx, MenuResultKey(userID, "*"))
}

// EvictAll drops every menu entry, rows and results, after a menu-structure
// edit.
func (c *MenuCache) EvictAll(ctx context.Context) error {
	c.localRows.Purge()
	c.localResults.Purge()
	return c.shared.DeleteByPattern(ctx, "menu:*")
}
