package menu

import (
	"context"
	"fmt"
	"sort"

	"github.com/FeruzLatifov/hemis-back-sub004/internal/cache"
	"github.com/FeruzLatifov/hemis-back-sub004/internal/domain"
)

// Resolver builds the permission-filtered navigation tree a user sees. The
// flat rows come from the per-language row cache; the resolved tree is
// cached per (user, language) so repeated page loads cost nothing.
type Resolver struct {
	menuCache *cache.MenuCache
}

// NewResolver creates a menu resolver over the given menu cache.
func NewResolver(menuCache *cache.MenuCache) *Resolver {
	return &Resolver{menuCache: menuCache}
}

// GetMenu returns the ordered navigation tree visible to the user. A node
// is visible when its permission code is empty, present in permissionSet, or
// permissionSet contains the wildcard; an invisible node is pruned together
// with its whole subtree, so children of a hidden parent are never exposed.
func (r *Resolver) GetMenu(ctx context.Context, userID string, permissionSet []string, language string) ([]*domain.MenuNode, error) {
	if tree, ok := r.menuCache.GetResult(ctx, userID, language); ok {
		return tree, nil
	}

	rows, err := r.menuCache.Rows(ctx, language)
	if err != nil {
		return nil, fmt.Errorf("resolve menu for user %s: %w", userID, err)
	}

	tree := Filter(rows, permissionSet)
	r.menuCache.SetResult(ctx, userID, language, tree)

	return tree, nil
}

// Filter assembles the flat rows into a tree and prunes nodes the
// permission set does not allow. Exposed separately so it can be exercised
// without any cache behind it.
func Filter(rows []domain.MenuRow, permissionSet []string) []*domain.MenuNode {
	allowed := make(map[string]struct{}, len(permissionSet))
	wildcard := false
	for _, code := range permissionSet {
		if code == domain.PermissionWildcard {
			wildcard = true
		}
		allowed[code] = struct{}{}
	}

	visible := func(row domain.MenuRow) bool {
		if row.PermissionCode == "" || wildcard {
			return true
		}
		_, ok := allowed[row.PermissionCode]
		return ok
	}

	childrenOf := make(map[string][]domain.MenuRow, len(rows))
	for _, row := range rows {
		if !row.Active {
			continue
		}
		childrenOf[row.ParentID] = append(childrenOf[row.ParentID], row)
	}

	var build func(parentID string) []*domain.MenuNode
	build = func(parentID string) []*domain.MenuNode {
		rows := childrenOf[parentID]
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Position < rows[j].Position })

		nodes := make([]*domain.MenuNode, 0, len(rows))
		for _, row := range rows {
			if !visible(row) {
				continue
			}
			nodes = append(nodes, &domain.MenuNode{
				ID:       row.ID,
				Code:     row.Code,
				I18nKey:  row.I18nKey,
				Label:    row.Label,
				URL:      row.URL,
				Position: row.Position,
				Children: build(row.ID),
			})
		}
		return nodes
	}

	return build("")
}
