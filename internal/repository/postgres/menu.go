package postgres

import (
	"context"
	"fmt"

	"github.com/FeruzLatifov/hemis-back-sub004/internal/domain"
	"github.com/FeruzLatifov/hemis-back-sub004/pkg/database"
)

// MenuRepository implements repository.MenuRepository against the menu and
// translation tables.
type MenuRepository struct {
	cluster *database.Cluster
}

// NewMenuRepository creates a new PostgreSQL-backed menu repository.
func NewMenuRepository(cluster *database.Cluster) *MenuRepository {
	return &MenuRepository{cluster: cluster}
}

// ActiveRows returns all active menu rows ordered by position, with labels
// resolved for the given language and falling back to the i18n key.
func (r *MenuRepository) ActiveRows(ctx context.Context, language string) ([]domain.MenuRow, error) {
	query := `
		SELECT m.id, m.code, m.i18n_key,
		       COALESCE(t.label, m.i18n_key),
		       COALESCE(m.url, ''),
		       COALESCE(m.permission_code, ''),
		       COALESCE(m.parent_id::text, ''),
		       m.position
		FROM menus m
		LEFT JOIN menu_translations t ON t.menu_id = m.id AND t.language = $1
		WHERE m.is_active = true
		ORDER BY m.position`

	rows, err := r.cluster.Read().Query(ctx, query, language)
	if err != nil {
		return nil, fmt.Errorf("query menu rows: %w", err)
	}
	defer rows.Close()

	out := make([]domain.MenuRow, 0)
	for rows.Next() {
		var m domain.MenuRow
		if err := rows.Scan(
			&m.ID,
			&m.Code,
			&m.I18nKey,
			&m.Label,
			&m.URL,
			&m.PermissionCode,
			&m.ParentID,
			&m.Position,
		); err != nil {
			return nil, fmt.Errorf("scan menu row: %w", err)
		}
		m.Active = true
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate menu rows: %w", err)
	}

	return out, nil
}
