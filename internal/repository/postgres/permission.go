package postgres

import (
	"context"
	"fmt"

	"github.com/FeruzLatifov/hemis-back-sub004/pkg/database"
)

// PermissionRepository implements repository.PermissionRepository against
// the role assignment tables.
type PermissionRepository struct {
	cluster *database.Cluster
}

// NewPermissionRepository creates a new PostgreSQL-backed permission repository.
func NewPermissionRepository(cluster *database.Cluster) *PermissionRepository {
	return &PermissionRepository{cluster: cluster}
}

// PermissionsForUser aggregates distinct permission codes over the user's
// roles. A user with no grants gets an empty, non-nil slice so callers can
// tell "no permissions" apart from "not computed".
func (r *PermissionRepository) PermissionsForUser(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT DISTINCT p.code
		FROM user_roles ur
		JOIN role_permissions rp ON rp.role_id = ur.role_id
		JOIN permissions p ON p.id = rp.permission_id
		WHERE ur.user_id = $1
		ORDER BY p.code`

	return r.queryStrings(ctx, query, userID)
}

// UserIDsWithRole returns the IDs of all users holding the role.
func (r *PermissionRepository) UserIDsWithRole(ctx context.Context, roleID string) ([]string, error) {
	query := `
		SELECT user_id
		FROM user_roles
		WHERE role_id = $1`

	return r.queryStrings(ctx, query, roleID)
}

// UserIDsWithPermission returns the IDs of all users granted the permission
// through any role.
func (r *PermissionRepository) UserIDsWithPermission(ctx context.Context, permissionID string) ([]string, error) {
	query := `
		SELECT DISTINCT ur.user_id
		FROM role_permissions rp
		JOIN user_roles ur ON ur.role_id = rp.role_id
		WHERE rp.permission_id = $1`

	return r.queryStrings(ctx, query, permissionID)
}

func (r *PermissionRepository) queryStrings(ctx context.Context, query string, arg any) ([]string, error) {
	rows, err := r.cluster.Read().Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query permissions: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan permission row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate permission rows: %w", err)
	}

	return out, nil
}
