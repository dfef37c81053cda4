package repository

import (
	"context"

	"github.com/FeruzLatifov/hemis-back-sub004/internal/domain"
)

// PrincipalRepository defines lookups against the two user stores.
type PrincipalRepository interface {
	// FindModernByUsername retrieves a principal from the current user
	// table. Returns errors.ErrNotFound when no row exists.
	FindModernByUsername(ctx context.Context, username string) (*domain.Principal, error)

	// FindLegacyByUsername retrieves a principal from the pre-migration
	// user table. Returns errors.ErrNotFound when no row exists.
	FindLegacyByUsername(ctx context.Context, username string) (*domain.Principal, error)
}

// PermissionRepository aggregates role and permission assignments.
type PermissionRepository interface {
	// PermissionsForUser returns the effective permission codes for a
	// user, aggregated over their roles. An existing user with no grants
	// yields an empty, non-nil slice.
	PermissionsForUser(ctx context.Context, userID string) ([]string, error)

	// UserIDsWithRole returns the IDs of all users holding the role,
	// used for invalidation fan-out.
	UserIDsWithRole(ctx context.Context, roleID string) ([]string, error)

	// UserIDsWithPermission returns the IDs of all users granted the
	// permission through any role.
	UserIDsWithPermission(ctx context.Context, permissionID string) ([]string, error)
}

// MenuRepository loads the flat navigation rows.
type MenuRepository interface {
	// ActiveRows returns all active menu rows with labels resolved for
	// the given language.
	ActiveRows(ctx context.Context, language string) ([]domain.MenuRow, error)
}
