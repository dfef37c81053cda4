package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/FeruzLatifov/hemis-back-sub004/internal/domain"
	"github.com/FeruzLatifov/hemis-back-sub004/pkg/database"
	apperrors "github.com/FeruzLatifov/hemis-back-sub004/pkg/errors"
)

// PrincipalRepository implements repository.PrincipalRepository against the
// two PostgreSQL user tables. Lookups are reads and go through the cluster's
// read route.
type PrincipalRepository struct {
	cluster *database.Cluster
}

// NewPrincipalRepository creates a new PostgreSQL-backed principal repository.
func NewPrincipalRepository(cluster *database.Cluster) *PrincipalRepository {
	return &PrincipalRepository{cluster: cluster}
}

// FindModernByUsername retrieves a principal from the current user table.
func (r *PrincipalRepository) FindModernByUsername(ctx context.Context, username string) (*domain.Principal, error) {
	query := `
		SELECT id, username, password_hash, full_name, email, is_active, created_at, updated_at
		FROM users
		WHERE username = $1`

	return r.scanPrincipal(ctx, query, username, domain.SourceModern)
}

// FindLegacyByUsername retrieves a principal from the pre-migration user table.
func (r *PrincipalRepository) FindLegacyByUsername(ctx context.Context, username string) (*domain.Principal, error) {
	query := `
		SELECT id, username, password_hash, full_name, email, is_active, created_at, updated_at
		FROM legacy_users
		WHERE username = $1`

	return r.scanPrincipal(ctx, query, username, domain.SourceLegacy)
}

func (r *PrincipalRepository) scanPrincipal(ctx context.Context, query, username string, source domain.SourceStore) (*domain.Principal, error) {
	var p domain.Principal

	err := r.cluster.Read().QueryRow(ctx, query, username).Scan(
		&p.ID,
		&p.Username,
		&p.PasswordHash,
		&p.FullName,
		&p.Email,
		&p.Enabled,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s user %s: %w", source, username, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("query %s user: %w", source, err)
	}

	p.Source = source
	return &p, nil
}
