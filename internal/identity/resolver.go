package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/FeruzLatifov/hemis-back-sub004/internal/domain"
	"github.com/FeruzLatifov/hemis-back-sub004/internal/repository"
	apperrors "github.com/FeruzLatifov/hemis-back-sub004/pkg/errors"
	"github.com/FeruzLatifov/hemis-back-sub004/pkg/logger"
)

// Resolver looks a username up across the two user stores. The modern store
// holds nearly all users and always wins; the legacy store is consulted only
// on a modern-store miss. Exactly one store answers, records are never
// merged.
type Resolver struct {
	principals repository.PrincipalRepository
	logger     *slog.Logger
}

// NewResolver creates an identity resolver over the given principal repository.
func NewResolver(principals repository.PrincipalRepository, logger *slog.Logger) *Resolver {
	return &Resolver{
		principals: principals,
		logger:     logger,
	}
}

// Resolve returns the principal for the username, or errors.ErrNotFound when
// neither store has it. Callers must render a NotFound as a generic
// credential failure so login responses cannot be used to enumerate
// usernames.
func (r *Resolver) Resolve(ctx context.Context, username string) (*domain.Principal, error) {
	p, err := r.principals.FindModernByUsername(ctx, username)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("resolve username in modern store: %w", err)
	}

	p, err = r.principals.FindLegacyByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("resolve username: %w", apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("resolve username in legacy store: %w", err)
	}

	logger.WithContext(ctx, r.logger).DebugContext(ctx, "principal resolved from legacy store",
		slog.String("principal_id", p.ID),
	)

	return p, nil
}
