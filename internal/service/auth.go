package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/FeruzLatifov/hemis-back-sub004/internal/auth"
	"github.com/FeruzLatifov/hemis-back-sub004/internal/cache"
	"github.com/FeruzLatifov/hemis-back-sub004/internal/domain"
	"github.com/FeruzLatifov/hemis-back-sub004/internal/identity"
	"github.com/FeruzLatifov/hemis-back-sub004/internal/revocation"
	apperrors "github.com/FeruzLatifov/hemis-back-sub004/pkg/errors"
	"github.com/FeruzLatifov/hemis-back-sub004/pkg/logger"
)

// EventPublisher is the subset of the event publisher the auth service uses.
// Nil disables publishing.
type EventPublisher interface {
	UserLoggedIn(ctx context.Context, userID, username, sourceStore string) error
	TokenRevoked(ctx context.Context, userID string, tokenIDs []string, reason string) error
}

// AuthService implements login, token refresh, logout and per-request
// authentication over the identity, token, revocation and cache components.
type AuthService struct {
	resolver   *identity.Resolver
	tokens     *auth.TokenManager
	revocation *revocation.Store
	permCache  *cache.PermissionCache
	publisher  EventPublisher
	logger     *slog.Logger
}

// NewAuthService creates the auth service.
func NewAuthService(
	resolver *identity.Resolver,
	tokens *auth.TokenManager,
	revocationStore *revocation.Store,
	permCache *cache.PermissionCache,
	publisher EventPublisher,
	log *slog.Logger,
) *AuthService {
	return &AuthService{
		resolver:   resolver,
		tokens:     tokens,
		revocation: revocationStore,
		permCache:  permCache,
		publisher:  publisher,
		logger:     log,
	}
}

// defaultScope marks tokens issued through the interactive login flow.
var defaultScope = []string{"api"}

// compatScope marks extended-lifetime tokens for legacy external clients.
var compatScope = []string{"compat"}

// Login authenticates a username and password against both user stores and
// returns a fresh token pair. Unknown usernames and wrong passwords are
// indistinguishable in the returned error.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.Principal, *domain.TokenPair, error) {
	principal, err := s.authenticate(ctx, username, password)
	if err != nil {
		return nil, nil, err
	}

	pair, _, err := s.issuePair(principal)
	if err != nil {
		return nil, nil, fmt.Errorf("issue tokens: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.UserLoggedIn(ctx, principal.ID, principal.Username, string(principal.Source)); err != nil {
			logger.WithContext(ctx, s.logger).WarnContext(ctx, "failed to publish login event",
				slog.String("user_id", principal.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	logger.WithContext(ctx, s.logger).InfoContext(ctx, "user logged in",
		slog.String("user_id", principal.ID),
		slog.String("source_store", string(principal.Source)),
	)

	return principal, pair, nil
}

// IssueCompat authenticates like Login but returns a single extended-lifetime
// token for legacy external clients that cannot refresh.
func (s *AuthService) IssueCompat(ctx context.Context, username, password string) (string, *auth.Claims, error) {
	principal, err := s.authenticate(ctx, username, password)
	if err != nil {
		return "", nil, err
	}

	raw, claims, err := s.tokens.Issue(principal.ID, principal.Username, compatScope, auth.KindCompat)
	if err != nil {
		return "", nil, fmt.Errorf("issue compat token: %w", err)
	}

	logger.WithContext(ctx, s.logger).InfoContext(ctx, "compat token issued",
		slog.String("user_id", principal.ID),
		slog.String("token_id", claims.TokenID()),
	)

	return raw, claims, nil
}

// Refresh exchanges a valid, unrevoked refresh token for a new pair. The
// presented refresh token is revoked for its remaining lifetime so it cannot
// be replayed.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.tokens.ValidateKind(refreshToken, auth.KindRefresh)
	if err != nil {
		return nil, apperrors.TokenInvalid()
	}

	revoked, err := s.revocation.IsRevoked(ctx, claims.TokenID())
	if err != nil {
		// An unreadable denylist cannot prove the token is still good.
		logger.WithContext(ctx, s.logger).WarnContext(ctx, "revocation store unreachable during refresh",
			slog.String("error", err.Error()),
		)
		return nil, apperrors.TokenInvalid()
	}
	if revoked {
		return nil, apperrors.TokenInvalid()
	}

	pair, _, err := s.issuePairFor(claims.UserID(), claims.Username, claims.Scope)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}

	if err := s.revocation.Revoke(ctx, claims.TokenID(), claims.RemainingLifetime()); err != nil {
		logger.WithContext(ctx, s.logger).WarnContext(ctx, "failed to revoke rotated refresh token",
			slog.String("token_id", claims.TokenID()),
			slog.String("error", err.Error()),
		)
	}

	return pair, nil
}

// Logout revokes the session's access token and, when presented, its refresh
// token in one batch. Partial revocation failures are logged inside the
// store and never block the logout.
func (s *AuthService) Logout(ctx context.Context, accessClaims *auth.Claims, refreshToken string) error {
	entries := []revocation.Entry{
		{TokenID: accessClaims.TokenID(), TTL: accessClaims.RemainingLifetime()},
	}
	tokenIDs := []string{accessClaims.TokenID()}

	if refreshToken != "" {
		if refreshClaims, err := s.tokens.ValidateKind(refreshToken, auth.KindRefresh); err == nil {
			entries = append(entries, revocation.Entry{
				TokenID: refreshClaims.TokenID(),
				TTL:     refreshClaims.RemainingLifetime(),
			})
			tokenIDs = append(tokenIDs, refreshClaims.TokenID())
		}
	}

	if err := s.revocation.RevokeAll(ctx, entries); err != nil {
		return fmt.Errorf("revoke session tokens: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.TokenRevoked(ctx, accessClaims.UserID(), tokenIDs, "logout"); err != nil {
			logger.WithContext(ctx, s.logger).WarnContext(ctx, "failed to publish revocation event",
				slog.String("user_id", accessClaims.UserID()),
				slog.String("error", err.Error()),
			)
		}
	}

	logger.WithContext(ctx, s.logger).InfoContext(ctx, "user logged out",
		slog.String("user_id", accessClaims.UserID()),
		slog.Int("tokens_revoked", len(tokenIDs)),
	)

	return nil
}

// Authenticate validates an access token and returns its claims together
// with the user's current permission set. The revocation check and the
// permission lookup are independent and run concurrently; both must finish
// before any authorization decision.
func (s *AuthService) Authenticate(ctx context.Context, rawToken string) (*auth.Claims, []string, error) {
	claims, err := s.tokens.Validate(rawToken)
	if err != nil {
		return nil, nil, apperrors.TokenInvalid()
	}
	if claims.Kind == auth.KindRefresh {
		// Refresh tokens open no doors on their own.
		return nil, nil, apperrors.TokenInvalid()
	}

	var permissions []string
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		revoked, err := s.revocation.IsRevoked(gctx, claims.TokenID())
		if err != nil {
			logger.WithContext(gctx, s.logger).WarnContext(gctx, "revocation store unreachable",
				slog.String("error", err.Error()),
			)
			return apperrors.TokenInvalid()
		}
		if revoked {
			return apperrors.TokenInvalid()
		}
		return nil
	})

	g.Go(func() error {
		perms, err := s.permCache.GetPermissions(gctx, claims.UserID())
		if err != nil {
			return fmt.Errorf("resolve permissions: %w", err)
		}
		permissions = perms
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return claims, permissions, nil
}

// IsRevoked exposes the revocation check to trusted internal callers.
func (s *AuthService) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	return s.revocation.IsRevoked(ctx, tokenID)
}

func (s *AuthService) authenticate(ctx context.Context, username, password string) (*domain.Principal, error) {
	if username == "" || password == "" {
		return nil, apperrors.InvalidCredentials()
	}

	principal, err := s.resolver.Resolve(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.InvalidCredentials()
		}
		return nil, fmt.Errorf("resolve principal: %w", err)
	}

	if !principal.Enabled {
		return nil, apperrors.AccountDisabled()
	}

	if !auth.VerifyPassword(password, principal.PasswordHash) {
		return nil, apperrors.InvalidCredentials()
	}

	return principal, nil
}

func (s *AuthService) issuePair(principal *domain.Principal) (*domain.TokenPair, *auth.Claims, error) {
	return s.issuePairFor(principal.ID, principal.Username, defaultScope)
}

func (s *AuthService) issuePairFor(userID, username string, scope []string) (*domain.TokenPair, *auth.Claims, error) {
	accessToken, accessClaims, err := s.tokens.Issue(userID, username, scope, auth.KindAccess)
	if err != nil {
		return nil, nil, fmt.Errorf("issue access token: %w", err)
	}

	refreshToken, _, err := s.tokens.Issue(userID, username, scope, auth.KindRefresh)
	if err != nil {
		return nil, nil, fmt.Errorf("issue refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresAt:    accessClaims.ExpiresAt.Time,
	}, accessClaims, nil
}
