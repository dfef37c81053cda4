package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "hemis-identity"

// Kind selects the lifetime and intended use of an issued token.
type Kind string

const (
	// KindAccess is the short-lived token presented on every API request.
	KindAccess Kind = "access"
	// KindRefresh is the long-lived token exchanged for new access tokens.
	KindRefresh Kind = "refresh"
	// KindCompat is an extended-lifetime token issued to legacy external
	// clients that cannot refresh.
	KindCompat Kind = "compat"
)

// Claims are the JWT claims carried by every token kind. Permissions are
// deliberately NOT part of the token: the token asserts identity only, so a
// permission change takes effect without reissuing tokens.
type Claims struct {
	Username string   `json:"username"`
	Scope    []string `json:"scope"`
	Kind     Kind     `json:"kind"`
	jwt.RegisteredClaims
}

// UserID returns the subject claim.
func (c *Claims) UserID() string {
	return c.Subject
}

// TokenID returns the jti claim used as the revocation key.
func (c *Claims) TokenID() string {
	return c.ID
}

// RemainingLifetime returns how long until the token expires, zero if it
// already has.
func (c *Claims) RemainingLifetime() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	remaining := time.Until(c.ExpiresAt.Time)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// TokenManager issues and validates signed JWTs. Validation is a purely
// local cryptographic check: signature, expiry and well-formedness. It does
// NOT consult the revocation store; callers compose that step themselves so
// trusted service-to-service paths can skip it.
type TokenManager struct {
	secret        []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	compatExpiry  time.Duration
}

// NewTokenManager creates a token manager with the given signing secret and
// per-kind expiry durations.
func NewTokenManager(secret string, accessExpiry, refreshExpiry, compatExpiry time.Duration) *TokenManager {
	return &TokenManager{
		secret:        []byte(secret),
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
		compatExpiry:  compatExpiry,
	}
}

// Issue creates a signed token of the given kind for the principal. Every
// token carries a fresh random jti so access and refresh tokens of one
// session are independently revocable.
func (m *TokenManager) Issue(userID, username string, scope []string, kind Kind) (string, *Claims, error) {
	var expiry time.Duration
	switch kind {
	case KindAccess:
		expiry = m.accessExpiry
	case KindRefresh:
		expiry = m.refreshExpiry
	case KindCompat:
		expiry = m.compatExpiry
	default:
		return "", nil, fmt.Errorf("issue token: unknown kind %q", kind)
	}

	now := time.Now().UTC()
	claims := &Claims{
		Username: username,
		Scope:    scope,
		Kind:     kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign %s token: %w", kind, err)
	}

	return signed, claims, nil
}

// Validate parses a raw token and checks signature, expiry and issuer.
func (m *TokenManager) Validate(rawToken string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(rawToken, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("token missing jti")
	}

	return claims, nil
}

// ValidateKind validates a raw token and additionally requires it to be of
// the expected kind, so a refresh token cannot be presented as an access
// token or vice versa.
func (m *TokenManager) ValidateKind(rawToken string, kind Kind) (*Claims, error) {
	claims, err := m.Validate(rawToken)
	if err != nil {
		return nil, err
	}
	if claims.Kind != kind {
		return nil, fmt.Errorf("unexpected token kind %q", claims.Kind)
	}
	return claims, nil
}
