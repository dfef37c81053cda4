package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *TokenManager {
	return NewTokenManager("test-secret", 12*time.Hour, 168*time.Hour, 720*time.Hour)
}

func TestTokenManager_IssueAndValidate(t *testing.T) {
	m := newTestManager()

	raw, issued, err := m.Issue("user-1", "alice", []string{"staff"}, KindAccess)
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	claims, err := m.Validate(raw)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, []string{"staff"}, claims.Scope)
	assert.Equal(t, KindAccess, claims.Kind)
	assert.Equal(t, issued.TokenID(), claims.TokenID())
	assert.NotEmpty(t, claims.TokenID())
}

func TestTokenManager_KindLifetimes(t *testing.T) {
	m := newTestManager()

	tests := []struct {
		kind   Kind
		expiry time.Duration
	}{
		{KindAccess, 12 * time.Hour},
		{KindRefresh, 168 * time.Hour},
		{KindCompat, 720 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			_, claims, err := m.Issue("user-1", "alice", nil, tt.kind)
			require.NoError(t, err)

			lifetime := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
			assert.Equal(t, tt.expiry, lifetime)
		})
	}
}

func TestTokenManager_UniqueTokenIDs(t *testing.T) {
	m := newTestManager()

	_, first, err := m.Issue("user-1", "alice", nil, KindAccess)
	require.NoError(t, err)
	_, second, err := m.Issue("user-1", "alice", nil, KindRefresh)
	require.NoError(t, err)

	assert.NotEqual(t, first.TokenID(), second.TokenID())
}

func TestTokenManager_RejectsExpiredToken(t *testing.T) {
	m := newTestManager()

	now := time.Now().UTC()
	claims := &Claims{
		Username: "alice",
		Kind:     KindAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ID:        "expired-jti",
			IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-1 * time.Hour)),
			Issuer:    "hemis-identity",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	raw, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = m.Validate(raw)
	assert.Error(t, err)
}

func TestTokenManager_RejectsWrongSecret(t *testing.T) {
	m := newTestManager()
	other := NewTokenManager("other-secret", time.Hour, time.Hour, time.Hour)

	raw, _, err := other.Issue("user-1", "alice", nil, KindAccess)
	require.NoError(t, err)

	_, err = m.Validate(raw)
	assert.Error(t, err)
}

func TestTokenManager_RejectsWrongIssuer(t *testing.T) {
	m := newTestManager()

	now := time.Now().UTC()
	claims := &Claims{
		Username: "alice",
		Kind:     KindAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ID:        "some-jti",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			Issuer:    "someone-else",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	raw, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = m.Validate(raw)
	assert.Error(t, err)
}

func TestTokenManager_RejectsMalformedToken(t *testing.T) {
	m := newTestManager()

	for _, raw := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := m.Validate(raw)
		assert.Error(t, err, "raw=%q", raw)
	}
}

func TestTokenManager_RejectsMissingJTI(t *testing.T) {
	m := newTestManager()

	now := time.Now().UTC()
	claims := &Claims{
		Username: "alice",
		Kind:     KindAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			Issuer:    "hemis-identity",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	raw, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = m.Validate(raw)
	assert.Error(t, err)
}

func TestTokenManager_ValidateKind(t *testing.T) {
	m := newTestManager()

	raw, _, err := m.Issue("user-1", "alice", nil, KindRefresh)
	require.NoError(t, err)

	_, err = m.ValidateKind(raw, KindRefresh)
	assert.NoError(t, err)

	_, err = m.ValidateKind(raw, KindAccess)
	assert.Error(t, err)
}

func TestTokenManager_IssueUnknownKind(t *testing.T) {
	m := newTestManager()

	_, _, err := m.Issue("user-1", "alice", nil, Kind("session"))
	assert.Error(t, err)
}

func TestClaims_RemainingLifetime(t *testing.T) {
	m := newTestManager()

	_, claims, err := m.Issue("user-1", "alice", nil, KindAccess)
	require.NoError(t, err)

	remaining := claims.RemainingLifetime()
	assert.Greater(t, remaining, 11*time.Hour)
	assert.LessOrEqual(t, remaining, 12*time.Hour)

	expired := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}}
	assert.Equal(t, time.Duration(0), expired.RemainingLifetime())

	noExpiry := &Claims{}
	assert.Equal(t, time.Duration(0), noExpiry.RemainingLifetime())
}
