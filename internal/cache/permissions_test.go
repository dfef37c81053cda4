package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FeruzLatifov/hemis-back-sub004/pkg/logger"
)

// ---------------------------------------------------------------------------
// mocks
// ---------------------------------------------------------------------------

type mockPermissionRepo struct {
	mock.Mock
}

func (m *mockPermissionRepo) PermissionsForUser(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	if v := args.Get(0); v != nil {
		return v.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPermissionRepo) UserIDsWithRole(ctx context.Context, roleID string) ([]string, error) {
	args := m.Called(ctx, roleID)
	if v := args.Get(0); v != nil {
		return v.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPermissionRepo) UserIDsWithPermission(ctx context.Context, permissionID string) ([]string, error) {
	args := m.Called(ctx, permissionID)
	if v := args.Get(0); v != nil {
		return v.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func setupShared(t *testing.T) (*Shared, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewShared(client, logger.New("cache-test", "error")), mr
}

func newPermCache(shared *Shared, repo *mockPermissionRepo) *PermissionCache {
	local := NewLocal[[]string](128, time.Minute)
	return NewPermissionCache(local, shared, repo, 5*time.Minute, logger.New("cache-test", "error"))
}

// ---------------------------------------------------------------------------
// tests
// ---------------------------------------------------------------------------

func TestGetPermissions_DatabaseFallbackPopulatesBothTiers(t *testing.T) {
	shared, mr := setupShared(t)
	repo := new(mockPermissionRepo)
	repo.On("PermissionsForUser", mock.Anything, "user-1").
		Return([]string{"students.view"}, nil).Once()

	c := newPermCache(shared, repo)

	perms, err := c.GetPermissions(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"students.view"}, perms)

	// Tier 2 was written through.
	assert.True(t, mr.Exists("perms:user:user-1"))

	// Second read must not touch the repository again.
	perms, err = c.GetPermissions(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"students.view"}, perms)
	repo.AssertNumberOfCalls(t, "PermissionsForUser", 1)
}

func TestGetPermissions_Tier2ServesOtherInstances(t *testing.T) {
	shared, _ := setupShared(t)

	first := new(mockPermissionRepo)
	first.On("PermissionsForUser", mock.Anything, "user-1").
		Return([]string{"students.view", "students.edit"}, nil).Once()
	warm := newPermCache(shared, first)

	_, err := warm.GetPermissions(context.Background(), "user-1")
	require.NoError(t, err)

	// A second instance shares tier 2 but has a cold tier 1; its repo must
	// never be consulted.
	cold := newPermCache(shared, new(mockPermissionRepo))

	perms, err := cold.GetPermissions(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"students.view", "students.edit"}, perms)
}

func TestGetPermissions_EmptySetIsCachedNotRecomputed(t *testing.T) {
	shared, _ := setupShared(t)
	repo := new(mockPermissionRepo)
	repo.On("PermissionsForUser", mock.Anything, "user-2").
		Return([]string{}, nil).Once()

	c := newPermCache(shared, repo)

	for range 3 {
		perms, err := c.GetPermissions(context.Background(), "user-2")
		require.NoError(t, err)
		assert.NotNil(t, perms)
		assert.Empty(t, perms)
	}
	repo.AssertNumberOfCalls(t, "PermissionsForUser", 1)
}

func TestGetPermissions_CacheUnavailableDegradesToDatabase(t *testing.T) {
	shared, mr := setupShared(t)
	repo := new(mockPermissionRepo)
	repo.On("PermissionsForUser", mock.Anything, "user-3").
		Return([]string{"courses.view"}, nil)

	c := newPermCache(shared, repo)
	mr.Close()

	perms, err := c.GetPermissions(context.Background(), "user-3")
	require.NoError(t, err)
	assert.Equal(t, []string{"courses.view"}, perms)
}

func TestGetPermissions_RepositoryErrorSurfaces(t *testing.T) {
	shared, _ := setupShared(t)
	repo := new(mockPermissionRepo)
	repo.On("PermissionsForUser", mock.Anything, "user-4").
		Return(nil, assert.AnError)

	c := newPermCache(shared, repo)

	_, err := c.GetPermissions(context.Background(), "user-4")
	assert.Error(t, err)
}

func TestEvict_NextReadReflectsNewDatabaseState(t *testing.T) {
	shared, _ := setupShared(t)
	repo := new(mockPermissionRepo)
	repo.On("PermissionsForUser", mock.Anything, "user-5").
		Return([]string{"students.view"}, nil).Once()
	repo.On("PermissionsForUser", mock.Anything, "user-5").
		Return([]string{"students.view", "students.edit"}, nil).Once()

	c := newPermCache(shared, repo)
	ctx := context.Background()

	perms, err := c.GetPermissions(ctx, "user-5")
	require.NoError(t, err)
	assert.Equal(t, []string{"students.view"}, perms)

	require.NoError(t, c.Evict(ctx, "user-5"))

	perms, err = c.GetPermissions(ctx, "user-5")
	require.NoError(t, err)
	assert.Equal(t, []string{"students.view", "students.edit"}, perms)
}
