package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FeruzLatifov/hemis-back-sub004/internal/domain"
	"github.com/FeruzLatifov/hemis-back-sub004/pkg/logger"
)

type mockMenuRepo struct {
	mock.Mock
}

func (m *mockMenuRepo) ActiveRows(ctx context.Context, language string) ([]domain.MenuRow, error) {
	args := m.Called(ctx, language)
	if v := args.Get(0); v != nil {
		return v.([]domain.MenuRow), args.Error(1)
	}
	return nil, args.Error(1)
}

func newMenuCache(shared *Shared, repo *mockMenuRepo) *MenuCache {
	return NewMenuCache(
		NewLocal[[]domain.MenuRow](16, time.Minute),
		NewLocal[[]*domain.MenuNode](128, time.Minute),
		shared,
		repo,
		5*time.Minute,
		logger.New("cache-test", "error"),
	)
}

func sampleRows() []domain.MenuRow {
	return []domain.MenuRow{
		{ID: "m-1", Code: "students", I18nKey: "menu.students", Label: "Talabalar", PermissionCode: "students.view", Position: 1, Active: true},
		{ID: "m-2", Code: "reports", I18nKey: "menu.reports", Label: "Hisobotlar", PermissionCode: "reports.view", Position: 2, Active: true},
	}
}

func TestMenuCache_RowsCachedPerLanguage(t *testing.T) {
	shared, _ := setupShared(t)
	repo := new(mockMenuRepo)
	repo.On("ActiveRows", mock.Anything, "uz").Return(sampleRows(), nil).Once()
	repo.On("ActiveRows", mock.Anything, "ru").Return(sampleRows(), nil).Once()

	c := newMenuCache(shared, repo)
	ctx := context.Background()

	for range 2 {
		rows, err := c.Rows(ctx, "uz")
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	}

	// A different language is a different cache entry.
	_, err := c.Rows(ctx, "ru")
	require.NoError(t, err)

	repo.AssertNumberOfCalls(t, "ActiveRows", 2)
}

func TestMenuCache_RowsSharedAcrossInstances(t *testing.T) {
	shared, _ := setupShared(t)
	repo := new(mockMenuRepo)
	repo.On("ActiveRows", mock.Anything, "uz").Return(sampleRows(), nil).Once()

	warm := newMenuCache(shared, repo)
	_, err := warm.Rows(context.Background(), "uz")
	require.NoError(t, err)

	cold := newMenuCache(shared, new(mockMenuRepo))
	rows, err := cold.Rows(context.Background(), "uz")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestMenuCache_ResultRoundTrip(t *testing.T) {
	shared, _ := setupShared(t)
	c := newMenuCache(shared, new(mockMenuRepo))
	ctx := context.Background()

	_, ok := c.GetResult(ctx, "user-1", "uz")
	assert.False(t, ok)

	tree := []*domain.MenuNode{{ID: "m-1", Code: "students", Label: "Talabalar", Position: 1}}
	c.SetResult(ctx, "user-1", "uz", tree)

	got, ok := c.GetResult(ctx, "user-1", "uz")
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "students", got[0].Code)
}

func TestMenuCache_ResultServedFromTier2(t *testing.T) {
	shared, _ := setupShared(t)
	ctx := context.Background()

	warm := newMenuCache(shared, new(mockMenuRepo))
	warm.SetResult(ctx, "user-1", "uz", []*domain.MenuNode{{ID: "m-1", Code: "students"}})

	cold := newMenuCache(shared, new(mockMenuRepo))
	got, ok := cold.GetResult(ctx, "user-1", "uz")
	require.True(t, ok)
	assert.Equal(t, "students", got[0].Code)
}

func TestMenuCache_EvictUserDropsAllLanguages(t *testing.T) {
	shared, mr := setupShared(t)
	c := newMenuCache(shared, new(mockMenuRepo))
	ctx := context.Background()

	c.SetResult(ctx, "user-1", "uz", []*domain.MenuNode{{ID: "m-1"}})
	c.SetResult(ctx, "user-1", "ru", []*domain.MenuNode{{ID: "m-1"}})
	c.SetResult(ctx, "user-2", "uz", []*domain.MenuNode{{ID: "m-1"}})

	require.NoError(t, c.EvictUser(ctx, "user-1"))

	_, ok := c.GetResult(ctx, "user-1", "uz")
	assert.False(t, ok)
	_, ok = c.GetResult(ctx, "user-1", "ru")
	assert.False(t, ok)

	// Another user's tier-2 entry survives.
	assert.True(t, mr.Exists("menu:user:user-2:uz"))
}

func TestMenuCache_EvictAllDropsRowsAndResults(t *testing.T) {
	shared, mr := setupShared(t)
	repo := new(mockMenuRepo)
	repo.On("ActiveRows", mock.Anything, "uz").Return(sampleRows(), nil)

	c := newMenuCache(shared, repo)
	ctx := context.Background()

	_, err := c.Rows(ctx, "uz")
	require.NoError(t, err)
	c.SetResult(ctx, "user-1", "uz", []*domain.MenuNode{{ID: "m-1"}})

	require.NoError(t, c.EvictAll(ctx))

	assert.False(t, mr.Exists("menu:rows:uz"))
	assert.False(t, mr.Exists("menu:user:user-1:uz"))

	// Next read goes back to the database.
	_, err = c.Rows(ctx, "uz")
	require.NoError(t, err)
	repo.AssertNumberOfCalls(t, "ActiveRows", 2)
}
