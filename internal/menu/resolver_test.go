package menu

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FeruzLatifov/hemis-back-sub004/internal/cache"
	"github.com/FeruzLatifov/hemis-back-sub004/internal/domain"
	"github.com/FeruzLatifov/hemis-back-sub004/pkg/logger"
)

// ---------------------------------------------------------------------------
// fixtures
// ---------------------------------------------------------------------------

// testRows models a typical navigation layout:
//
//	students (students.view)
//	  ├─ list  (students.view)
//	  └─ grades (grades.view)
//	reports (reports.view)
//	  └─ export (reports.export)
//	help (no permission required)
func testRows() []domain.MenuRow {
	return []domain.MenuRow{
		{ID: "m-1", Code: "students", PermissionCode: "students.view", Position: 1, Active: true},
		{ID: "m-2", Code: "students-list", PermissionCode: "students.view", ParentID: "m-1", Position: 1, Active: true},
		{ID: "m-3", Code: "students-grades", PermissionCode: "grades.view", ParentID: "m-1", Position: 2, Active: true},
		{ID: "m-4", Code: "reports", PermissionCode: "reports.view", Position: 2, Active: true},
		{ID: "m-5", Code: "reports-export", PermissionCode: "reports.export", ParentID: "m-4", Position: 1, Active: true},
		{ID: "m-6", Code: "help", Position: 3, Active: true},
	}
}

func codes(nodes []*domain.MenuNode) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Code)
	}
	return out
}

// ---------------------------------------------------------------------------
// Filter
// ---------------------------------------------------------------------------

func TestFilter_PrunesByPermission(t *testing.T) {
	tree := Filter(testRows(), []string{"students.view"})

	require.Equal(t, []string{"students", "help"}, codes(tree))
	// grades.view is missing, so only the list child survives.
	assert.Equal(t, []string{"students-list"}, codes(tree[0].Children))
	assert.Empty(t, tree[1].Children)
}

func TestFilter_HiddenParentHidesVisibleChildren(t *testing.T) {
	// reports.export alone does not reveal the export node: its parent
	// reports is pruned and the whole subtree goes with it.
	tree := Filter(testRows(), []string{"reports.export"})

	assert.Equal(t, []string{"help"}, codes(tree))
}

func TestFilter_WildcardSeesEverything(t *testing.T) {
	tree := Filter(testRows(), []string{domain.PermissionWildcard})

	require.Equal(t, []string{"students", "reports", "help"}, codes(tree))
	assert.Equal(t, []string{"students-list", "students-grades"}, codes(tree[0].Children))
	assert.Equal(t, []string{"reports-export"}, codes(tree[1].Children))
}

func TestFilter_EmptyPermissionSetShowsOnlyOpenNodes(t *testing.T) {
	tree := Filter(testRows(), nil)

	assert.Equal(t, []string{"help"}, codes(tree))
}

func TestFilter_OrderPreserved(t *testing.T) {
	rows := []domain.MenuRow{
		{ID: "b", Code: "second", Position: 2, Active: true},
		{ID: "a", Code: "first", Position: 1, Active: true},
		{ID: "c", Code: "third", Position: 3, Active: true},
	}

	tree := Filter(rows, nil)

	assert.Equal(t, []string{"first", "second", "third"}, codes(tree))
}

func TestFilter_InactiveRowsIgnored(t *testing.T) {
	rows := testRows()
	rows[5].Active = false

	tree := Filter(rows, nil)

	assert.Empty(t, tree)
}

func TestFilter_RandomTreesNeverLeakHiddenNodes(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))
	permPool := []string{"p.a", "p.b", "p.c", "p.d", "p.e"}

	for trial := 0; trial < 200; trial++ {
		// Random forest: each row attaches to an earlier row or the root,
		// which guarantees no cycles.
		n := 1 + rng.IntN(25)
		rows := make([]domain.MenuRow, 0, n)
		for i := 0; i < n; i++ {
			row := domain.MenuRow{
				ID:       fmt.Sprintf("m-%d", i),
				Code:     fmt.Sprintf("node-%d", i),
				Position: rng.IntN(10),
				Active:   true,
			}
			if rng.IntN(4) > 0 {
				row.PermissionCode = permPool[rng.IntN(len(permPool))]
			}
			if i > 0 && rng.IntN(3) > 0 {
				row.ParentID = fmt.Sprintf("m-%d", rng.IntN(i))
			}
			rows = append(rows, row)
		}

		subset := make([]string, 0, len(permPool))
		for _, p := range permPool {
			if rng.IntN(2) == 0 {
				subset = append(subset, p)
			}
		}
		granted := make(map[string]struct{}, len(subset))
		for _, p := range subset {
			granted[p] = struct{}{}
		}

		tree := Filter(rows, subset)

		var walk func(nodes []*domain.MenuNode, parentID string)
		walk = func(nodes []*domain.MenuNode, parentID string) {
			for _, node := range nodes {
				var row *domain.MenuRow
				for i := range rows {
					if rows[i].ID == node.ID {
						row = &rows[i]
						break
					}
				}
				require.NotNil(t, row, "trial %d: unknown node %s", trial, node.ID)
				// A node only ever appears under its declared parent, so a
				// pruned parent can never have its children surface elsewhere.
				assert.Equal(t, parentID, row.ParentID, "trial %d: node %s under wrong parent", trial, node.ID)
				if row.PermissionCode != "" {
					_, ok := granted[row.PermissionCode]
					assert.True(t, ok, "trial %d: node %s leaked without %s", trial, node.ID, row.PermissionCode)
				}
				walk(node.Children, node.ID)
			}
		}
		walk(tree, "")
	}
}

// ---------------------------------------------------------------------------
// GetMenu
// ---------------------------------------------------------------------------

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

func setupResolver(t *testing.T, repo *mockMenuRepo) *Resolver {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	log := logger.New("menu-test", "error")
	menuCache := cache.NewMenuCache(
		cache.NewLocal[[]domain.MenuRow](16, time.Minute),
		cache.NewLocal[[]*domain.MenuNode](128, time.Minute),
		cache.NewShared(client, log),
		repo,
		5*time.Minute,
		log,
	)
	return NewResolver(menuCache)
}

func TestGetMenu_ResolvesAndCaches(t *testing.T) {
	repo := new(mockMenuRepo)
	repo.On("ActiveRows", mock.Anything, "uz").Return(testRows(), nil).Once()

	r := setupResolver(t, repo)
	ctx := context.Background()

	tree, err := r.GetMenu(ctx, "user-1", []string{"students.view"}, "uz")
	require.NoError(t, err)
	assert.Equal(t, []string{"students", "help"}, codes(tree))

	// Second call is served entirely from the result cache.
	tree, err = r.GetMenu(ctx, "user-1", []string{"students.view"}, "uz")
	require.NoError(t, err)
	assert.Equal(t, []string{"students", "help"}, codes(tree))
	repo.AssertNumberOfCalls(t, "ActiveRows", 1)
}

func TestGetMenu_RepositoryErrorSurfaces(t *testing.T) {
	repo := new(mockMenuRepo)
	repo.On("ActiveRows", mock.Anything, "uz").Return(nil, assert.AnError)

	r := setupResolver(t, repo)

	_, err := r.GetMenu(context.Background(), "user-1", nil, "uz")
	assert.Error(t, err)
}
