package database

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

type fakeDB struct {
	name string
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (f *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func TestCluster_RoutesReadsToReplica(t *testing.T) {
	primary := &fakeDB{name: "primary"}
	replica := &fakeDB{name: "replica"}

	cluster := NewCluster(primary, replica)

	assert.Same(t, primary, cluster.Write())
	assert.Same(t, replica, cluster.Read())
	assert.True(t, cluster.HasReplica())
}

func TestCluster_ReadFallsBackToPrimary(t *testing.T) {
	primary := &fakeDB{name: "primary"}

	cluster := NewCluster(primary, nil)

	assert.Same(t, primary, cluster.Write())
	assert.Same(t, primary, cluster.Read())
	assert.False(t, cluster.HasReplica())
}
