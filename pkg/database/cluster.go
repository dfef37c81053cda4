package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgxpool.Pool used by repositories. pgxmock's pool
// satisfies it too, so repositories stay mockable.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Cluster routes data access between a primary and an optional read replica.
// Intent is declared at each call site: mutating statements go through
// Write(), lookups through Read(). There is no ambient per-goroutine routing
// state, so intent can never leak across unrelated concurrent operations.
//
// When no replica is configured, Read() falls back to the primary, so any
// code that does not declare intent ends up on the primary.
type Cluster struct {
	primary DBTX
	replica DBTX
}

// NewCluster creates a cluster. replica may be nil for single-node setups.
func NewCluster(primary, replica DBTX) *Cluster {
	return &Cluster{primary: primary, replica: replica}
}

// Write returns the primary connection. Use for INSERT/UPDATE/DELETE and for
// reads that must observe the caller's own writes.
func (c *Cluster) Write() DBTX {
	return c.primary
}

// Read returns the replica connection, or the primary when no replica is
// configured.
func (c *Cluster) Read() DBTX {
	if c.replica != nil {
		return c.replica
	}
	return c.primary
}

// HasReplica reports whether a dedicated read replica is configured.
func (c *Cluster) HasReplica() bool {
	return c.replica != nil
}
