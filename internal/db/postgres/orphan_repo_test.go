package postgres

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"

	"Quill/internal/core/orphans"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB connects to TEST_DATABASE_URL and runs migrations
func setupTestDB(t *testing.T) *sql.DB {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err, "Failed to connect to test database")

	require.NoError(t, goose.SetDialect("postgres"))
	require.NoError(t, goose.Up(db, "../migrations"), "Failed to run migrations")

	return db
}

func cleanupOrphans(t *testing.T, db *sql.DB) {
	_, err := db.Exec("DELETE FROM orphaned_child_posts WHERE child_post_id LIKE 'test-%'")
	require.NoError(t, err, "Failed to cleanup orphans")
}

func TestOrphanRepo_RecordAndList(t *testing.T) {
	db := setupTestDB(t)
	defer func() { _ = db.Close() }()
	cleanupOrphans(t, db)
	defer cleanupOrphans(t, db)

	repo := NewOrphanRepository(db)
	ctx := context.Background()

	first := &orphans.Orphan{ChildPostID: "test-child-1", ParentPostID: "test-parent", Error: "timeout"}
	require.NoError(t, repo.Record(ctx, first))
	assert.NotZero(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	again := &orphans.Orphan{ChildPostID: "test-child-1", ParentPostID: "test-parent", Error: "rate limited"}
	require.NoError(t, repo.Record(ctx, again))
	assert.Equal(t, first.ID, again.ID, "an open child is recorded once")

	require.NoError(t, repo.Record(ctx, &orphans.Orphan{ChildPostID: "test-child-2", ParentPostID: "test-parent"}))

	open, err := repo.ListUnresolved(ctx, 10)
	require.NoError(t, err)

	var ours []*orphans.Orphan
	for _, o := range open {
		if o.ParentPostID == "test-parent" {
			ours = append(ours, o)
		}
	}
	require.Len(t, ours, 2)
	assert.Equal(t, "test-child-1", ours[0].ChildPostID)
	assert.Equal(t, "rate limited", ours[0].Error)
	assert.Nil(t, ours[0].ResolvedAt)
}

func TestOrphanRepo_AttemptAndResolve(t *testing.T) {
	db := setupTestDB(t)
	defer func() { _ = db.Close() }()
	cleanupOrphans(t, db)
	defer cleanupOrphans(t, db)

	repo := NewOrphanRepository(db)
	ctx := context.Background()

	o := &orphans.Orphan{ChildPostID: "test-child-3", ParentPostID: "test-parent"}
	require.NoError(t, repo.Record(ctx, o))

	require.NoError(t, repo.RecordAttempt(ctx, o.ID, "still failing"))
	require.NoError(t, repo.MarkResolved(ctx, o.ID))

	err := repo.MarkResolved(ctx, o.ID)
	assert.True(t, errors.Is(err, orphans.ErrOrphanNotFound), "a resolved row cannot be resolved twice")

	var attempts int
	require.NoError(t, db.QueryRow("SELECT attempts FROM orphaned_child_posts WHERE id = $1", o.ID).Scan(&attempts))
	assert.Equal(t, 2, attempts)

	// resolving frees the child for a new open row
	reopened := &orphans.Orphan{ChildPostID: "test-child-3", ParentPostID: "test-parent"}
	require.NoError(t, repo.Record(ctx, reopened))
	assert.NotEqual(t, o.ID, reopened.ID)
}
