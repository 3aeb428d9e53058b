package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"Quill/internal/atproto/utils"
	"Quill/internal/core/orphans"
)

type postgresOrphanRepo struct {
	db *sql.DB
}

// NewOrphanRepository creates a new PostgreSQL orphan ledger
func NewOrphanRepository(db *sql.DB) orphans.Repository {
	return &postgresOrphanRepo{db: db}
}

// Record inserts an open row, or refreshes the error on the existing open row
// for the same child
func (r *postgresOrphanRepo) Record(ctx context.Context, orphan *orphans.Orphan) error {
	query := `
		INSERT INTO orphaned_child_posts (child_post_id, parent_post_id, error, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (child_post_id) WHERE resolved_at IS NULL
		DO UPDATE SET error = EXCLUDED.error
		RETURNING id, created_at, attempts
	`

	err := r.db.QueryRowContext(ctx, query,
		orphan.ChildPostID, orphan.ParentPostID, orphan.Error,
	).Scan(&orphan.ID, &orphan.CreatedAt, &orphan.Attempts)
	if err != nil {
		return fmt.Errorf("failed to insert orphan: %w", err)
	}
	return nil
}

// ListUnresolved returns open rows, oldest first
func (r *postgresOrphanRepo) ListUnresolved(ctx context.Context, limit int) ([]*orphans.Orphan, error) {
	query := `
		SELECT id, child_post_id, parent_post_id, error, attempts,
			created_at, last_attempt_at, resolved_at
		FROM orphaned_child_posts
		WHERE resolved_at IS NULL
		ORDER BY created_at ASC, id ASC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query orphans: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*orphans.Orphan
	for rows.Next() {
		var (
			o             orphans.Orphan
			lastAttemptAt sql.NullTime
			resolvedAt    sql.NullTime
		)
		if err := rows.Scan(
			&o.ID, &o.ChildPostID, &o.ParentPostID, &o.Error, &o.Attempts,
			&o.CreatedAt, &lastAttemptAt, &resolvedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan orphan: %w", err)
		}
		o.LastAttemptAt = utils.TimeFromNull(lastAttemptAt)
		o.ResolvedAt = utils.TimeFromNull(resolvedAt)
		result = append(result, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orphans: %w", err)
	}

	return result, nil
}

// RecordAttempt bumps the attempt counter and stores the latest error
func (r *postgresOrphanRepo) RecordAttempt(ctx context.Context, id int64, errMsg string) error {
	query := `
		UPDATE orphaned_child_posts
		SET attempts = attempts + 1, error = $2, last_attempt_at = NOW()
		WHERE id = $1 AND resolved_at IS NULL
	`
	return r.execOne(ctx, query, id, errMsg)
}

// MarkResolved closes an open row
func (r *postgresOrphanRepo) MarkResolved(ctx context.Context, id int64) error {
	query := `
		UPDATE orphaned_child_posts
		SET resolved_at = NOW(), last_attempt_at = NOW(), attempts = attempts + 1
		WHERE id = $1 AND resolved_at IS NULL
	`
	return r.execOne(ctx, query, id)
}

func (r *postgresOrphanRepo) execOne(ctx context.Context, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update orphan: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rowsAffected == 0 {
		return orphans.ErrOrphanNotFound
	}
	return nil
}
