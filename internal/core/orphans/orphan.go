// Package orphans keeps a ledger of child posts whose deletion failed during a
// reconciliation, and sweeps them later outside the editing session.
package orphans

import (
	"context"
	"errors"
	"time"
)

// ErrOrphanNotFound is returned when a ledger row does not exist
var ErrOrphanNotFound = errors.New("orphan not found")

// Orphan is a child post that should have been deleted but was not
type Orphan struct {
	CreatedAt     time.Time  `json:"createdAt"`
	LastAttemptAt *time.Time `json:"lastAttemptAt,omitempty"`
	ResolvedAt    *time.Time `json:"resolvedAt,omitempty"`
	ChildPostID   string     `json:"childPostId"`
	ParentPostID  string     `json:"parentPostId"`
	Error         string     `json:"error"`
	ID            int64      `json:"id"`
	Attempts      int        `json:"attempts"`
}

// Repository persists the ledger
type Repository interface {
	// Record inserts an unresolved row. Recording a child that already has an
	// open row refreshes its error instead of adding a second one.
	Record(ctx context.Context, orphan *Orphan) error

	// ListUnresolved returns open rows, oldest first.
	ListUnresolved(ctx context.Context, limit int) ([]*Orphan, error)

	// RecordAttempt stores the outcome of a failed sweep attempt.
	RecordAttempt(ctx context.Context, id int64, errMsg string) error

	// MarkResolved closes a row. Returns ErrOrphanNotFound if it is missing or already closed.
	MarkResolved(ctx context.Context, id int64) error
}

// Deleter removes a child post from its parent
type Deleter interface {
	DeletePost(ctx context.Context, postID, parentID string) error
}
