package orphans

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"Quill/internal/core/posts"
	"Quill/internal/metrics"
)

// Recorder writes failed child deletions to the ledger.
type Recorder struct {
	repo Repository
}

// NewRecorder creates a recorder backed by repo
func NewRecorder(repo Repository) *Recorder {
	return &Recorder{repo: repo}
}

// RecordOrphan adds childPostID to the ledger with the deletion error.
func (r *Recorder) RecordOrphan(ctx context.Context, childPostID, parentPostID string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}

	orphan := &Orphan{
		ChildPostID:  childPostID,
		ParentPostID: parentPostID,
		Error:        msg,
	}
	if err := r.repo.Record(ctx, orphan); err != nil {
		return fmt.Errorf("failed to record orphan %s: %w", childPostID, err)
	}

	slog.Info("[ORPHANS] recorded orphaned child post", "child", childPostID, "parent", parentPostID)
	return nil
}

// SweepResult summarizes one Sweep call
type SweepResult struct {
	Resolved int
	Failed   int
	// Skipped rows were left for a later sweep because the backend kept failing
	Skipped int
}

// Sweeper retries deletions recorded in the ledger.
type Sweeper struct {
	repo    Repository
	deleter Deleter
	breaker *circuitBreaker
}

// SweeperOption configures a Sweeper
type SweeperOption func(*Sweeper)

// WithCircuitBreaker stops sweeping after threshold consecutive failures and
// waits openFor before trying again. Defaults to 5 failures and 5 minutes.
func WithCircuitBreaker(threshold int, openFor time.Duration) SweeperOption {
	return func(s *Sweeper) {
		s.breaker = newCircuitBreaker(threshold, openFor)
	}
}

// NewSweeper creates a sweeper deleting through deleter
func NewSweeper(repo Repository, deleter Deleter, opts ...SweeperOption) *Sweeper {
	s := &Sweeper{
		repo:    repo,
		deleter: deleter,
		breaker: newCircuitBreaker(5, 5*time.Minute),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sweep processes up to limit unresolved rows. A child that no longer exists
// counts as resolved. Per-row failures are recorded and do not stop the sweep
// unless the circuit opens; only ledger errors are returned.
func (s *Sweeper) Sweep(ctx context.Context, limit int) (SweepResult, error) {
	var result SweepResult

	pending, err := s.repo.ListUnresolved(ctx, limit)
	if err != nil {
		return result, fmt.Errorf("failed to list orphans: %w", err)
	}

	for i, orphan := range pending {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := s.breaker.canAttempt(); err != nil {
			result.Skipped = len(pending) - i
			slog.Warn("[ORPHANS] backend failing, leaving the rest for later", "skipped", result.Skipped, "error", err)
			break
		}

		delErr := s.deleter.DeletePost(ctx, orphan.ChildPostID, orphan.ParentPostID)
		if delErr != nil && posts.IsNotFound(delErr) {
			delErr = nil
		}
		metrics.ObserveOrphanSwept(delErr)

		if delErr != nil {
			s.breaker.recordFailure(delErr)
			slog.Warn("[ORPHANS] sweep attempt failed",
				"id", orphan.ID, "child", orphan.ChildPostID, "attempts", orphan.Attempts+1, "error", delErr)
			if err := s.repo.RecordAttempt(ctx, orphan.ID, delErr.Error()); err != nil {
				return result, fmt.Errorf("failed to record attempt for orphan %d: %w", orphan.ID, err)
			}
			result.Failed++
			continue
		}
		s.breaker.recordSuccess()

		if err := s.repo.MarkResolved(ctx, orphan.ID); err != nil {
			return result, fmt.Errorf("failed to resolve orphan %d: %w", orphan.ID, err)
		}
		result.Resolved++
	}

	slog.Info("[ORPHANS] sweep finished",
		"resolved", result.Resolved, "failed", result.Failed, "skipped", result.Skipped)
	return result, nil
}

// Run sweeps every interval until ctx is done
func (s *Sweeper) Run(ctx context.Context, interval time.Duration, limit int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx, limit); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("[ORPHANS] sweep failed", "error", err)
			}
		}
	}
}
