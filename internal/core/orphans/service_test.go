package orphans

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"Quill/internal/core/posts"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRepository is a func-field mock of Repository
type mockRepository struct {
	recordFunc         func(ctx context.Context, orphan *Orphan) error
	listUnresolvedFunc func(ctx context.Context, limit int) ([]*Orphan, error)
	recordAttemptFunc  func(ctx context.Context, id int64, errMsg string) error
	markResolvedFunc   func(ctx context.Context, id int64) error
}

func (m *mockRepository) Record(ctx context.Context, orphan *Orphan) error {
	if m.recordFunc != nil {
		return m.recordFunc(ctx, orphan)
	}
	return nil
}

func (m *mockRepository) ListUnresolved(ctx context.Context, limit int) ([]*Orphan, error) {
	if m.listUnresolvedFunc != nil {
		return m.listUnresolvedFunc(ctx, limit)
	}
	return nil, nil
}

func (m *mockRepository) RecordAttempt(ctx context.Context, id int64, errMsg string) error {
	if m.recordAttemptFunc != nil {
		return m.recordAttemptFunc(ctx, id, errMsg)
	}
	return nil
}

func (m *mockRepository) MarkResolved(ctx context.Context, id int64) error {
	if m.markResolvedFunc != nil {
		return m.markResolvedFunc(ctx, id)
	}
	return nil
}

type deleterFunc func(ctx context.Context, postID, parentID string) error

func (f deleterFunc) DeletePost(ctx context.Context, postID, parentID string) error {
	return f(ctx, postID, parentID)
}

func TestRecorder_RecordOrphan(t *testing.T) {
	var got *Orphan
	repo := &mockRepository{
		recordFunc: func(_ context.Context, orphan *Orphan) error {
			got = orphan
			return nil
		},
	}

	err := NewRecorder(repo).RecordOrphan(context.Background(), "child", "parent", errors.New("rate limited"))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "child", got.ChildPostID)
	assert.Equal(t, "parent", got.ParentPostID)
	assert.Equal(t, "rate limited", got.Error)
}

func TestRecorder_RecordOrphan_RepoError(t *testing.T) {
	dbErr := errors.New("connection refused")
	repo := &mockRepository{
		recordFunc: func(context.Context, *Orphan) error { return dbErr },
	}

	err := NewRecorder(repo).RecordOrphan(context.Background(), "child", "parent", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, dbErr))
}

func TestSweeper_Sweep(t *testing.T) {
	pending := []*Orphan{
		{ID: 1, ChildPostID: "c1", ParentPostID: "p"},
		{ID: 2, ChildPostID: "c2", ParentPostID: "p"},
		{ID: 3, ChildPostID: "c3", ParentPostID: "p", Attempts: 2},
	}

	var resolved []int64
	attempts := map[int64]string{}
	repo := &mockRepository{
		listUnresolvedFunc: func(_ context.Context, limit int) ([]*Orphan, error) {
			assert.Equal(t, 50, limit)
			return pending, nil
		},
		markResolvedFunc: func(_ context.Context, id int64) error {
			resolved = append(resolved, id)
			return nil
		},
		recordAttemptFunc: func(_ context.Context, id int64, errMsg string) error {
			attempts[id] = errMsg
			return nil
		},
	}

	deleter := deleterFunc(func(_ context.Context, postID, parentID string) error {
		assert.Equal(t, "p", parentID)
		switch postID {
		case "c2":
			return fmt.Errorf("get child post: %w", posts.ErrNotFound)
		case "c3":
			return errors.New("backend unavailable")
		}
		return nil
	})

	result, err := NewSweeper(repo, deleter).Sweep(context.Background(), 50)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Resolved: 2, Failed: 1}, result)
	assert.Equal(t, []int64{1, 2}, resolved, "a child that is already gone counts as resolved")
	assert.Equal(t, map[int64]string{3: "backend unavailable"}, attempts)
}

func TestSweeper_ListError(t *testing.T) {
	repo := &mockRepository{
		listUnresolvedFunc: func(context.Context, int) ([]*Orphan, error) {
			return nil, errors.New("db down")
		},
	}
	deleter := deleterFunc(func(context.Context, string, string) error {
		t.Fatal("nothing should be deleted")
		return nil
	})

	_, err := NewSweeper(repo, deleter).Sweep(context.Background(), 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list orphans")
}

func TestSweeper_StopsOnCancelledContext(t *testing.T) {
	repo := &mockRepository{
		listUnresolvedFunc: func(context.Context, int) ([]*Orphan, error) {
			return []*Orphan{{ID: 1, ChildPostID: "c1", ParentPostID: "p"}}, nil
		},
	}
	deleter := deleterFunc(func(context.Context, string, string) error {
		t.Fatal("nothing should be deleted")
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSweeper(repo, deleter).Sweep(ctx, 10)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSweeper_CircuitOpensOnRepeatedFailures(t *testing.T) {
	pending := []*Orphan{
		{ID: 1, ChildPostID: "c1", ParentPostID: "p"},
		{ID: 2, ChildPostID: "c2", ParentPostID: "p"},
		{ID: 3, ChildPostID: "c3", ParentPostID: "p"},
		{ID: 4, ChildPostID: "c4", ParentPostID: "p"},
	}
	repo := &mockRepository{
		listUnresolvedFunc: func(context.Context, int) ([]*Orphan, error) { return pending, nil },
	}

	var calls int
	deleter := deleterFunc(func(context.Context, string, string) error {
		calls++
		return errors.New("rate limited")
	})

	sweeper := NewSweeper(repo, deleter, WithCircuitBreaker(2, time.Hour))

	result, err := sweeper.Sweep(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Failed: 2, Skipped: 2}, result)
	assert.Equal(t, 2, calls)

	// still open on the next sweep
	result, err = sweeper.Sweep(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Skipped: 4}, result)
	assert.Equal(t, 2, calls)
}

func TestSweeper_RunStopsWithContext(t *testing.T) {
	swept := make(chan struct{}, 1)
	repo := &mockRepository{
		listUnresolvedFunc: func(context.Context, int) ([]*Orphan, error) {
			select {
			case swept <- struct{}{}:
			default:
			}
			return nil, nil
		},
	}
	sweeper := NewSweeper(repo, deleterFunc(func(context.Context, string, string) error { return nil }))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx, 5*time.Millisecond, 10)
		close(done)
	}()

	select {
	case <-swept:
	case <-time.After(time.Second):
		t.Fatal("sweeper never ran")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
