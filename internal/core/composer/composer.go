// Package composer orchestrates creating, editing and loading posts against a
// posts.Repository. Operations return immediately; repository calls run on
// their own goroutines and results come back through the Observer on the
// composer's Dispatcher.
package composer

import (
	"context"
	"log/slog"
	"sync/atomic"

	"Quill/internal/core/posts"
	"Quill/internal/metrics"
)

// CreateResultObserver is optionally implemented by observers that need the
// identity of a freshly created post. It is called right before OnPostCreated
// on success.
type CreateResultObserver interface {
	OnPostCreatedResponse(resp *posts.CreatePostResponse)
}

// Composer drives one editing session. It is safe to call from any goroutine.
type Composer struct {
	repo        posts.Repository
	observer    Observer
	broadcaster Broadcaster
	dispatcher  Dispatcher
	orphans     OrphanRecorder
	released    atomic.Bool
}

// Option configures a Composer
type Option func(*Composer)

// WithBroadcaster sets the process-wide event sink
func WithBroadcaster(b Broadcaster) Option {
	return func(c *Composer) {
		if b != nil {
			c.broadcaster = b
		}
	}
}

// WithDispatcher sets where continuations run. Defaults to Inline.
func WithDispatcher(d Dispatcher) Option {
	return func(c *Composer) {
		if d != nil {
			c.dispatcher = d
		}
	}
}

// WithOrphanRecorder records child posts whose deletion failed
func WithOrphanRecorder(r OrphanRecorder) Option {
	return func(c *Composer) {
		c.orphans = r
	}
}

// New creates a composer reporting to observer.
func New(repo posts.Repository, observer Observer, opts ...Option) *Composer {
	c := &Composer{
		repo:        repo,
		observer:    observer,
		broadcaster: noopBroadcaster{},
		dispatcher:  Inline,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Release detaches the composer from its observer. Requests already in flight
// still complete against the repository, but their continuations do nothing.
func (c *Composer) Release() {
	c.released.Store(true)
}

// Released reports whether Release has been called
func (c *Composer) Released() bool {
	return c.released.Load()
}

// dispatch runs fn on the dispatcher unless the composer has been released,
// checked both before and after the hop.
func (c *Composer) dispatch(fn func()) {
	if c.released.Load() {
		return
	}
	c.dispatcher.Dispatch(func() {
		if c.released.Load() {
			return
		}
		fn()
	})
}

// LoadPost fetches a post once and hands it to OnPostLoaded.
func (c *Composer) LoadPost(ctx context.Context, postID string) {
	ctx = context.WithoutCancel(ctx)
	go func() {
		post, err := c.repo.GetPost(ctx, postID)
		metrics.ObserveOperation("load", err)
		c.dispatch(func() {
			if err != nil {
				slog.Warn("[COMPOSER] failed to load post", "post", postID, "error", err)
				if o, ok := c.observer.(LoadFailureObserver); ok {
					o.OnPostLoadFailed(err)
				}
				return
			}
			c.observer.OnPostLoaded(post)
		})
	}()
}

// CreatePost publishes a new post to the user's feed, or to a community when
// communityID is set. Images win over files; only uploaded items are attached.
func (c *Composer) CreatePost(ctx context.Context, text string, images, files []posts.Media, communityID string) {
	ctx = context.WithoutCancel(ctx)
	target := posts.NewTarget(communityID)
	builder := createBuilder(text, images, files)

	go func() {
		resp, err := c.repo.CreatePost(ctx, builder, target)
		slog.Info("[COMPOSER] post created",
			"kind", builder.Kind(), "target", target.Type, "attachments", len(builder.Attachments()), "error", err)
		metrics.ObserveOperation("create", err)

		c.dispatch(func() {
			if err == nil && resp != nil {
				if o, ok := c.observer.(CreateResultObserver); ok {
					o.OnPostCreatedResponse(resp)
				}
			}
			c.observer.OnPostCreated(err)
			// fired on failures too
			c.broadcaster.Broadcast(EventPostCreated)
		})
	}()
}

func createBuilder(text string, images, files []posts.Media) posts.Builder {
	switch {
	case len(images) > 0:
		return posts.NewImageBuilder(text, posts.UploadedData(images))
	case len(files) > 0:
		return posts.NewFileBuilder(text, posts.UploadedData(files))
	default:
		return posts.NewTextBuilder(text)
	}
}

// UpdatePost reconciles old with the desired text and attachments. The old
// post's kind picks the policy: removed attachments have their child posts
// deleted first, then a single update rewrites the text. New attachments are
// never added by an update.
func (c *Composer) UpdatePost(ctx context.Context, old *posts.Post, text string, images, files []posts.Media) {
	ctx = context.WithoutCancel(ctx)

	switch old.Kind() {
	case posts.KindImage:
		c.reconcile(ctx, old, old.Images, images, posts.NewImageBuilder(text, nil))
	case posts.KindFile:
		c.reconcile(ctx, old, old.Files, files, posts.NewFileBuilder(text, nil))
	default:
		c.update(ctx, old.ID, posts.NewTextBuilder(text))
	}
}

func (c *Composer) reconcile(ctx context.Context, old *posts.Post, oldItems, newItems []posts.Media, builder posts.Builder) {
	diff := posts.DiffMedia(oldItems, newItems)
	slog.Debug("[COMPOSER] reconciling attachments",
		"post", old.ID,
		"kind", builder.Kind(),
		"unchanged", posts.FileIDs(diff.Unchanged),
		"added", posts.FileIDs(diff.Added),
		"removed", posts.FileIDs(diff.Removed))

	if len(diff.Removed) == 0 {
		c.update(ctx, old.ID, builder)
		return
	}

	childIDs := make([]string, 0, len(diff.Removed))
	for _, item := range diff.Removed {
		if item.State != posts.MediaDownloadable {
			continue
		}
		childID, ok := old.ChildPostID(item.FileID())
		if !ok {
			slog.Debug("[COMPOSER] no child post for removed attachment, skipping",
				"post", old.ID, "file_id", item.FileID())
			continue
		}
		childIDs = append(childIDs, childID)
	}

	barrier := NewBarrier(len(childIDs))
	for _, childID := range childIDs {
		go func(childID string) {
			defer barrier.Leave()
			_ = c.deleteChildPost(ctx, childID, old.ID)
		}(childID)
	}

	barrier.Notify(c.dispatcher, func() {
		if c.released.Load() {
			return
		}
		c.update(ctx, old.ID, builder)
	})
}

// deleteChildPost removes one attachment. Failures are logged and recorded
// as orphans; they never stop the reconciliation.
func (c *Composer) deleteChildPost(ctx context.Context, postID, parentID string) error {
	err := c.repo.DeletePost(ctx, postID, parentID)
	metrics.ObserveChildDeletion(err)
	if err == nil {
		return nil
	}

	slog.Warn("[COMPOSER] failed to delete child post",
		"child", postID, "parent", parentID, "error", err)
	if c.orphans != nil {
		if recErr := c.orphans.RecordOrphan(ctx, postID, parentID, err); recErr != nil {
			slog.Error("[COMPOSER] failed to record orphaned child post",
				"child", postID, "parent", parentID, "error", recErr)
		}
	}
	return err
}

func (c *Composer) update(ctx context.Context, postID string, builder posts.Builder) {
	go func() {
		err := c.repo.UpdatePost(ctx, postID, builder)
		slog.Info("[COMPOSER] post updated", "post", postID, "kind", builder.Kind(), "error", err)
		metrics.ObserveOperation("update", err)

		c.dispatch(func() {
			c.observer.OnPostUpdated(err)
			// fired on failures too
			c.broadcaster.Broadcast(EventPostUpdated)
		})
	}()
}
