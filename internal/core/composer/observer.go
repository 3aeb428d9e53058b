package composer

import (
	"context"

	"Quill/internal/core/posts"
)

// Observer receives the terminal notification of each composer operation.
// Every method is called at most once per operation, on the composer's dispatcher.
type Observer interface {
	OnPostLoaded(post *posts.Post)
	OnPostCreated(err error)
	OnPostUpdated(err error)
}

// LoadFailureObserver is optionally implemented by observers that want to
// hear about a failed LoadPost.
type LoadFailureObserver interface {
	OnPostLoadFailed(err error)
}

// Event is a process-wide notification name
type Event string

const (
	EventPostCreated Event = "post.created"
	EventPostUpdated Event = "post.updated"
)

// Broadcaster fans an event out to listeners unrelated to the operation's observer.
type Broadcaster interface {
	Broadcast(event Event)
}

// BroadcasterFunc adapts a function to the Broadcaster interface
type BroadcasterFunc func(event Event)

func (f BroadcasterFunc) Broadcast(event Event) { f(event) }

// OrphanRecorder persists child posts whose deletion failed during a reconciliation.
type OrphanRecorder interface {
	RecordOrphan(ctx context.Context, childPostID, parentPostID string, cause error) error
}

type noopBroadcaster struct{}

func (noopBroadcaster) Broadcast(Event) {}
