package posts

import "context"

// Repository is the content repository the composer writes through.
// Every call is a single request/response against the backend; nothing is retried here.
type Repository interface {
	// CreatePost creates a parent post from the builder and publishes it to target.
	// Attachments carried by the builder become child posts.
	CreatePost(ctx context.Context, builder Builder, target Target) (*CreatePostResponse, error)

	// UpdatePost rewrites the parent post's text. Attachments carried by the
	// builder are appended; existing children are left alone.
	// Returns ErrKindMismatch if the builder's kind differs from the post's.
	UpdatePost(ctx context.Context, postID string, builder Builder) error

	// DeletePost deletes postID. With a parentID, postID must be a child of it
	// and only that child is removed; without one the whole post goes.
	DeletePost(ctx context.Context, postID, parentID string) error

	// GetPost loads a post together with its attachments and child post mapping.
	GetPost(ctx context.Context, postID string) (*Post, error)
}
