package post

import (
	"Quill/internal/core/posts"
)

// bridge turns composer callbacks into channel sends so a handler can wait
// for the single notification of its operation.
type bridge struct {
	loaded      chan *posts.Post
	loadFailed  chan error
	created     chan error
	createdResp chan *posts.CreatePostResponse
	updated     chan error
}

func newBridge() *bridge {
	return &bridge{
		loaded:      make(chan *posts.Post, 1),
		loadFailed:  make(chan error, 1),
		created:     make(chan error, 1),
		createdResp: make(chan *posts.CreatePostResponse, 1),
		updated:     make(chan error, 1),
	}
}

func (b *bridge) OnPostLoaded(post *posts.Post) { b.loaded <- post }
func (b *bridge) OnPostLoadFailed(err error)    { b.loadFailed <- err }
func (b *bridge) OnPostCreated(err error)       { b.created <- err }
func (b *bridge) OnPostUpdated(err error)       { b.updated <- err }

func (b *bridge) OnPostCreatedResponse(resp *posts.CreatePostResponse) {
	b.createdResp <- resp
}
