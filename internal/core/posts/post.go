package posts

import (
	"time"
)

// Kind is the media kind of a post. It is fixed when the post is created.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindFile  Kind = "file"
)

// TargetType says whose feed a post is published to
type TargetType string

const (
	TargetUser      TargetType = "user"
	TargetCommunity TargetType = "community"
)

// Target is the feed a post is published to
type Target struct {
	Type TargetType `json:"type"`
	ID   string     `json:"id,omitempty"`
}

// NewTarget picks the acting user's own feed when communityID is empty,
// the named community otherwise.
func NewTarget(communityID string) Target {
	if communityID == "" {
		return Target{Type: TargetUser}
	}
	return Target{Type: TargetCommunity, ID: communityID}
}

// Post is a persisted post together with its attachments.
// Each attachment is backed by a child post; ChildPosts maps the attachment's
// file identifier to that child post's ID.
type Post struct {
	CreatedAt  time.Time         `json:"createdAt"`
	EditedAt   *time.Time        `json:"editedAt,omitempty"`
	ChildPosts map[string]string `json:"-"`
	Target     Target            `json:"target"`
	ID         string            `json:"id"`
	URI        string            `json:"uri"`
	CID        string            `json:"cid"`
	AuthorDID  string            `json:"authorDid"`
	Text       string            `json:"text"`
	// StoredKind is the kind recorded when the post was created, if known
	StoredKind Kind    `json:"-"`
	Images     []Media `json:"-"`
	Files      []Media `json:"-"`
}

// Kind returns the kind the post was created with. Posts loaded without a
// stored kind fall back to their attachments.
func (p *Post) Kind() Kind {
	if p.StoredKind != "" {
		return p.StoredKind
	}
	switch {
	case len(p.Images) > 0:
		return KindImage
	case len(p.Files) > 0:
		return KindFile
	default:
		return KindText
	}
}

// ChildPostID resolves the child post backing the attachment with fileID.
// Only downloadable attachments have one.
func (p *Post) ChildPostID(fileID string) (string, bool) {
	if p == nil || p.ChildPosts == nil || fileID == "" {
		return "", false
	}
	id, ok := p.ChildPosts[fileID]
	return id, ok && id != ""
}

// CreatePostResponse identifies a freshly created parent post
type CreatePostResponse struct {
	ID  string `json:"id"`
	URI string `json:"uri"`
	CID string `json:"cid"`
}
