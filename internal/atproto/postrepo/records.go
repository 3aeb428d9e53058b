package postrepo

import (
	"time"

	"Quill/internal/core/blobs"
	"Quill/internal/core/posts"
)

// Collection holds parent posts and their attachment child posts
const Collection = "social.quill.feed.post"

// StrongRef is a com.atproto.repo.strongRef
type StrongRef struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

// TargetRecord is the feed a parent post is published to
type TargetRecord struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
}

// AttachmentRecord is the media carried by a child post
type AttachmentRecord struct {
	Blob     *blobs.BlobRef `json:"blob"`
	Kind     string         `json:"kind"`
	Name     string         `json:"name,omitempty"`
	MimeType string         `json:"mimeType,omitempty"`
	Size     int            `json:"size,omitempty"`
}

// PostRecord is the record stored for both parent and child posts.
// Parents carry Kind and Target; children carry Parent and Attachment.
type PostRecord struct {
	Target     *TargetRecord     `json:"target,omitempty"`
	Parent     *StrongRef        `json:"parent,omitempty"`
	Attachment *AttachmentRecord `json:"attachment,omitempty"`
	Type       string            `json:"$type"`
	Text       string            `json:"text"`
	Kind       string            `json:"kind,omitempty"`
	CreatedAt  string            `json:"createdAt"`
	EditedAt   string            `json:"editedAt,omitempty"`
}

// IsChild reports whether the record is an attachment child post
func (r *PostRecord) IsChild() bool {
	return r.Parent != nil
}

func newParentRecord(builder posts.Builder, target posts.Target, now time.Time) *PostRecord {
	return &PostRecord{
		Type:      Collection,
		Text:      builder.Text(),
		Kind:      string(builder.Kind()),
		Target:    &TargetRecord{Type: string(target.Type), ID: target.ID},
		CreatedAt: now.UTC().Format(time.RFC3339),
	}
}

func newChildRecord(parent StrongRef, kind posts.MediaKind, data posts.FileData, now time.Time) *PostRecord {
	blob := data.Blob
	if blob == nil {
		blob = blobs.NewBlobRef(data.FileID, data.MimeType, data.Size)
	}
	return &PostRecord{
		Type:   Collection,
		Parent: &parent,
		Attachment: &AttachmentRecord{
			Kind:     string(kind),
			Blob:     blob,
			Name:     data.Name,
			MimeType: data.MimeType,
			Size:     data.Size,
		},
		CreatedAt: now.UTC().Format(time.RFC3339),
	}
}
