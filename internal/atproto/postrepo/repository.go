// Package postrepo stores posts as records in the user's PDS repository.
// A post is a parent record plus one child record per attachment, all in
// the same collection; children point back at their parent with a strong ref.
package postrepo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"Quill/internal/atproto/pds"
	"Quill/internal/atproto/utils"
	"Quill/internal/core/blobs"
	"Quill/internal/core/posts"
)

const defaultPageSize = 100

type repository struct {
	client   pds.Client
	now      func() time.Time
	pageSize int
}

// Option configures the repository
type Option func(*repository)

// WithPageSize sets the listRecords page size used when collecting children.
func WithPageSize(n int) Option {
	return func(r *repository) {
		if n > 0 {
			r.pageSize = n
		}
	}
}

// WithClock overrides the timestamp source
func WithClock(now func() time.Time) Option {
	return func(r *repository) {
		r.now = now
	}
}

// NewRepository returns a posts.Repository writing through the given PDS client.
func NewRepository(client pds.Client, opts ...Option) posts.Repository {
	r := &repository{
		client:   client,
		now:      time.Now,
		pageSize: defaultPageSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CreatePost writes the parent record first, then one child per attachment.
// A failed child write leaves the parent in place and returns the error.
func (r *repository) CreatePost(ctx context.Context, builder posts.Builder, target posts.Target) (*posts.CreatePostResponse, error) {
	attachments := builder.Attachments()
	for _, data := range attachments {
		if err := posts.ValidateFileID(data.FileID); err != nil {
			return nil, err
		}
	}

	now := r.now()
	ref, err := r.client.CreateRecord(ctx, Collection, "", newParentRecord(builder, target, now))
	if err != nil {
		return nil, wrapPDSError(err, "create post")
	}

	parent := StrongRef{URI: ref.URI, CID: ref.CID}
	kind := posts.AttachmentKind(builder.Kind())
	for _, data := range attachments {
		if _, err := r.client.CreateRecord(ctx, Collection, "", newChildRecord(parent, kind, data, now)); err != nil {
			slog.Error("[POST-REPO] failed to create child post",
				"parent", ref.URI, "file_id", data.FileID, "error", err)
			return nil, wrapPDSError(err, "create child post")
		}
	}

	slog.Info("[POST-REPO] post created",
		"uri", ref.URI, "kind", builder.Kind(), "target", target.Type, "attachments", len(attachments))

	return &posts.CreatePostResponse{
		ID:  utils.ExtractRKeyFromURI(ref.URI),
		URI: ref.URI,
		CID: ref.CID,
	}, nil
}

// UpdatePost rewrites the parent's text with swapRecord locking, then appends
// a child for every attachment the builder carries.
func (r *repository) UpdatePost(ctx context.Context, postID string, builder posts.Builder) error {
	rec, record, err := r.getParent(ctx, postID)
	if err != nil {
		return err
	}

	if posts.Kind(record.Kind) != builder.Kind() {
		return fmt.Errorf("%w: post %s is %s, payload is %s", posts.ErrKindMismatch, postID, record.Kind, builder.Kind())
	}

	for _, data := range builder.Attachments() {
		if err := posts.ValidateFileID(data.FileID); err != nil {
			return err
		}
	}

	now := r.now()
	record.Text = builder.Text()
	record.EditedAt = now.UTC().Format(time.RFC3339)

	ref, err := r.client.PutRecord(ctx, Collection, postID, record, rec.CID)
	if err != nil {
		return wrapPDSError(err, "update post")
	}

	parent := StrongRef{URI: ref.URI, CID: ref.CID}
	kind := posts.AttachmentKind(builder.Kind())
	for _, data := range builder.Attachments() {
		if _, err := r.client.CreateRecord(ctx, Collection, "", newChildRecord(parent, kind, data, now)); err != nil {
			return wrapPDSError(err, "append child post")
		}
	}

	slog.Info("[POST-REPO] post updated", "uri", ref.URI, "appended", len(builder.Attachments()))
	return nil
}

// DeletePost deletes a single child when parentID is set. Without a parent it
// deletes the post and every child pointing at it; child failures are joined
// and the parent is still removed.
func (r *repository) DeletePost(ctx context.Context, postID, parentID string) error {
	if parentID != "" {
		return r.deleteChild(ctx, postID, parentID)
	}

	if _, _, err := r.getParent(ctx, postID); err != nil {
		return err
	}

	children, err := r.listChildren(ctx, postID)
	if err != nil {
		return err
	}

	var errs []error
	for _, child := range children {
		if err := r.client.DeleteRecord(ctx, Collection, child.rkey); err != nil && !errors.Is(err, pds.ErrNotFound) {
			errs = append(errs, wrapPDSError(err, "delete child post "+child.rkey))
		}
	}

	if err := r.client.DeleteRecord(ctx, Collection, postID); err != nil {
		errs = append(errs, wrapPDSError(err, "delete post"))
	}

	return errors.Join(errs...)
}

func (r *repository) deleteChild(ctx context.Context, childID, parentID string) error {
	rec, err := r.client.GetRecord(ctx, Collection, childID)
	if err != nil {
		return wrapPDSError(err, "get child post")
	}

	var record PostRecord
	if err := utils.DecodeRecord(rec.Value, &record); err != nil {
		return err
	}
	if !record.IsChild() || utils.ExtractRKeyFromURI(record.Parent.URI) != parentID {
		return fmt.Errorf("%w: %s is not attached to %s", posts.ErrNotChild, childID, parentID)
	}

	if err := r.client.DeleteRecord(ctx, Collection, childID); err != nil {
		return wrapPDSError(err, "delete child post")
	}

	slog.Debug("[POST-REPO] child post deleted", "child", childID, "parent", parentID)
	return nil
}

// GetPost reads the parent and collects its children into downloadable media.
func (r *repository) GetPost(ctx context.Context, postID string) (*posts.Post, error) {
	rec, record, err := r.getParent(ctx, postID)
	if err != nil {
		return nil, err
	}

	post := &posts.Post{
		ID:         postID,
		URI:        rec.URI,
		CID:        rec.CID,
		AuthorDID:  r.client.DID(),
		Text:       record.Text,
		StoredKind: posts.Kind(record.Kind),
		CreatedAt:  utils.ParseCreatedAt(rec.Value),
		ChildPosts: make(map[string]string),
	}
	if record.Target != nil {
		post.Target = posts.Target{Type: posts.TargetType(record.Target.Type), ID: record.Target.ID}
	}
	if record.EditedAt != "" {
		if edited, parseErr := time.Parse(time.RFC3339, record.EditedAt); parseErr == nil {
			post.EditedAt = &edited
		}
	}

	children, err := r.listChildren(ctx, postID)
	if err != nil {
		return nil, err
	}

	for _, child := range children {
		att := child.record.Attachment
		fileID := att.Blob.CID()
		if fileID == "" {
			continue
		}
		if _, dup := post.ChildPosts[fileID]; dup {
			continue
		}
		post.ChildPosts[fileID] = child.rkey

		switch posts.MediaKind(att.Kind) {
		case posts.MediaKindImage:
			url := blobs.HydrateBlobURL(r.client.HostURL(), r.client.DID(), fileID)
			post.Images = append(post.Images, posts.NewDownloadableImage(fileID, url))
		case posts.MediaKindFile:
			post.Files = append(post.Files, posts.NewDownloadableFile(posts.FileData{
				Blob:     att.Blob,
				FileID:   fileID,
				Name:     att.Name,
				MimeType: att.MimeType,
				Size:     att.Size,
			}))
		default:
			slog.Warn("[POST-REPO] skipping child with unknown attachment kind", "child", child.rkey, "kind", att.Kind)
		}
	}

	return post, nil
}

func (r *repository) getParent(ctx context.Context, postID string) (*pds.Record, *PostRecord, error) {
	if postID == "" {
		return nil, nil, posts.NewValidationError("postId", "post ID is required")
	}

	rec, err := r.client.GetRecord(ctx, Collection, postID)
	if err != nil {
		return nil, nil, wrapPDSError(err, "get post")
	}

	var record PostRecord
	if err := utils.DecodeRecord(rec.Value, &record); err != nil {
		return nil, nil, err
	}
	if record.IsChild() {
		// attachments are not addressable as posts
		return nil, nil, fmt.Errorf("%s is an attachment: %w", postID, posts.ErrNotFound)
	}
	return rec, &record, nil
}

type childRecord struct {
	record PostRecord
	rkey   string
}

// listChildren pages through the collection newest first and returns the
// children of postID ordered by record key, which follows creation order for
// TIDs. Children are always written after their parent, so paging stops at
// the first record older than postID.
func (r *repository) listChildren(ctx context.Context, postID string) ([]childRecord, error) {
	var children []childRecord
	cursor := ""
	for {
		page, err := r.client.ListRecords(ctx, Collection, r.pageSize, cursor)
		if err != nil {
			return nil, wrapPDSError(err, "list child posts")
		}

		older := false
		for _, rec := range page.Records {
			if olderThan(utils.ExtractRKeyFromURI(rec.URI), postID) {
				older = true
				break
			}

			var record PostRecord
			if err := utils.DecodeRecord(rec.Value, &record); err != nil {
				slog.Warn("[POST-REPO] skipping undecodable record", "uri", rec.URI, "error", err)
				continue
			}
			if !record.IsChild() || record.Attachment == nil {
				continue
			}
			if utils.ExtractRKeyFromURI(record.Parent.URI) != postID {
				continue
			}
			children = append(children, childRecord{rkey: utils.ExtractRKeyFromURI(rec.URI), record: record})
		}

		if older || page.Cursor == "" || len(page.Records) == 0 {
			break
		}
		cursor = page.Cursor
	}

	sort.Slice(children, func(i, j int) bool {
		return children[i].rkey < children[j].rkey
	})
	return children, nil
}

// olderThan compares record keys. Only keys of equal length (TIDs) are
// ordered; anything else is never considered older.
func olderThan(rkey, postID string) bool {
	return len(rkey) == len(postID) && rkey < postID
}

// wrapPDSError adds operation context and translates not-found into posts.ErrNotFound.
func wrapPDSError(err error, operation string) error {
	if errors.Is(err, pds.ErrNotFound) {
		return fmt.Errorf("%s: %w: %w", operation, posts.ErrNotFound, err)
	}
	return fmt.Errorf("%s: %w", operation, err)
}
