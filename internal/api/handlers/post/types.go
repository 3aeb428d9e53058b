package post

import (
	"fmt"
	"strings"
	"time"

	"Quill/internal/core/blobs"
	"Quill/internal/core/posts"

	"github.com/go-playground/validator/v10"
)

const (
	stateUploaded     = "uploaded"
	statePending      = "pending"
	stateDownloadable = "downloadable"
)

// MediaInput is one attachment in a create or update request
type MediaInput struct {
	FileID   string `json:"fileId" validate:"required_unless=State pending,max=128"`
	State    string `json:"state,omitempty" validate:"omitempty,oneof=pending uploaded downloadable"`
	LocalID  string `json:"localId,omitempty" validate:"max=128"`
	URL      string `json:"url,omitempty" validate:"omitempty,url"`
	Name     string `json:"name,omitempty" validate:"max=256"`
	MimeType string `json:"mimeType,omitempty" validate:"max=128"`
	Size     int    `json:"size,omitempty" validate:"gte=0"`
}

// CreatePostRequest is the body of social.quill.feed.createPost
type CreatePostRequest struct {
	Text        string       `json:"text" validate:"max=10000"`
	CommunityID string       `json:"communityId,omitempty" validate:"omitempty,startswith=did:"`
	Images      []MediaInput `json:"images,omitempty" validate:"max=10,dive"`
	Files       []MediaInput `json:"files,omitempty" validate:"max=10,dive"`
}

// UpdatePostRequest is the body of social.quill.feed.updatePost.
// Images and files list the attachments the post should keep.
type UpdatePostRequest struct {
	PostID string       `json:"postId" validate:"required,max=64"`
	Text   string       `json:"text" validate:"max=10000"`
	Images []MediaInput `json:"images,omitempty" validate:"max=10,dive"`
	Files  []MediaInput `json:"files,omitempty" validate:"max=10,dive"`
}

// DeletePostRequest is the body of social.quill.feed.deletePost
type DeletePostRequest struct {
	PostID string `json:"postId" validate:"required,max=64"`
}

// CreatePostResponse is returned by createPost
type CreatePostResponse struct {
	ID  string `json:"id"`
	URI string `json:"uri"`
	CID string `json:"cid"`
}

// MediaView is an attachment in a post view
type MediaView struct {
	FileID   string `json:"fileId"`
	URL      string `json:"url,omitempty"`
	Name     string `json:"name,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	Size     int    `json:"size,omitempty"`
}

// PostView is returned by getPost
type PostView struct {
	CreatedAt time.Time    `json:"createdAt"`
	EditedAt  *time.Time   `json:"editedAt,omitempty"`
	Target    posts.Target `json:"target"`
	ID        string       `json:"id"`
	URI       string       `json:"uri"`
	CID       string       `json:"cid"`
	AuthorDID string       `json:"authorDid"`
	Text      string       `json:"text"`
	Kind      posts.Kind   `json:"kind"`
	Images    []MediaView  `json:"images"`
	Files     []MediaView  `json:"files"`
}

// UploadResponse describes a freshly uploaded attachment, ready to be sent
// back in a create request
type UploadResponse struct {
	Blob     *blobs.BlobRef `json:"blob"`
	FileID   string         `json:"fileId"`
	State    string         `json:"state"`
	Kind     string         `json:"kind"`
	Name     string         `json:"name,omitempty"`
	MimeType string         `json:"mimeType"`
	Size     int            `json:"size"`
}

// toMedia converts request attachments. defaultState applies when an input
// doesn't name one: uploaded for create, downloadable for update.
func toMedia(kind posts.MediaKind, inputs []MediaInput, defaultState string) []posts.Media {
	items := make([]posts.Media, 0, len(inputs))
	for _, in := range inputs {
		state := in.State
		if state == "" {
			state = defaultState
		}

		data := posts.FileData{
			FileID:   in.FileID,
			Name:     in.Name,
			MimeType: in.MimeType,
			Size:     in.Size,
		}
		if in.FileID != "" {
			data.Blob = blobs.NewBlobRef(in.FileID, in.MimeType, in.Size)
		}

		switch state {
		case statePending:
			items = append(items, posts.NewPendingMedia(kind, in.LocalID))
		case stateDownloadable:
			if kind == posts.MediaKindImage {
				items = append(items, posts.NewDownloadableImage(in.FileID, in.URL))
			} else {
				items = append(items, posts.NewDownloadableFile(data))
			}
		default:
			items = append(items, posts.NewUploadedMedia(kind, data))
		}
	}
	return items
}

func toPostView(post *posts.Post) PostView {
	view := PostView{
		ID:        post.ID,
		URI:       post.URI,
		CID:       post.CID,
		AuthorDID: post.AuthorDID,
		Text:      post.Text,
		Kind:      post.Kind(),
		Target:    post.Target,
		CreatedAt: post.CreatedAt,
		EditedAt:  post.EditedAt,
		Images:    make([]MediaView, 0, len(post.Images)),
		Files:     make([]MediaView, 0, len(post.Files)),
	}
	for _, img := range post.Images {
		view.Images = append(view.Images, MediaView{FileID: img.FileID(), URL: img.URL})
	}
	for _, f := range post.Files {
		mv := MediaView{FileID: f.FileID()}
		if f.Data != nil {
			mv.Name = f.Data.Name
			mv.MimeType = f.Data.MimeType
			mv.Size = f.Data.Size
		}
		view.Files = append(view.Files, mv)
	}
	return view
}

// formatValidationError renders validator errors as one readable message
func formatValidationError(err error) string {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		switch fe.Tag() {
		case "required", "required_unless":
			messages = append(messages, fmt.Sprintf("%s is required", field))
		case "max":
			messages = append(messages, fmt.Sprintf("%s must be at most %s", field, fe.Param()))
		case "oneof":
			messages = append(messages, fmt.Sprintf("%s must be one of [%s]", field, fe.Param()))
		case "startswith":
			messages = append(messages, fmt.Sprintf("%s must start with %q", field, fe.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid", field))
		}
	}
	return strings.Join(messages, "; ")
}
