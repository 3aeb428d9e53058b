package posts

import (
	"fmt"

	"Quill/internal/core/blobs"

	"github.com/ipfs/go-cid"
)

// MediaKind distinguishes image attachments from generic file attachments
type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindFile  MediaKind = "file"
)

// MediaState is the lifecycle state of a media item
type MediaState int

const (
	// MediaPending means the item has not been uploaded yet.
	// Pending items have no file identifier and never take part in a diff.
	MediaPending MediaState = iota
	// MediaUploaded means the blob is stored and ready to attach to a new post.
	MediaUploaded
	// MediaDownloadable means the item is already persisted as a child post.
	MediaDownloadable
)

func (s MediaState) String() string {
	switch s {
	case MediaPending:
		return "pending"
	case MediaUploaded:
		return "uploaded"
	case MediaDownloadable:
		return "downloadable"
	default:
		return fmt.Sprintf("MediaState(%d)", int(s))
	}
}

// FileData describes an uploaded blob: the backend-assigned file identifier
// plus provider metadata needed to embed it in a record.
type FileData struct {
	Blob     *blobs.BlobRef `json:"blob"`
	FileID   string         `json:"fileId"`
	Name     string         `json:"name,omitempty"`
	MimeType string         `json:"mimeType,omitempty"`
	Size     int            `json:"size,omitempty"`
}

// Media is a single attachment of a post.
// Exactly one of the state-specific fields is meaningful, selected by State.
type Media struct {
	// Data is set for uploaded items and for downloadable files
	Data *FileData
	// LocalID identifies a pending item on the client
	LocalID string
	// FileIDValue and URL are set for downloadable images
	FileIDValue string
	URL         string
	Kind        MediaKind
	State       MediaState
}

// NewPendingMedia returns an item that is still being uploaded.
func NewPendingMedia(kind MediaKind, localID string) Media {
	return Media{Kind: kind, State: MediaPending, LocalID: localID}
}

// NewUploadedMedia returns an item ready to be attached to a new post.
func NewUploadedMedia(kind MediaKind, data FileData) Media {
	return Media{Kind: kind, State: MediaUploaded, Data: &data}
}

// NewDownloadableImage returns a persisted image addressable by its file identifier.
func NewDownloadableImage(fileID, url string) Media {
	return Media{Kind: MediaKindImage, State: MediaDownloadable, FileIDValue: fileID, URL: url}
}

// NewDownloadableFile returns a persisted file attachment.
func NewDownloadableFile(data FileData) Media {
	return Media{Kind: MediaKindFile, State: MediaDownloadable, Data: &data}
}

// FileID returns the identifier used for media equality, or "" for pending items.
func (m Media) FileID() string {
	switch m.State {
	case MediaUploaded:
		if m.Data != nil {
			return m.Data.FileID
		}
	case MediaDownloadable:
		if m.FileIDValue != "" {
			return m.FileIDValue
		}
		if m.Data != nil {
			return m.Data.FileID
		}
	}
	return ""
}

// SameAttachment reports whether two items refer to the same stored file.
func (m Media) SameAttachment(other Media) bool {
	id := m.FileID()
	return id != "" && id == other.FileID()
}

// ValidateFileID checks that a file identifier is a well-formed blob CID.
func ValidateFileID(fileID string) error {
	if fileID == "" {
		return fmt.Errorf("%w: empty file identifier", ErrInvalidFileID)
	}
	if _, err := cid.Decode(fileID); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidFileID, fileID, err)
	}
	return nil
}

// UploadedData collects the data of uploaded items, skipping everything else.
func UploadedData(items []Media) []FileData {
	data := make([]FileData, 0, len(items))
	for _, item := range items {
		if item.State == MediaUploaded && item.Data != nil {
			data = append(data, *item.Data)
		}
	}
	return data
}
