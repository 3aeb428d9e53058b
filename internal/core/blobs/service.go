package blobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

const (
	maxImageSize = 6 * 1024 * 1024
	maxFileSize  = 50 * 1024 * 1024
)

// Validation errors, matched with errors.Is
var (
	ErrUnsupportedMimeType = errors.New("unsupported MIME type")
	ErrEmptyData           = errors.New("data cannot be empty")
	ErrTooLarge            = errors.New("data too large")
)

// Uploader stores raw bytes in the acting user's repository.
// pds.Client satisfies this interface.
type Uploader interface {
	UploadBlob(ctx context.Context, data []byte, mimeType string) (*BlobRef, error)
}

// Service defines the interface for media uploads
type Service interface {
	// UploadImage validates and uploads an image attachment
	UploadImage(ctx context.Context, data []byte, mimeType string) (*BlobRef, error)

	// UploadFile validates and uploads a generic file attachment
	UploadFile(ctx context.Context, data []byte, mimeType string) (*BlobRef, error)
}

type blobService struct {
	uploader Uploader
}

// NewBlobService creates a new blob service
func NewBlobService(uploader Uploader) Service {
	return &blobService{uploader: uploader}
}

// UploadImage uploads an image after checking its type and size (max 6MB).
func (s *blobService) UploadImage(ctx context.Context, data []byte, mimeType string) (*BlobRef, error) {
	mimeType = normalizeMimeType(mimeType)
	if !isValidImageMimeType(mimeType) {
		return nil, fmt.Errorf("%w: %s (allowed: image/jpeg, image/png, image/webp, image/gif)", ErrUnsupportedMimeType, mimeType)
	}
	return s.upload(ctx, data, mimeType, maxImageSize)
}

// UploadFile uploads any file up to 50MB.
func (s *blobService) UploadFile(ctx context.Context, data []byte, mimeType string) (*BlobRef, error) {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return s.upload(ctx, data, normalizeMimeType(mimeType), maxFileSize)
}

func (s *blobService) upload(ctx context.Context, data []byte, mimeType string, maxSize int) (*BlobRef, error) {
	if len(data) == 0 {
		return nil, ErrEmptyData
	}
	if len(data) > maxSize {
		return nil, fmt.Errorf("%w: data size %d bytes exceeds maximum of %d bytes", ErrTooLarge, len(data), maxSize)
	}

	blob, err := s.uploader.UploadBlob(ctx, data, mimeType)
	if err != nil {
		return nil, fmt.Errorf("failed to upload blob: %w", err)
	}

	// Validate required fields in PDS response
	if blob.CID() == "" {
		return nil, fmt.Errorf("PDS response missing required field: ref.$link (CID)")
	}
	if blob.MimeType == "" {
		blob.MimeType = mimeType
	}
	if blob.Size == 0 {
		blob.Size = len(data)
	}

	slog.Debug("[BLOB-UPLOAD] uploaded blob", "cid", blob.CID(), "mime_type", blob.MimeType, "size", blob.Size)
	return blob, nil
}

// normalizeMimeType converts non-standard MIME types to their standard equivalents
// Common case: Many clients send image/jpg instead of the standard image/jpeg
func normalizeMimeType(mimeType string) string {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	switch mimeType {
	case "image/jpg":
		return "image/jpeg"
	default:
		return mimeType
	}
}

func isValidImageMimeType(mimeType string) bool {
	switch mimeType {
	case "image/jpeg", "image/png", "image/webp", "image/gif":
		return true
	default:
		return false
	}
}
