package post

import (
	"context"
	"errors"
	"io"
	"net/http"

	"Quill/internal/core/blobs"
	"Quill/internal/core/posts"
)

// HandleUpload handles POST /xrpc/social.quill.feed.uploadMedia?kind=image|file&name=...
// The body is the raw file; Content-Type names its MIME type.
// This is the pending to uploaded step of an attachment.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	kind := posts.MediaKind(r.URL.Query().Get("kind"))
	if kind == "" {
		kind = posts.MediaKindImage
	}
	if kind != posts.MediaKindImage && kind != posts.MediaKindFile {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "kind must be image or file")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBodyMiB*1024*1024+1)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "BlobTooLarge", "Upload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "InvalidRequest", "Failed to read upload")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	mimeType := r.Header.Get("Content-Type")
	var blob *blobs.BlobRef
	if kind == posts.MediaKindImage {
		blob, err = h.blobs.UploadImage(ctx, data, mimeType)
	} else {
		blob, err = h.blobs.UploadFile(ctx, data, mimeType)
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, UploadResponse{
		Blob:     blob,
		FileID:   blob.CID(),
		State:    stateUploaded,
		Kind:     string(kind),
		Name:     r.URL.Query().Get("name"),
		MimeType: blob.MimeType,
		Size:     blob.Size,
	})
}
