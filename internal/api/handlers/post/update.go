package post

import (
	"context"
	"log/slog"
	"net/http"

	"Quill/internal/core/posts"
)

// HandleUpdate handles POST /xrpc/social.quill.feed.updatePost
//
// The post is loaded first; attachments missing from the request are removed,
// then the text is rewritten.
//
// Request body: { "postId": "...", "text": "...", "images": [...], "files": [...] }
// Response: the updated post view
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req UpdatePostRequest
	if !h.decodeValidate(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	c, b := h.newComposer()
	defer c.Release()

	old, ok := h.loadPost(ctx, w, c, b, req.PostID)
	if !ok {
		return
	}

	c.UpdatePost(ctx, old, req.Text,
		toMedia(posts.MediaKindImage, req.Images, stateDownloadable),
		toMedia(posts.MediaKindFile, req.Files, stateDownloadable))

	err, ok := await(ctx, w, c, b.updated)
	if !ok {
		return
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// reload so the response reflects what the repository now holds
	updated, ok := h.loadPost(ctx, w, c, b, req.PostID)
	if !ok {
		return
	}
	slog.Debug("[POST-HANDLER] post updated", "post", req.PostID,
		"images", len(updated.Images), "files", len(updated.Files))
	writeJSON(w, http.StatusOK, toPostView(updated))
}
