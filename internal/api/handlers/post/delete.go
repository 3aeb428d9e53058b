package post

import (
	"context"
	"log/slog"
	"net/http"
)

// HandleDelete handles POST /xrpc/social.quill.feed.deletePost
// Deletes the post together with every attachment child post.
//
// Request body: { "postId": "..." }
// Response: {}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	var req DeletePostRequest
	if !h.decodeValidate(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.repo.DeletePost(ctx, req.PostID, ""); err != nil {
		handleServiceError(w, err)
		return
	}

	slog.Info("[POST-HANDLER] post deleted", "post", req.PostID)
	writeJSON(w, http.StatusOK, struct{}{})
}
