package post

import (
	"context"
	"net/http"
)

// HandleGet handles GET /xrpc/social.quill.feed.getPost?postId=...
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	postID := r.URL.Query().Get("postId")
	if postID == "" {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "postId is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	c, b := h.newComposer()
	defer c.Release()

	post, ok := h.loadPost(ctx, w, c, b, postID)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toPostView(post))
}
