package post

import (
	"context"
	"net/http"

	"Quill/internal/core/posts"
)

// HandleCreate handles POST /xrpc/social.quill.feed.createPost
//
// Request body: { "text": "...", "communityId": "did:...", "images": [...], "files": [...] }
// Response: { "id": "...", "uri": "at://...", "cid": "..." }
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreatePostRequest
	if !h.decodeValidate(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	c, b := h.newComposer()
	defer c.Release()

	c.CreatePost(ctx, req.Text,
		toMedia(posts.MediaKindImage, req.Images, stateUploaded),
		toMedia(posts.MediaKindFile, req.Files, stateUploaded),
		req.CommunityID)

	err, ok := await(ctx, w, c, b.created)
	if !ok {
		return
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// the response notification always precedes the created one
	var out CreatePostResponse
	select {
	case resp := <-b.createdResp:
		out = CreatePostResponse{ID: resp.ID, URI: resp.URI, CID: resp.CID}
	default:
	}
	writeJSON(w, http.StatusOK, out)
}
