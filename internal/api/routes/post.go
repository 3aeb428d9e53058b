package routes

import (
	"Quill/internal/api/handlers/post"

	"github.com/go-chi/chi/v5"
)

// RegisterPostRoutes registers the social.quill.feed.* XRPC endpoints
func RegisterPostRoutes(r chi.Router, h *post.Handler) {
	// queries
	r.Get("/xrpc/social.quill.feed.getPost", h.HandleGet)

	// procedures
	r.Post("/xrpc/social.quill.feed.createPost", h.HandleCreate)
	r.Post("/xrpc/social.quill.feed.updatePost", h.HandleUpdate)
	r.Post("/xrpc/social.quill.feed.deletePost", h.HandleDelete)
	r.Post("/xrpc/social.quill.feed.uploadMedia", h.HandleUpload)
}
