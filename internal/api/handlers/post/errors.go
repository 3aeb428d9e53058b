package post

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"Quill/internal/atproto/pds"
	"Quill/internal/core/blobs"
	"Quill/internal/core/posts"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, statusCode int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(errorResponse{
		Error:   errorType,
		Message: message,
	}); err != nil {
		slog.Error("[POST-HANDLER] failed to encode error response", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("[POST-HANDLER] failed to encode response", "error", err)
	}
}

// handleServiceError maps composer and repository errors to HTTP responses
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case posts.IsValidationError(err):
		writeError(w, http.StatusBadRequest, "InvalidRequest", err.Error())

	case errors.Is(err, posts.ErrInvalidFileID):
		writeError(w, http.StatusBadRequest, "InvalidFileID", err.Error())

	case errors.Is(err, posts.ErrKindMismatch):
		writeError(w, http.StatusBadRequest, "KindMismatch", "A post's media kind cannot be changed")

	case errors.Is(err, posts.ErrNotChild):
		writeError(w, http.StatusBadRequest, "NotChild", err.Error())

	case posts.IsNotFound(err):
		writeError(w, http.StatusNotFound, "PostNotFound", "Post not found")

	case errors.Is(err, blobs.ErrUnsupportedMimeType), errors.Is(err, blobs.ErrEmptyData):
		writeError(w, http.StatusBadRequest, "InvalidBlob", err.Error())

	case errors.Is(err, blobs.ErrTooLarge), errors.Is(err, pds.ErrPayloadTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "BlobTooLarge", err.Error())

	case errors.Is(err, pds.ErrConflict):
		writeError(w, http.StatusConflict, "Conflict",
			"The post was modified concurrently. Reload it and try again.")

	case errors.Is(err, pds.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "RateLimitExceeded",
			"Rate limit exceeded. Please try again later.")

	case pds.IsAuthError(err):
		slog.Error("[POST-HANDLER] PDS rejected our session", "error", err)
		writeError(w, http.StatusBadGateway, "UpstreamAuthFailed",
			"The content repository rejected the service credentials")

	default:
		// Don't leak internal error details to clients
		slog.Error("[POST-HANDLER] unexpected error", "error", err)
		writeError(w, http.StatusInternalServerError, "InternalServerError",
			"An internal error occurred")
	}
}
