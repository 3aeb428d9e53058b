// Package post serves the social.quill.feed.* XRPC endpoints. Every request
// drives its own composer and waits for that composer's single notification.
package post

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"Quill/internal/core/blobs"
	"Quill/internal/core/composer"
	"Quill/internal/core/posts"

	"github.com/go-playground/validator/v10"
)

const (
	maxJSONBodySize  = 1 * 1024 * 1024
	defaultTimeout   = 30 * time.Second
	maxUploadBodyMiB = 50
)

// Handler serves post composition endpoints
type Handler struct {
	repo     posts.Repository
	blobs    blobs.Service
	validate *validator.Validate
	options  []composer.Option
	timeout  time.Duration
}

// NewHandler creates a handler. options are applied to every per-request composer
// (broadcaster, dispatcher, orphan recorder).
func NewHandler(repo posts.Repository, blobService blobs.Service, timeout time.Duration, options ...composer.Option) *Handler {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Handler{
		repo:     repo,
		blobs:    blobService,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		options:  options,
		timeout:  timeout,
	}
}

func (h *Handler) newComposer() (*composer.Composer, *bridge) {
	b := newBridge()
	return composer.New(h.repo, b, h.options...), b
}

// decodeValidate parses a JSON body and validates it. It writes the error
// response itself and returns false on failure.
func (h *Handler) decodeValidate(w http.ResponseWriter, r *http.Request, body any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)

	if err := json.NewDecoder(r.Body).Decode(body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "RequestTooLarge", "Request body too large (max 1MB)")
			return false
		}
		writeError(w, http.StatusBadRequest, "InvalidRequest", "Invalid request body")
		return false
	}

	if err := h.validate.Struct(body); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", formatValidationError(err))
		return false
	}
	return true
}

// await waits for one value from ch. When ctx ends first, the composer is
// released and a timeout response is written if the client is still there.
func await[T any](ctx context.Context, w http.ResponseWriter, c *composer.Composer, ch <-chan T) (T, bool) {
	select {
	case v := <-ch:
		return v, true
	case <-ctx.Done():
		c.Release()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			writeError(w, http.StatusGatewayTimeout, "Timeout",
				"The content repository did not answer in time and the operation was abandoned. "+
					"The post may be partially changed; reload it before retrying.")
		}
		var zero T
		return zero, false
	}
}

// loadPost runs a one-shot load through c
func (h *Handler) loadPost(ctx context.Context, w http.ResponseWriter, c *composer.Composer, b *bridge, postID string) (*posts.Post, bool) {
	c.LoadPost(ctx, postID)
	select {
	case post := <-b.loaded:
		return post, true
	case err := <-b.loadFailed:
		handleServiceError(w, err)
		return nil, false
	case <-ctx.Done():
		c.Release()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			writeError(w, http.StatusGatewayTimeout, "Timeout", "The content repository did not answer in time")
		}
		return nil, false
	}
}
