// Package pds provides authenticated access to a user's AT Protocol PDS repository.
// It wraps indigo's atclient.APIClient so the post repository can read and write
// records without knowing how the session was obtained.
package pds

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"Quill/internal/core/blobs"

	comatproto "github.com/bluesky-social/indigo/api/atproto"
	"github.com/bluesky-social/indigo/atproto/atclient"
	"github.com/bluesky-social/indigo/atproto/syntax"
)

// Client provides authenticated access to a user's PDS repository.
type Client interface {
	// CreateRecord creates a record in the user's repository.
	// If rkey is empty, the PDS generates a TID.
	CreateRecord(ctx context.Context, collection, rkey string, record any) (*RecordRef, error)

	// PutRecord replaces a record. If swapRecord is set, the write fails with
	// ErrConflict when the current CID doesn't match.
	PutRecord(ctx context.Context, collection, rkey string, record any, swapRecord string) (*RecordRef, error)

	// DeleteRecord deletes a record from the user's repository.
	DeleteRecord(ctx context.Context, collection, rkey string) error

	// GetRecord retrieves a single record by collection and rkey.
	GetRecord(ctx context.Context, collection, rkey string) (*Record, error)

	// ListRecords lists one page of records in a collection.
	ListRecords(ctx context.Context, collection string, limit int, cursor string) (*ListRecordsResponse, error)

	// UploadBlob uploads binary data and returns a BlobRef usable in records.
	UploadBlob(ctx context.Context, data []byte, mimeType string) (*blobs.BlobRef, error)

	// DID returns the authenticated user's DID.
	DID() string

	// HostURL returns the PDS host URL.
	HostURL() string
}

// RecordRef is the strong reference returned by record writes
type RecordRef struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

// Record is a single record read from the PDS
type Record struct {
	Value map[string]any
	URI   string
	CID   string
}

// ListRecordsResponse contains one page of a ListRecords call.
type ListRecordsResponse struct {
	Cursor  string
	Records []Record
}

type client struct {
	apiClient *atclient.APIClient
	did       string
	host      string
}

var _ Client = (*client)(nil)

// wrapAPIError maps atclient status codes onto the package's typed errors
// so callers can use errors.Is.
func wrapAPIError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var apiErr *atclient.APIError
	if errors.As(err, &apiErr) {
		var typed error
		switch apiErr.StatusCode {
		case http.StatusBadRequest:
			typed = ErrBadRequest
			// getRecord reports a missing record as 400 RecordNotFound
			if apiErr.Name == "RecordNotFound" {
				typed = ErrNotFound
			}
		case http.StatusUnauthorized:
			typed = ErrUnauthorized
		case http.StatusForbidden:
			typed = ErrForbidden
		case http.StatusNotFound:
			typed = ErrNotFound
		case http.StatusConflict:
			typed = ErrConflict
		case http.StatusRequestEntityTooLarge:
			typed = ErrPayloadTooLarge
		case http.StatusTooManyRequests:
			typed = ErrRateLimited
		}
		if typed != nil {
			return fmt.Errorf("%s: %w: %s", operation, typed, apiErr.Message)
		}
	}

	return fmt.Errorf("%s failed: %w", operation, err)
}

func (c *client) DID() string {
	return c.did
}

func (c *client) HostURL() string {
	return c.host
}

func (c *client) CreateRecord(ctx context.Context, collection, rkey string, record any) (*RecordRef, error) {
	payload := map[string]any{
		"repo":       c.did,
		"collection": collection,
		"record":     record,
	}
	if rkey != "" {
		payload["rkey"] = rkey
	}

	var result RecordRef
	if err := c.apiClient.Post(ctx, syntax.NSID("com.atproto.repo.createRecord"), payload, &result); err != nil {
		return nil, wrapAPIError(err, "createRecord")
	}
	return &result, nil
}

func (c *client) PutRecord(ctx context.Context, collection, rkey string, record any, swapRecord string) (*RecordRef, error) {
	payload := map[string]any{
		"repo":       c.did,
		"collection": collection,
		"rkey":       rkey,
		"record":     record,
	}
	if swapRecord != "" {
		payload["swapRecord"] = swapRecord
	}

	var result RecordRef
	if err := c.apiClient.Post(ctx, syntax.NSID("com.atproto.repo.putRecord"), payload, &result); err != nil {
		return nil, wrapAPIError(err, "putRecord")
	}
	return &result, nil
}

func (c *client) DeleteRecord(ctx context.Context, collection, rkey string) error {
	payload := map[string]any{
		"repo":       c.did,
		"collection": collection,
		"rkey":       rkey,
	}

	// deleteRecord returns an empty body on success
	if err := c.apiClient.Post(ctx, syntax.NSID("com.atproto.repo.deleteRecord"), payload, nil); err != nil {
		return wrapAPIError(err, "deleteRecord")
	}
	return nil
}

func (c *client) GetRecord(ctx context.Context, collection, rkey string) (*Record, error) {
	params := map[string]any{
		"repo":       c.did,
		"collection": collection,
		"rkey":       rkey,
	}

	var result struct {
		Value map[string]any `json:"value"`
		URI   string         `json:"uri"`
		CID   string         `json:"cid"`
	}
	if err := c.apiClient.Get(ctx, syntax.NSID("com.atproto.repo.getRecord"), params, &result); err != nil {
		return nil, wrapAPIError(err, "getRecord")
	}

	return &Record{URI: result.URI, CID: result.CID, Value: result.Value}, nil
}

func (c *client) ListRecords(ctx context.Context, collection string, limit int, cursor string) (*ListRecordsResponse, error) {
	params := map[string]any{
		"repo":       c.did,
		"collection": collection,
		"limit":      limit,
	}
	if cursor != "" {
		params["cursor"] = cursor
	}

	var result struct {
		Cursor  string `json:"cursor"`
		Records []struct {
			Value map[string]any `json:"value"`
			URI   string         `json:"uri"`
			CID   string         `json:"cid"`
		} `json:"records"`
	}
	if err := c.apiClient.Get(ctx, syntax.NSID("com.atproto.repo.listRecords"), params, &result); err != nil {
		return nil, wrapAPIError(err, "listRecords")
	}

	response := &ListRecordsResponse{
		Cursor:  result.Cursor,
		Records: make([]Record, len(result.Records)),
	}
	for i, rec := range result.Records {
		response.Records[i] = Record{URI: rec.URI, CID: rec.CID, Value: rec.Value}
	}
	return response, nil
}

// UploadBlob uploads binary data to the user's PDS repository.
// The PDS sniffs the MIME type itself; the returned BlobRef carries its verdict.
func (c *client) UploadBlob(ctx context.Context, data []byte, mimeType string) (*blobs.BlobRef, error) {
	result, err := comatproto.RepoUploadBlob(ctx, c.apiClient, bytes.NewReader(data))
	if err != nil {
		return nil, wrapAPIError(err, "uploadBlob")
	}

	return blobs.NewBlobRef(result.Blob.Ref.String(), result.Blob.MimeType, int(result.Blob.Size)), nil
}
