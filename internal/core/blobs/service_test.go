package blobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockUploader struct {
	gotMimeType string
	ref         *BlobRef
	err         error
}

func (m *mockUploader) UploadBlob(ctx context.Context, data []byte, mimeType string) (*BlobRef, error) {
	m.gotMimeType = mimeType
	if m.err != nil {
		return nil, m.err
	}
	return m.ref, nil
}

func TestUploadImage(t *testing.T) {
	tests := []struct {
		name       string
		data       []byte
		mimeType   string
		ref        *BlobRef
		uploadErr  error
		wantErr    string
		wantMime   string
		wantSize   int
		wantUpload bool
	}{
		{
			name:       "jpg normalized to jpeg",
			data:       []byte("imagebytes"),
			mimeType:   "image/jpg",
			ref:        NewBlobRef("bafkreiimage", "image/jpeg", 10),
			wantMime:   "image/jpeg",
			wantSize:   10,
			wantUpload: true,
		},
		{
			name:       "missing size filled from data",
			data:       []byte("abc"),
			mimeType:   "image/png; charset=binary",
			ref:        &BlobRef{Type: "blob", Ref: map[string]string{"$link": "bafkreiabc"}},
			wantMime:   "image/png",
			wantSize:   3,
			wantUpload: true,
		},
		{
			name:     "unsupported type rejected",
			data:     []byte("abc"),
			mimeType: "application/pdf",
			wantErr:  "unsupported MIME type",
		},
		{
			name:     "empty data rejected",
			data:     nil,
			mimeType: "image/png",
			wantErr:  "data cannot be empty",
		},
		{
			name:       "uploader error wrapped",
			data:       []byte("abc"),
			mimeType:   "image/webp",
			uploadErr:  errors.New("boom"),
			wantErr:    "failed to upload blob",
			wantUpload: true,
		},
		{
			name:       "response without cid rejected",
			data:       []byte("abc"),
			mimeType:   "image/webp",
			ref:        &BlobRef{Type: "blob"},
			wantErr:    "ref.$link",
			wantUpload: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := &mockUploader{ref: tt.ref, err: tt.uploadErr}
			svc := NewBlobService(up)

			blob, err := svc.UploadImage(context.Background(), tt.data, tt.mimeType)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Equal(t, tt.wantUpload, up.gotMimeType != "")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantMime, blob.MimeType)
			assert.Equal(t, tt.wantSize, blob.Size)
		})
	}
}

func TestUploadFile_DefaultsMimeType(t *testing.T) {
	up := &mockUploader{ref: NewBlobRef("bafkreifile", "", 0)}
	svc := NewBlobService(up)

	blob, err := svc.UploadFile(context.Background(), []byte("%PDF-1.7"), "")
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", up.gotMimeType)
	assert.Equal(t, "application/octet-stream", blob.MimeType)
	assert.Equal(t, 8, blob.Size)
}

func TestUploadFile_TooLarge(t *testing.T) {
	up := &mockUploader{ref: NewBlobRef("bafkreifile", "text/plain", 1)}
	svc := NewBlobService(up)

	_, err := svc.UploadFile(context.Background(), make([]byte, maxFileSize+1), "text/plain")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds maximum")
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.Empty(t, up.gotMimeType, "oversized data must not reach the PDS")
}
