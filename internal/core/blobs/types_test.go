package blobs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHydrateBlobURL(t *testing.T) {
	const want = "https://pds.example.com/xrpc/com.atproto.sync.getBlob?did=did%3Aplc%3Aabc123&cid=bafkreiattach"

	tests := []struct {
		name   string
		pdsURL string
		did    string
		cid    string
		want   string
	}{
		{name: "plain host", pdsURL: "https://pds.example.com", did: "did:plc:abc123", cid: "bafkreiattach", want: want},
		{name: "trailing slash", pdsURL: "https://pds.example.com/", did: "did:plc:abc123", cid: "bafkreiattach", want: want},
		{name: "no host", did: "did:plc:abc123", cid: "bafkreiattach"},
		{name: "no did", pdsURL: "https://pds.example.com", cid: "bafkreiattach"},
		{name: "no cid", pdsURL: "https://pds.example.com", did: "did:plc:abc123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HydrateBlobURL(tt.pdsURL, tt.did, tt.cid))
		})
	}
}

func TestBlobRef_CID(t *testing.T) {
	ref := NewBlobRef("bafkreigh2akiscaildc", "image/png", 42)
	assert.Equal(t, "bafkreigh2akiscaildc", ref.CID())
	assert.Equal(t, "blob", ref.Type)

	var nilRef *BlobRef
	assert.Empty(t, nilRef.CID())
	assert.Empty(t, (&BlobRef{}).CID())
}

func TestBlobRef_JSONShape(t *testing.T) {
	raw, err := json.Marshal(NewBlobRef("bafkreigh2akiscaildc", "application/pdf", 2048))
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"$type": "blob",
		"ref": {"$link": "bafkreigh2akiscaildc"},
		"mimeType": "application/pdf",
		"size": 2048
	}`, string(raw))
}
