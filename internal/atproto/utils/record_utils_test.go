package utils

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFromURI(t *testing.T) {
	tests := []struct {
		uri            string
		wantRKey       string
		wantCollection string
	}{
		{uri: "at://did:plc:abc/social.quill.feed.post/3kabc", wantRKey: "3kabc", wantCollection: "social.quill.feed.post"},
		{uri: "at://did:plc:abc", wantRKey: "", wantCollection: ""},
		{uri: "", wantRKey: "", wantCollection: ""},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			assert.Equal(t, tt.wantRKey, ExtractRKeyFromURI(tt.uri))
			assert.Equal(t, tt.wantCollection, ExtractCollectionFromURI(tt.uri))
		})
	}
}

func TestBuildRecordURI(t *testing.T) {
	uri := BuildRecordURI("did:plc:abc", "social.quill.feed.post", "3kabc")
	assert.Equal(t, "at://did:plc:abc/social.quill.feed.post/3kabc", uri)
	assert.Equal(t, "3kabc", ExtractRKeyFromURI(uri))
}

func TestNullHelpers(t *testing.T) {
	assert.Equal(t, "", StringFromNull(sql.NullString{}))
	assert.Equal(t, "x", StringFromNull(sql.NullString{String: "x", Valid: true}))

	assert.Nil(t, TimeFromNull(sql.NullTime{}))
	now := time.Now()
	got := TimeFromNull(sql.NullTime{Time: now, Valid: true})
	require.NotNil(t, got)
	assert.True(t, now.Equal(*got))
}

func TestParseCreatedAt(t *testing.T) {
	parsed := ParseCreatedAt(map[string]interface{}{"createdAt": "2024-05-01T10:00:00Z"})
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), parsed.UTC())

	before := time.Now()
	assert.False(t, ParseCreatedAt(nil).Before(before))
	assert.False(t, ParseCreatedAt(map[string]interface{}{"createdAt": "yesterday"}).Before(before))
}

func TestDecodeRecord(t *testing.T) {
	var out struct {
		Text  string `json:"text"`
		Count int    `json:"count"`
	}

	err := DecodeRecord(map[string]interface{}{"text": "hello", "count": 3}, &out)
	require.NoError(t, err)
	assert.Equal(t, "hello", out.Text)
	assert.Equal(t, 3, out.Count)

	require.Error(t, DecodeRecord(nil, &out))
	require.Error(t, DecodeRecord(map[string]interface{}{"count": "three"}, &out))
}
