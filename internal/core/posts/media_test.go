package posts

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMedia_FileID(t *testing.T) {
	tests := []struct {
		name  string
		media Media
		want  string
	}{
		{
			name:  "pending has no identifier",
			media: NewPendingMedia(MediaKindImage, "local-1"),
			want:  "",
		},
		{
			name:  "uploaded uses data file id",
			media: NewUploadedMedia(MediaKindFile, FileData{FileID: "file-1"}),
			want:  "file-1",
		},
		{
			name:  "downloadable image",
			media: NewDownloadableImage("img-1", "https://example.com/img-1"),
			want:  "img-1",
		},
		{
			name:  "downloadable file",
			media: NewDownloadableFile(FileData{FileID: "file-2", Name: "report.pdf"}),
			want:  "file-2",
		},
		{
			name:  "uploaded without data",
			media: Media{Kind: MediaKindImage, State: MediaUploaded},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.media.FileID())
		})
	}
}

func TestMedia_SameAttachment(t *testing.T) {
	a := NewDownloadableImage("img-1", "https://example.com/a")
	b := NewUploadedMedia(MediaKindImage, FileData{FileID: "img-1"})
	c := NewDownloadableImage("img-2", "https://example.com/c")
	p1 := NewPendingMedia(MediaKindImage, "x")
	p2 := NewPendingMedia(MediaKindImage, "x")

	assert.True(t, a.SameAttachment(b))
	assert.False(t, a.SameAttachment(c))
	assert.False(t, p1.SameAttachment(p2), "pending items are never equal")
}

func TestValidateFileID(t *testing.T) {
	tests := []struct {
		name    string
		fileID  string
		wantErr bool
	}{
		{name: "cidv1 raw", fileID: "bafkreigh2akiscaildcqabsyg3dfr6chu3fgpregiymsck7e7aqa4s52zy"},
		{name: "cidv1 dag-pb", fileID: "bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi"},
		{name: "cidv0", fileID: "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"},
		{name: "empty", fileID: "", wantErr: true},
		{name: "garbage", fileID: "not-a-cid", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFileID(tt.fileID)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidFileID))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestUploadedData_SkipsOtherStates(t *testing.T) {
	items := []Media{
		NewUploadedMedia(MediaKindImage, FileData{FileID: "a"}),
		NewPendingMedia(MediaKindImage, "local"),
		NewDownloadableImage("b", "https://example.com/b"),
		NewUploadedMedia(MediaKindImage, FileData{FileID: "c"}),
	}

	data := UploadedData(items)
	require.Len(t, data, 2)
	assert.Equal(t, "a", data[0].FileID)
	assert.Equal(t, "c", data[1].FileID)
}

func TestPost_KindAndChildLookup(t *testing.T) {
	post := &Post{
		ID:         "parent",
		Images:     []Media{NewDownloadableImage("img-1", "u")},
		ChildPosts: map[string]string{"img-1": "child-1"},
	}
	assert.Equal(t, KindImage, post.Kind())

	id, ok := post.ChildPostID("img-1")
	assert.True(t, ok)
	assert.Equal(t, "child-1", id)

	_, ok = post.ChildPostID("img-404")
	assert.False(t, ok)

	assert.Equal(t, KindText, (&Post{}).Kind())
	assert.Equal(t, KindFile, (&Post{Files: []Media{NewDownloadableFile(FileData{FileID: "f"})}}).Kind())
	assert.Equal(t, KindImage, (&Post{StoredKind: KindImage}).Kind(), "the stored kind wins over attachments")
}

func TestNewTarget(t *testing.T) {
	assert.Equal(t, Target{Type: TargetUser}, NewTarget(""))
	assert.Equal(t, Target{Type: TargetCommunity, ID: "did:plc:community"}, NewTarget("did:plc:community"))
}
