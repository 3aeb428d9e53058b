package posts

// Builder is an opaque payload for a create or update request.
// The concrete type fixes the post kind: TextBuilder, ImageBuilder or FileBuilder.
type Builder interface {
	Kind() Kind
	Text() string
	// Attachments are the uploaded media descriptors carried by the payload
	Attachments() []FileData
}

// TextBuilder builds a text-only payload
type TextBuilder struct {
	text string
}

func NewTextBuilder(text string) *TextBuilder {
	return &TextBuilder{text: text}
}

func (b *TextBuilder) Kind() Kind              { return KindText }
func (b *TextBuilder) Text() string            { return b.text }
func (b *TextBuilder) Attachments() []FileData { return nil }

// ImageBuilder builds an image post payload
type ImageBuilder struct {
	text   string
	images []FileData
}

func NewImageBuilder(text string, images []FileData) *ImageBuilder {
	return &ImageBuilder{text: text, images: images}
}

func (b *ImageBuilder) Kind() Kind              { return KindImage }
func (b *ImageBuilder) Text() string            { return b.text }
func (b *ImageBuilder) Attachments() []FileData { return b.images }

// FileBuilder builds a file post payload
type FileBuilder struct {
	text  string
	files []FileData
}

func NewFileBuilder(text string, files []FileData) *FileBuilder {
	return &FileBuilder{text: text, files: files}
}

func (b *FileBuilder) Kind() Kind              { return KindFile }
func (b *FileBuilder) Text() string            { return b.text }
func (b *FileBuilder) Attachments() []FileData { return b.files }

// AttachmentKind maps a post kind to the media kind of its children.
func AttachmentKind(kind Kind) MediaKind {
	if kind == KindFile {
		return MediaKindFile
	}
	return MediaKindImage
}
