package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// ImageMetadata describes a generated or uploaded image. Data holds the
// binary payload locally and is never serialized; remotely the image is
// represented by ContentHash only.
type ImageMetadata struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	MimeType    string    `json:"mimeType,omitempty"`
	Size        int64     `json:"size"`
	ContentHash string    `json:"contentHash"`
	Width       int       `json:"width,omitempty"`
	Height      int       `json:"height,omitempty"`
	Prompt      string    `json:"prompt,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`

	Data []byte `json:"-"`
}

// EnsureHash fills ContentHash and Size from Data when missing.
func (m *ImageMetadata) EnsureHash() {
	if m.ContentHash != "" || len(m.Data) == 0 {
		return
	}
	sum := sha256.Sum256(m.Data)
	m.ContentHash = "sha256:" + hex.EncodeToString(sum[:])
	if m.Size == 0 {
		m.Size = int64(len(m.Data))
	}
}

// ImagesManifest is the document written to <ns>/images-metadata.json.
type ImagesManifest struct {
	Version    int             `json:"version"`
	ExportedAt time.Time       `json:"exportedAt"`
	Images     []ImageMetadata `json:"images"`
}

// ConversationBackup and Personas are synced verbatim.
type (
	ConversationBackup = json.RawMessage
	Personas           = json.RawMessage
)
