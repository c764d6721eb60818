// Package models defines the plain data values exchanged between the sync
// engine's components: documents and chunks, remote files, sync results,
// the settings schema and the per-category payloads.
package models

import (
	"strconv"
	"time"
)

// Document is a logical document as held by the local store. A document that
// arrived pre-split carries OriginalID (the group it belongs to) and
// ChunkIndex (its reassembly position); a whole document has neither.
type Document struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Source     string    `json:"source,omitempty"`
	FolderPath string    `json:"folderPath,omitempty"`
	Tags       []string  `json:"tags,omitempty"`
	Category   string    `json:"category,omitempty"`
	UploadedAt time.Time `json:"uploadedAt,omitzero"`

	OriginalID string `json:"originalId,omitempty"`
	ChunkIndex *int   `json:"chunkIndex,omitempty"`

	// Remote is set on documents produced by a pull.
	Remote *Provenance `json:"remote,omitempty"`
}

// Provenance records where a pulled document came from. Hash is the expected
// hash for a later single-document push.
type Provenance struct {
	Hash            string    `json:"hash"`
	Path            string    `json:"path"`
	PulledAt        time.Time `json:"pulledAt"`
	ModifiedLocally bool      `json:"modifiedLocally"`
}

// GroupID is the id of the logical document this item belongs to.
func (d Document) GroupID() string {
	if d.OriginalID != "" {
		return d.OriginalID
	}
	return d.ID
}

// Index is the chunk position; whole documents sort as chunk 0.
func (d Document) Index() int {
	if d.ChunkIndex == nil {
		return 0
	}
	return *d.ChunkIndex
}

// IsChunk reports whether d is a fragment of a larger document.
func (d Document) IsChunk() bool {
	return d.ChunkIndex != nil
}

// Chunk builds a fragment of the document identified by originalID.
func Chunk(originalID string, index int, content string) Document {
	i := index
	return Document{
		ID:         originalID + "#" + strconv.Itoa(index),
		OriginalID: originalID,
		ChunkIndex: &i,
		Content:    content,
	}
}
