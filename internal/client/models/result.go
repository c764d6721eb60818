package models

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/docsync/internal/common"
)

// ConflictMessage is shown when a write is rejected because the remote copy
// changed since it was last pulled.
const ConflictMessage = "documents differ remotely, pull first"

// SyncResult is the immutable outcome of a single-item sync operation.
type SyncResult struct {
	Success     bool             `json:"success"`
	Message     string           `json:"message"`
	ContentHash string           `json:"contentHash,omitempty"`
	Kind        common.ErrorKind `json:"error,omitempty"`

	// Err is the underlying error for logging; it is not serialized.
	Err error `json:"-"`
}

// Succeeded builds a successful result.
func Succeeded(message, hash string) SyncResult {
	return SyncResult{Success: true, Message: message, ContentHash: hash}
}

// Failed builds a failed result classified from err. Conflicts always carry
// ConflictMessage so callers can prompt for a re-pull.
func Failed(message string, err error) SyncResult {
	kind := common.KindOf(err)
	if kind == common.KindConflict {
		message = ConflictMessage
	} else if err != nil {
		message = fmt.Sprintf("%s: %v", message, err)
	}
	return SyncResult{Success: false, Message: message, Kind: kind, Err: err}
}

// IsConflict reports whether the result is a hash-mismatch rejection.
func (r SyncResult) IsConflict() bool {
	return r.Kind == common.KindConflict
}

// BatchResult aggregates a bulk push where each item succeeds or fails on its
// own.
type BatchResult struct {
	Total     int      `json:"total"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`

	// Paths holds the remote paths written successfully, in push order.
	Paths []string `json:"paths,omitempty"`

	// Pushed pairs each written document with where it landed.
	Pushed []PushedDocument `json:"pushed,omitempty"`

	IndexUpdated bool   `json:"indexUpdated"`
	IndexError   string `json:"indexError,omitempty"`
}

// PushedDocument is one successful write of a bulk push.
type PushedDocument struct {
	ID   string `json:"id"`
	Path string `json:"path"`
	Hash string `json:"hash"`
}

// RecordPushed adds a successful write of document id.
func (b *BatchResult) RecordPushed(id, path, hash string) {
	b.Record(path, nil)
	b.Pushed = append(b.Pushed, PushedDocument{ID: id, Path: path, Hash: hash})
}

// Record adds one item outcome.
func (b *BatchResult) Record(path string, err error) {
	b.Total++
	if err != nil {
		b.Failed++
		b.Errors = append(b.Errors, fmt.Sprintf("%s: %v", path, err))
		return
	}
	b.Succeeded++
	b.Paths = append(b.Paths, path)
}

// Result summarizes the batch. The index outcome does not affect Success.
func (b BatchResult) Result() SyncResult {
	msg := fmt.Sprintf("synced %d/%d documents", b.Succeeded, b.Total)
	if b.Failed > 0 {
		msg += fmt.Sprintf(" (%d failed: %s)", b.Failed, strings.Join(b.Errors, "; "))
	}
	r := SyncResult{Success: b.Failed == 0, Message: msg}
	if !r.Success {
		r.Kind = common.KindUnknown
	}
	return r
}

// PullResult aggregates a bulk pull.
type PullResult struct {
	Documents []Document `json:"documents"`
	Failed    int        `json:"failed"`
	Errors    []string   `json:"errors,omitempty"`
	Cancelled bool       `json:"cancelled,omitempty"`
}

// Result summarizes the pull.
func (p PullResult) Result() SyncResult {
	msg := fmt.Sprintf("pulled %d documents", len(p.Documents))
	if p.Failed > 0 {
		msg += fmt.Sprintf(" (%d failed: %s)", p.Failed, strings.Join(p.Errors, "; "))
	}
	r := SyncResult{Success: p.Failed == 0 && !p.Cancelled, Message: msg}
	switch {
	case p.Cancelled:
		r.Kind = common.KindCancelled
		r.Message += " (cancelled)"
	case p.Failed > 0:
		r.Kind = common.KindUnknown
	}
	return r
}
