package services

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/dmitrijs2005/docsync/internal/chunks"
	"github.com/dmitrijs2005/docsync/internal/client/models"
	"github.com/dmitrijs2005/docsync/internal/docindex"
	"github.com/dmitrijs2005/docsync/internal/mdcodec"
)

// DocumentPath is where d is stored remotely.
func (s *SyncService) DocumentPath(d models.Document) string {
	p := s.documentsDir()
	if folder := mdcodec.SanitizeFolder(d.FolderPath); folder != "" {
		p += "/" + folder
	}
	return p + "/" + mdcodec.SanitizeFilename(d.Title) + ".md"
}

func encodeDocument(d models.Document) []byte {
	return []byte(mdcodec.Encode(d.Title, d.Content, mdcodec.Metadata{
		Source:     d.Source,
		Category:   d.Category,
		FolderPath: d.FolderPath,
		Tags:       d.Tags,
		UploadedAt: d.UploadedAt,
	}))
}

// PushDocuments merges chunks, writes every logical document and then
// rewrites the index. Documents are written one at a time; a failing
// document is recorded and the rest are still written. The index reflects
// every merged document and its failure is reported separately.
func (s *SyncService) PushDocuments(ctx context.Context, docs []models.Document) models.BatchResult {
	var batch models.BatchResult
	if err := s.ready(); err != nil {
		batch.Record("documents", err)
		return batch
	}

	merged := chunks.Merge(docs)
	for _, d := range chunks.Sorted(merged) {
		p := s.DocumentPath(d)
		if err := ctx.Err(); err != nil {
			batch.Record(p, err)
			continue
		}

		hash, err := s.store.Upsert(ctx, p, encodeDocument(d), "Sync document: "+d.Title, "")
		if err != nil {
			s.log.Warn(ctx, "document push failed", "id", d.ID, "path", p, "error", err)
			batch.Record(p, err)
			continue
		}
		batch.RecordPushed(d.ID, p, hash)
	}

	if err := s.writeIndex(ctx, merged); err != nil {
		batch.IndexError = err.Error()
	} else {
		batch.IndexUpdated = true
	}

	s.log.Info(ctx, "documents pushed", "total", batch.Total, "failed", batch.Failed, "index", batch.IndexUpdated)
	return batch
}

func (s *SyncService) writeIndex(ctx context.Context, docs map[string]models.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.store.Upsert(ctx, s.indexPath(), []byte(docindex.Build(docs)), "Update documents index", ""); err != nil {
		s.log.Warn(ctx, "index update failed", "error", err)
		return err
	}
	return nil
}

// PushDocument writes a single edited document against expectedHash, the
// hash seen when it was pulled. A changed remote yields a conflict result.
// With no expected hash the write is a best-effort create-or-update.
func (s *SyncService) PushDocument(ctx context.Context, d models.Document, expectedHash string) models.SyncResult {
	if err := s.ready(); err != nil {
		return models.Failed("document sync failed", err)
	}

	p := s.DocumentPath(d)
	if d.Remote != nil && d.Remote.Path != "" && expectedHash != "" {
		p = d.Remote.Path
	}

	hash, err := s.store.Upsert(ctx, p, encodeDocument(d), "Update document: "+d.Title, expectedHash)
	if err != nil {
		s.log.Warn(ctx, "document push failed", "id", d.ID, "path", p, "error", err)
		return models.Failed("document sync failed", err)
	}
	return models.Succeeded("document synced: "+p, hash)
}

// DeleteDocument removes d remotely and rewrites the index from known, the
// documents that remain.
func (s *SyncService) DeleteDocument(ctx context.Context, d models.Document, known []models.Document) models.SyncResult {
	if err := s.ready(); err != nil {
		return models.Failed("document delete failed", err)
	}

	p, hash := s.DocumentPath(d), ""
	if d.Remote != nil && d.Remote.Path != "" {
		p, hash = d.Remote.Path, d.Remote.Hash
	}

	if err := s.store.Delete(ctx, p, "Delete document: "+d.Title, hash); err != nil {
		s.log.Warn(ctx, "document delete failed", "id", d.ID, "path", p, "error", err)
		return models.Failed("document delete failed", err)
	}

	msg := "document deleted: " + p
	if err := s.writeIndex(ctx, chunks.Merge(known)); err != nil {
		msg += fmt.Sprintf(" (index not updated: %v)", err)
	}
	return models.Succeeded(msg, "")
}

// PullDocuments fetches every Markdown document under the documents path.
// A file that cannot be fetched is skipped and counted. Cancellation is
// checked between fetches; the documents read so far are returned with
// Cancelled set. The returned error is non-nil only when the listing fails.
func (s *SyncService) PullDocuments(ctx context.Context) (models.PullResult, error) {
	var res models.PullResult
	if err := s.ready(); err != nil {
		return res, err
	}

	entries, err := s.store.WalkTree(ctx, true)
	if err != nil {
		return res, fmt.Errorf("list documents: %w", err)
	}

	dir := s.documentsDir()
	var paths []string
	for _, e := range entries {
		if e.Type != models.EntryBlob || !strings.HasPrefix(e.Path, dir+"/") {
			continue
		}
		if !strings.HasSuffix(e.Path, ".md") || e.Path == s.indexPath() {
			continue
		}
		paths = append(paths, e.Path)
	}
	sort.Strings(paths)

	for _, p := range paths {
		if ctx.Err() != nil {
			res.Cancelled = true
			break
		}

		f, err := s.store.Get(ctx, p)
		if err != nil {
			s.log.Warn(ctx, "document pull failed", "path", p, "error", err)
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", p, err))
			continue
		}
		if f == nil {
			s.log.Warn(ctx, "document vanished during pull", "path", p)
			continue
		}

		res.Documents = append(res.Documents, s.decodeDocument(p, f))
	}

	s.log.Info(ctx, "documents pulled", "count", len(res.Documents), "failed", res.Failed, "cancelled", res.Cancelled)
	return res, nil
}

func (s *SyncService) decodeDocument(p string, f *models.RemoteFile) models.Document {
	name := strings.TrimSuffix(path.Base(p), ".md")
	dec := mdcodec.Decode(string(f.Content), p, s.documentsDir(), name)

	return models.Document{
		ID:         s.opts.NewID(),
		Title:      dec.Title,
		Content:    dec.Body,
		Source:     dec.Metadata.Source,
		FolderPath: dec.Metadata.FolderPath,
		Tags:       dec.Metadata.Tags,
		Category:   dec.Metadata.Category,
		UploadedAt: dec.Metadata.UploadedAt,
		Remote: &models.Provenance{
			Hash:     f.ContentHash,
			Path:     p,
			PulledAt: s.opts.Now().UTC(),
		},
	}
}
