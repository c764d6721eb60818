package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/docsync/internal/chunks"
	"github.com/dmitrijs2005/docsync/internal/client/models"
	"github.com/dmitrijs2005/docsync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/docsync/internal/common"
	"github.com/dmitrijs2005/docsync/internal/mdcodec"
)

// importDocument reads a Markdown file into the local store. With a base
// directory the folder is inferred from the file's location below it.
func (a *App) importDocument(ctx context.Context, args []string) error {
	file := args[0]
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}

	src, err := filepath.Abs(file)
	if err != nil {
		return err
	}
	base := filepath.Dir(src)
	if len(args) > 1 {
		if base, err = filepath.Abs(args[1]); err != nil {
			return err
		}
	}
	dec := mdcodec.Decode(string(data), filepath.ToSlash(src), filepath.ToSlash(base), "")

	d := models.Document{
		ID:         a.newID(),
		Title:      dec.Title,
		Content:    dec.Body,
		Source:     dec.Metadata.Source,
		FolderPath: dec.Metadata.FolderPath,
		Tags:       dec.Metadata.Tags,
		Category:   dec.Metadata.Category,
		UploadedAt: dec.Metadata.UploadedAt,
	}
	if d.Source == "" {
		d.Source = filepath.Base(file)
	}
	if d.UploadedAt.IsZero() {
		d.UploadedAt = a.now().UTC()
	}

	if err := a.repos.Documents.CreateOrUpdate(ctx, &d); err != nil {
		return err
	}
	a.printf("imported %s: %s", d.ID, d.Title)
	return nil
}

// group loads the logical document id, merged from its chunks.
func (a *App) group(ctx context.Context, id string) (models.Document, error) {
	items, err := a.repos.Documents.GetGroup(ctx, id)
	if err != nil {
		return models.Document{}, err
	}
	if len(items) == 0 {
		return models.Document{}, fmt.Errorf("document %s: %w", id, common.ErrNotFound)
	}
	return chunks.Sorted(chunks.Merge(items))[0], nil
}

func (a *App) list(ctx context.Context, _ []string) error {
	docs, err := a.repos.Documents.GetAll(ctx)
	if err != nil {
		return err
	}
	images, err := a.repos.Images.GetAll(ctx)
	if err != nil {
		return err
	}

	merged := chunks.Sorted(chunks.Merge(docs))
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tFOLDER\tREMOTE")
	for _, d := range merged {
		state := "local"
		if d.Remote != nil && d.Remote.Hash != "" {
			state = shortHash(d.Remote.Hash)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.ID, d.Title, d.FolderPath, state)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	a.printf("%d document(s), %d image(s)", len(merged), len(images))
	return nil
}

func shortHash(h string) string {
	if len(h) > 7 {
		return h[:7]
	}
	return h
}

func (a *App) pushDocuments(ctx context.Context, _ []string) error {
	docs, err := a.repos.Documents.GetAll(ctx)
	if err != nil {
		return err
	}

	batch := a.sync.PushDocuments(ctx, docs)
	a.printResult(batch.Result())
	if !batch.IndexUpdated {
		a.printf("index not updated: %s", batch.IndexError)
	}

	// Recording the path lets a later pull replace these rows instead of
	// adding a second copy.
	at := a.now().UTC()
	for _, p := range batch.Pushed {
		if err := a.repos.Documents.MarkSynced(ctx, p.ID, p.Hash, p.Path, at); err != nil {
			return err
		}
	}
	return nil
}

// pushDocument writes one document, using the hash recorded at pull time as
// the expected remote version.
func (a *App) pushDocument(ctx context.Context, args []string) error {
	d, err := a.group(ctx, args[0])
	if err != nil {
		return err
	}

	expected, p := "", a.sync.DocumentPath(d)
	if d.Remote != nil && d.Remote.Hash != "" {
		expected = d.Remote.Hash
		if d.Remote.Path != "" {
			p = d.Remote.Path
		}
	}

	r := a.sync.PushDocument(ctx, d, expected)
	a.printResult(r)
	if !r.Success {
		return nil
	}
	return a.repos.Documents.MarkSynced(ctx, d.ID, r.ContentHash, p, a.now().UTC())
}

// pullDocuments stores every pulled document locally. A pulled file replaces
// the local rows previously pulled from the same path.
func (a *App) pullDocuments(ctx context.Context, _ []string) error {
	res, err := a.sync.PullDocuments(ctx)
	if err != nil {
		a.printResult(models.Failed("pull failed", err))
		return nil
	}

	if err := a.repos.SavePulled(ctx, res.Documents); err != nil {
		return err
	}
	if err := a.repos.Metadata.Set(ctx, metadata.KeyLastPull, []byte(a.now().UTC().Format(time.RFC3339))); err != nil {
		return err
	}
	a.printResult(res.Result())
	return nil
}

func (a *App) deleteDocument(ctx context.Context, args []string) error {
	d, err := a.group(ctx, args[0])
	if err != nil {
		return err
	}
	if !Confirm(a.reader, fmt.Sprintf("Delete %q locally and remotely?", d.Title), a.out) {
		a.printf("cancelled")
		return nil
	}

	all, err := a.repos.Documents.GetAll(ctx)
	if err != nil {
		return err
	}
	known := make([]models.Document, 0, len(all))
	for _, item := range all {
		if item.GroupID() != d.ID {
			known = append(known, item)
		}
	}

	r := a.sync.DeleteDocument(ctx, d, known)
	a.printResult(r)
	if !r.Success {
		return nil
	}
	return a.repos.Documents.DeleteGroup(ctx, d.ID)
}
