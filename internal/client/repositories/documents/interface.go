package documents

import (
	"context"
	"time"

	"github.com/dmitrijs2005/docsync/internal/client/models"
)

// Repository describes the local document store.
type Repository interface {
	// CreateOrUpdate inserts a document or chunk, replacing the row with the
	// same id.
	CreateOrUpdate(ctx context.Context, d *models.Document) error

	// GetAll returns every non-deleted row, chunks included, ordered by id.
	GetAll(ctx context.Context) ([]models.Document, error)

	// GetGroup returns the rows of one logical document: the document itself
	// or all of its chunks. The result is empty when nothing matches.
	GetGroup(ctx context.Context, groupID string) ([]models.Document, error)

	// DeleteGroup soft-deletes a logical document. It returns
	// common.ErrNotFound when no row matched.
	DeleteGroup(ctx context.Context, groupID string) error

	// DeleteByRemotePath hard-deletes the rows pulled from path.
	DeleteByRemotePath(ctx context.Context, path string) error

	// MarkSynced records the remote version of a logical document.
	MarkSynced(ctx context.Context, groupID, hash, path string, at time.Time) error
}
