// Package images stores image metadata and payloads locally. Only the
// metadata is ever synced; the payload stays in the data column.
package images

import (
	"context"

	"github.com/dmitrijs2005/docsync/internal/client/models"
)

type Repository interface {
	// CreateOrUpdate stores an image with its payload.
	CreateOrUpdate(ctx context.Context, img *models.ImageMetadata) error

	// UpsertMetadata stores metadata received from the remote without
	// touching a payload already held locally.
	UpsertMetadata(ctx context.Context, img *models.ImageMetadata) error

	// GetAll lists image metadata without payloads.
	GetAll(ctx context.Context) ([]models.ImageMetadata, error)

	// GetByID returns one image with its payload, or nil when absent.
	GetByID(ctx context.Context, id string) (*models.ImageMetadata, error)

	DeleteByID(ctx context.Context, id string) error
}
