package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/docsync/internal/client/migrations"
	"github.com/dmitrijs2005/docsync/internal/client/models"
	"github.com/dmitrijs2005/docsync/internal/client/repositories/documents"
	"github.com/dmitrijs2005/docsync/internal/client/repositories/images"
	"github.com/dmitrijs2005/docsync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/docsync/internal/dbx"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

type Repositories struct {
	DB        *sql.DB
	Documents documents.Repository
	Images    images.Repository
	Metadata  metadata.Repository
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// InitDatabase opens the database at dsn and migrates it to the latest
// schema.
func InitDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func NewRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		DB:        db,
		Documents: documents.NewSQLiteRepository(db),
		Images:    images.NewSQLiteRepository(db),
		Metadata:  metadata.NewSQLiteRepository(db),
	}
}

// SavePulled stores pulled documents, replacing the rows previously pulled
// from the same remote paths. Either all documents are saved or none.
func (r *Repositories) SavePulled(ctx context.Context, docs []models.Document) error {
	return dbx.WithTx(ctx, r.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := documents.NewSQLiteRepository(tx)
		for i := range docs {
			d := &docs[i]
			if d.Remote != nil && d.Remote.Path != "" {
				if err := repo.DeleteByRemotePath(ctx, d.Remote.Path); err != nil {
					return err
				}
			}
			if err := repo.CreateOrUpdate(ctx, d); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Repositories) Close() error {
	return r.DB.Close()
}
