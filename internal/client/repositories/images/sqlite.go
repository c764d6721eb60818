package images

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/docsync/internal/client/models"
	"github.com/dmitrijs2005/docsync/internal/dbx"
)

const metaColumns = `id, filename, mime_type, size, content_hash, width, height, prompt, tags, created_at`

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func metaArgs(img *models.ImageMetadata) ([]any, error) {
	tags, err := json.Marshal(img.Tags)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tags: %w", err)
	}
	created := ""
	if !img.CreatedAt.IsZero() {
		created = img.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	return []any{img.ID, img.Filename, img.MimeType, img.Size, img.ContentHash,
		img.Width, img.Height, img.Prompt, string(tags), created}, nil
}

const updateMeta = `filename = excluded.filename,
			mime_type = excluded.mime_type,
			size = excluded.size,
			content_hash = excluded.content_hash,
			width = excluded.width,
			height = excluded.height,
			prompt = excluded.prompt,
			tags = excluded.tags,
			created_at = excluded.created_at`

// CreateOrUpdate fills the content hash from the payload before storing.
func (r *SQLiteRepository) CreateOrUpdate(ctx context.Context, img *models.ImageMetadata) error {
	img.EnsureHash()
	args, err := metaArgs(img)
	if err != nil {
		return err
	}

	query := `INSERT INTO images (` + metaColumns + `, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET ` + updateMeta + `, data = excluded.data`
	if _, err := r.db.ExecContext(ctx, query, append(args, img.Data)...); err != nil {
		return fmt.Errorf("failed to upsert image: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpsertMetadata(ctx context.Context, img *models.ImageMetadata) error {
	args, err := metaArgs(img)
	if err != nil {
		return err
	}

	query := `INSERT INTO images (` + metaColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET ` + updateMeta
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to upsert image metadata: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.ImageMetadata, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+metaColumns+` FROM images ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to select images: %w", err)
	}
	defer rows.Close()

	var result []models.ImageMetadata
	for rows.Next() {
		var img models.ImageMetadata
		if err := scanMeta(rows, &img); err != nil {
			return nil, err
		}
		result = append(result, img)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.ImageMetadata, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+metaColumns+`, data FROM images WHERE id=?`, id)

	var img models.ImageMetadata
	err := scanMeta(row, &img, &img.Data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &img, nil
}

func (r *SQLiteRepository) DeleteByID(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM images WHERE id=?`, id); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMeta(s scanner, img *models.ImageMetadata, extra ...any) error {
	var tags, created string
	dest := append([]any{&img.ID, &img.Filename, &img.MimeType, &img.Size, &img.ContentHash,
		&img.Width, &img.Height, &img.Prompt, &tags, &created}, extra...)
	if err := s.Scan(dest...); err != nil {
		return fmt.Errorf("failed to scan image row: %w", err)
	}
	if err := json.Unmarshal([]byte(tags), &img.Tags); err != nil {
		return fmt.Errorf("failed to decode tags of %s: %w", img.ID, err)
	}
	if created != "" {
		t, err := time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return fmt.Errorf("failed to parse creation time of %s: %w", img.ID, err)
		}
		img.CreatedAt = t
	}
	return nil
}
