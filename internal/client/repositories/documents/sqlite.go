package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/docsync/internal/client/models"
	"github.com/dmitrijs2005/docsync/internal/dbx"
)

const columns = `id, original_id, chunk_index, title, content, source, folder_path, tags,
	category, uploaded_at, remote_hash, remote_path, pulled_at, modified_locally`

// SQLiteRepository implements Repository over a DBTX.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

func (r *SQLiteRepository) CreateOrUpdate(ctx context.Context, d *models.Document) error {
	tags, err := json.Marshal(d.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	var chunkIndex sql.NullInt64
	if d.IsChunk() {
		chunkIndex = sql.NullInt64{Int64: int64(*d.ChunkIndex), Valid: true}
	}

	var hash, path, pulledAt string
	var modified bool
	if d.Remote != nil {
		hash, path, pulledAt, modified = d.Remote.Hash, d.Remote.Path, formatTime(d.Remote.PulledAt), d.Remote.ModifiedLocally
	}

	query := `INSERT INTO documents (` + columns + `, deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)
		ON CONFLICT(id) DO UPDATE SET
			original_id = excluded.original_id,
			chunk_index = excluded.chunk_index,
			title = excluded.title,
			content = excluded.content,
			source = excluded.source,
			folder_path = excluded.folder_path,
			tags = excluded.tags,
			category = excluded.category,
			uploaded_at = excluded.uploaded_at,
			remote_hash = excluded.remote_hash,
			remote_path = excluded.remote_path,
			pulled_at = excluded.pulled_at,
			modified_locally = excluded.modified_locally,
			deleted = 0`

	_, err = r.db.ExecContext(ctx, query,
		d.ID, d.OriginalID, chunkIndex, d.Title, d.Content, d.Source, d.FolderPath, string(tags),
		d.Category, formatTime(d.UploadedAt), hash, path, pulledAt, modified)
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.Document, error) {
	return r.query(ctx, `SELECT `+columns+` FROM documents WHERE deleted=0 ORDER BY id`)
}

func (r *SQLiteRepository) GetGroup(ctx context.Context, groupID string) ([]models.Document, error) {
	return r.query(ctx, `SELECT `+columns+` FROM documents
		WHERE deleted=0 AND (id=? OR original_id=?)
		ORDER BY chunk_index, id`, groupID, groupID)
}

func (r *SQLiteRepository) DeleteGroup(ctx context.Context, groupID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE documents SET deleted=1
		WHERE deleted=0 AND (id=? OR original_id=?)`, groupID, groupID)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return dbx.RequireAffected(res, "document "+groupID)
}

func (r *SQLiteRepository) DeleteByRemotePath(ctx context.Context, path string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE remote_path=?`, path); err != nil {
		return fmt.Errorf("failed to delete pulled document: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, groupID, hash, path string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE documents
		SET remote_hash=?, remote_path=?, pulled_at=?, modified_locally=0
		WHERE id=? OR original_id=?`, hash, path, formatTime(at), groupID, groupID)
	if err != nil {
		return fmt.Errorf("failed to mark document synced: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) query(ctx context.Context, query string, args ...any) ([]models.Document, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select documents: %w", err)
	}
	defer rows.Close()

	var result []models.Document
	for rows.Next() {
		d, err := scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scan(rows *sql.Rows) (models.Document, error) {
	var (
		d                                  models.Document
		chunkIndex                         sql.NullInt64
		tags, uploadedAt, hash, path, pull string
		modified                           bool
	)
	err := rows.Scan(&d.ID, &d.OriginalID, &chunkIndex, &d.Title, &d.Content, &d.Source, &d.FolderPath, &tags,
		&d.Category, &uploadedAt, &hash, &path, &pull, &modified)
	if err != nil {
		return d, fmt.Errorf("failed to scan document row: %w", err)
	}

	if chunkIndex.Valid {
		i := int(chunkIndex.Int64)
		d.ChunkIndex = &i
	}
	if err := json.Unmarshal([]byte(tags), &d.Tags); err != nil {
		return d, fmt.Errorf("failed to decode tags of %s: %w", d.ID, err)
	}
	if d.UploadedAt, err = parseTime(uploadedAt); err != nil {
		return d, fmt.Errorf("failed to parse upload time of %s: %w", d.ID, err)
	}
	if hash != "" || path != "" {
		pulledAt, err := parseTime(pull)
		if err != nil {
			return d, fmt.Errorf("failed to parse pull time of %s: %w", d.ID, err)
		}
		d.Remote = &models.Provenance{Hash: hash, Path: path, PulledAt: pulledAt, ModifiedLocally: modified}
	}
	return d, nil
}
