// Package documents is the local store of documents and chunks.
//
// A row is either a whole document or one chunk of a larger one (original_id
// and chunk_index set). Rows pulled from the remote carry their provenance:
// remote hash, remote path and pull time. Deletion is soft.
//
// The SQLite implementation runs over a dbx.DBTX, so the same repository
// works against a *sql.DB or inside a transaction.
package documents
