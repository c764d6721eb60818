// Package client bootstraps the local store used by the CLI: it opens the
// SQLite database, applies the embedded goose migrations and wires the
// document, image and metadata repositories.
//
// Pulled documents are saved with SavePulled, which replaces whatever was
// previously pulled from the same remote path in one transaction.
package client
