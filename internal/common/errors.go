// Package common defines the error taxonomy shared by the sync engine and its
// callers. Callers should use errors.Is to match these values, or KindOf to
// obtain the ErrorKind carried by sync results.
package common

import "errors"

var (
	// Remote-store errors.
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("remote content changed, pull first")
	ErrTransient    = errors.New("remote store temporarily unavailable")
	ErrUnauthorized = errors.New("unauthorized")

	// Encryption errors.
	ErrDecryption = errors.New("decryption failed")

	// Input errors.
	ErrValidation = errors.New("validation error")
)
