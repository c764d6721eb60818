package common

import (
	"context"
	"errors"
)

// ErrorKind classifies a failed sync operation for callers that only need to
// decide what to show or whether to retry.
type ErrorKind string

const (
	KindNone         ErrorKind = ""
	KindConflict     ErrorKind = "conflict"
	KindTransient    ErrorKind = "transient"
	KindDecryption   ErrorKind = "decryption"
	KindValidation   ErrorKind = "validation"
	KindUnauthorized ErrorKind = "unauthorized"
	KindCancelled    ErrorKind = "cancelled"
	KindUnknown      ErrorKind = "unknown"
)

// KindOf maps err onto the taxonomy. Cancellation is checked before
// ErrTransient so a user-initiated cancel is never reported as retryable.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, context.Canceled):
		return KindCancelled
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrTransient), errors.Is(err, context.DeadlineExceeded):
		return KindTransient
	case errors.Is(err, ErrDecryption):
		return KindDecryption
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	default:
		return KindUnknown
	}
}

// Retryable reports whether the caller may retry the operation unchanged.
func (k ErrorKind) Retryable() bool {
	return k == KindTransient
}
