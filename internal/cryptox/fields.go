package cryptox

import (
	"fmt"

	"github.com/dmitrijs2005/docsync/internal/common"
)

// Schema maps dotted field paths (e.g. "llm.apiKey") onto accessors of string
// leaves in T. An accessor returns nil when an optional enclosing section is
// absent, which makes the field a no-op for that value.
type Schema[T any] map[string]func(*T) *string

// FieldError reports one field that could not be decrypted.
type FieldError struct {
	Path string
	Err  error
}

func (e FieldError) Error() string {
	return fmt.Sprintf("field %s: %v", e.Path, e.Err)
}

func (e FieldError) Unwrap() error {
	return e.Err
}

// Check verifies that every path is known to the schema.
func (s Schema[T]) Check(paths []string) error {
	for _, p := range paths {
		if _, ok := s[p]; !ok {
			return fmt.Errorf("%w: unknown sensitive field %q", common.ErrValidation, p)
		}
	}
	return nil
}

// EncryptFields replaces each listed, present and non-empty leaf of obj with
// its encrypted blob, in place. Leaves that already hold a blob, such as ones
// a wrong secret failed to decrypt, are left as they are. It fails on the
// first error.
func (s Schema[T]) EncryptFields(obj *T, paths []string, secret string) error {
	if err := s.Check(paths); err != nil {
		return err
	}
	for _, p := range paths {
		leaf := s[p](obj)
		if leaf == nil || *leaf == "" || IsBlob(*leaf) {
			continue
		}
		blob, err := EncryptString(*leaf, secret)
		if err != nil {
			return fmt.Errorf("encrypt %s: %w", p, err)
		}
		*leaf = blob
	}
	return nil
}

// DecryptFields decrypts each listed leaf of obj in place. A field that fails
// keeps its stored value and is reported; the remaining fields are still
// processed so a partially corrupted object stays usable.
func (s Schema[T]) DecryptFields(obj *T, paths []string, secret string) []FieldError {
	var failed []FieldError
	for _, p := range paths {
		get, ok := s[p]
		if !ok {
			failed = append(failed, FieldError{Path: p, Err: fmt.Errorf("%w: unknown sensitive field", common.ErrValidation)})
			continue
		}
		leaf := get(obj)
		if leaf == nil || *leaf == "" {
			continue
		}
		plain, err := DecryptString(*leaf, secret)
		if err != nil {
			failed = append(failed, FieldError{Path: p, Err: err})
			continue
		}
		*leaf = plain
	}
	return failed
}
