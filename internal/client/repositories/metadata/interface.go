// Package metadata is a small key/value table for payloads that are synced
// as whole JSON documents: settings, conversations and personas.
package metadata

import (
	"context"
)

// Keys of the payloads kept in the table.
const (
	KeySettings      = "settings"
	KeyConversations = "conversations"
	KeyPersonas      = "personas"
	KeyLastPull      = "last_pull"
)

type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
}
