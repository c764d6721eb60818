// Package remote is the transport to the remote object store. A Store
// addresses files by slash-separated path and exposes the content hash the
// store assigns to each version for optimistic concurrency.
//
// # Absence
//
// Get returns (nil, nil) for a missing path and Delete treats a missing path
// as already deleted: absence is a value, not an error.
//
// # Concurrency
//
// Upsert with an expected hash is a compare-and-swap: if the remote hash has
// changed the store rejects the write and the error matches
// common.ErrConflict. Upsert without an expected hash reads the current hash
// first and writes against it; a writer racing between the read and the
// write can still make it fail with a conflict, but nothing stronger is
// guaranteed on that path.
//
// Stores are safe for concurrent use. Network and 5xx failures match
// common.ErrTransient and are never retried internally.
package remote

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/docsync/internal/client/models"
	"github.com/dmitrijs2005/docsync/internal/logging"
	"github.com/dmitrijs2005/docsync/internal/netx"
)

const (
	DefaultBranch            = "main"
	DefaultRequestTimeout    = 30 * time.Second
	DefaultRequestsPerSecond = 10
)

// Store is the remote object store contract.
type Store interface {
	// Get returns the file at path, or nil when it does not exist.
	Get(ctx context.Context, path string) (*models.RemoteFile, error)

	// Upsert creates or replaces path and returns the new content hash.
	Upsert(ctx context.Context, path string, content []byte, message, expectedHash string) (string, error)

	// Delete removes path. An empty hash means "whatever is there now".
	Delete(ctx context.Context, path, message, hash string) error

	// ListDir returns the paths of the direct children of dir.
	ListDir(ctx context.Context, dir string) ([]string, error)

	// WalkTree lists the whole store, or only its top level when recursive
	// is false.
	WalkTree(ctx context.Context, recursive bool) ([]models.TreeEntry, error)

	// Ping performs one read-only call against the remote identity.
	Ping(ctx context.Context) error
}

// New builds the store selected by cfg.ServerVariant. The transport is
// resolved once, on first use, and shared by every call of the store.
func New(ctx context.Context, cfg models.SyncConfig, log logging.Logger) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rt := netx.NewLazy(cfg.Network, log)

	switch cfg.ServerVariant {
	case models.VariantGitHub, models.VariantGitHubEnterprise, "":
		return NewGitHubStore(cfg, rt, log), nil
	case models.VariantS3:
		s, err := NewS3Store(ctx, cfg, rt, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	case models.VariantMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported server variant %q", cfg.ServerVariant)
	}
}

// Cache hands out one Store per distinct SyncConfig.
type Cache struct {
	mu     sync.Mutex
	stores map[string]Store
	log    logging.Logger

	newStore func(ctx context.Context, cfg models.SyncConfig, log logging.Logger) (Store, error)
}

func NewCache(log logging.Logger) *Cache {
	return &Cache{stores: make(map[string]Store), log: log, newStore: New}
}

// For returns the store for cfg, building it on first request.
func (c *Cache) For(ctx context.Context, cfg models.SyncConfig) (Store, error) {
	key := cfg.Key()

	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.stores[key]; ok {
		return s, nil
	}
	s, err := c.newStore(ctx, cfg, c.log)
	if err != nil {
		return nil, err
	}
	c.stores[key] = s
	return s, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = DefaultRequestTimeout
	}
	return context.WithTimeout(ctx, d)
}
