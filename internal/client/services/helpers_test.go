package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/docsync/internal/client/models"
	"github.com/dmitrijs2005/docsync/internal/client/remote"
	"github.com/dmitrijs2005/docsync/internal/logging"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// faultyStore wraps a MemoryStore and fails selected calls.
type faultyStore struct {
	*remote.MemoryStore

	mu        sync.Mutex
	failWrite map[string]error
	failGet   map[string]error
	pingErr   error
	onGet     func(path string) // runs after each Get
	writes    []string
}

func newFaultyStore() *faultyStore {
	return &faultyStore{
		MemoryStore: remote.NewMemoryStore(),
		failWrite:   map[string]error{},
		failGet:     map[string]error{},
	}
}

func (f *faultyStore) Get(ctx context.Context, p string) (*models.RemoteFile, error) {
	if err := f.failGet[p]; err != nil {
		return nil, err
	}
	file, err := f.MemoryStore.Get(ctx, p)
	if f.onGet != nil {
		f.onGet(p)
	}
	return file, err
}

func (f *faultyStore) Upsert(ctx context.Context, p string, content []byte, message, expectedHash string) (string, error) {
	f.mu.Lock()
	f.writes = append(f.writes, p)
	f.mu.Unlock()
	if err := f.failWrite[p]; err != nil {
		return "", err
	}
	return f.MemoryStore.Upsert(ctx, p, content, message, expectedHash)
}

func (f *faultyStore) Ping(ctx context.Context) error {
	if f.pingErr != nil {
		return f.pingErr
	}
	return f.MemoryStore.Ping(ctx)
}

func newTestService(t *testing.T, store remote.Store) *SyncService {
	t.Helper()
	n := 0
	return NewSyncService(store, SyncOptions{
		Now: func() time.Time { return fixedNow },
		NewID: func() string {
			n++
			return "doc-" + string(rune('0'+n))
		},
	}, logging.Nop())
}

func mustGet(t *testing.T, s remote.Store, p string) *models.RemoteFile {
	t.Helper()
	f, err := s.Get(context.Background(), p)
	if err != nil {
		t.Fatalf("get %s: %v", p, err)
	}
	if f == nil {
		t.Fatalf("get %s: not found", p)
	}
	return f
}
