package remote

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/dmitrijs2005/docsync/internal/client/models"
	"github.com/dmitrijs2005/docsync/internal/common"
)

// MemoryStore is an in-process Store. Hashes are git blob ids so they match
// what the contents API would report for the same bytes.
type MemoryStore struct {
	mu    sync.RWMutex
	files map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{files: make(map[string][]byte)}
}

// BlobHash returns the git blob id of content.
func BlobHash(content []byte) string {
	h := sha1.New()
	h.Write([]byte("blob " + strconv.Itoa(len(content)) + "\x00"))
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

func cleanPath(p string) string {
	return strings.Trim(p, "/")
}

func (m *MemoryStore) Get(ctx context.Context, p string) (*models.RemoteFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	content, ok := m.files[cleanPath(p)]
	if !ok {
		return nil, nil
	}
	return &models.RemoteFile{
		Path:        cleanPath(p),
		ContentHash: BlobHash(content),
		Content:     append([]byte(nil), content...),
	}, nil
}

func (m *MemoryStore) Upsert(ctx context.Context, p string, content []byte, message, expectedHash string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := cleanPath(p)
	if expectedHash != "" {
		current, ok := m.files[key]
		if !ok || BlobHash(current) != expectedHash {
			return "", fmt.Errorf("upsert %s: %w", p, common.ErrConflict)
		}
	}

	m.files[key] = append([]byte(nil), content...)
	return BlobHash(content), nil
}

func (m *MemoryStore) Delete(ctx context.Context, p, message, hash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := cleanPath(p)
	current, ok := m.files[key]
	if !ok {
		return nil
	}
	if hash != "" && BlobHash(current) != hash {
		return fmt.Errorf("delete %s: %w", p, common.ErrConflict)
	}
	delete(m.files, key)
	return nil
}

func (m *MemoryStore) ListDir(ctx context.Context, dir string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	prefix := cleanPath(dir)
	if prefix != "" {
		prefix += "/"
	}

	seen := make(map[string]struct{})
	for key := range m.files {
		rest, ok := strings.CutPrefix(key, prefix)
		if !ok {
			continue
		}
		child, _, _ := strings.Cut(rest, "/")
		seen[prefix+child] = struct{}{}
	}

	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

func (m *MemoryStore) WalkTree(ctx context.Context, recursive bool) ([]models.TreeEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	dirs := make(map[string]struct{})
	var entries []models.TreeEntry
	for key, content := range m.files {
		if !recursive && strings.Contains(key, "/") {
			top, _, _ := strings.Cut(key, "/")
			dirs[top] = struct{}{}
			continue
		}
		entries = append(entries, models.TreeEntry{
			Path: key,
			Type: models.EntryBlob,
			Hash: BlobHash(content),
			Size: int64(len(content)),
		})
		if recursive {
			for d := path.Dir(key); d != "."; d = path.Dir(d) {
				dirs[d] = struct{}{}
			}
		}
	}
	for d := range dirs {
		entries = append(entries, models.TreeEntry{Path: d, Type: models.EntryTree})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}
