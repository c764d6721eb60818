package remote

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/docsync/internal/client/models"
	"github.com/dmitrijs2005/docsync/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlobHash_MatchesGit(t *testing.T) {
	// git hash-object on "hello\n"
	assert.Equal(t, "ce013625030ba8dba906f756967f9e9ca394464a", BlobHash([]byte("hello\n")))
	assert.Equal(t, "e69de29bb2d1d6434b8b29ae775ad8c2e48c5391", BlobHash(nil))
}

func TestMemoryStore_CompareAndSwap(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	_, err := m.Upsert(ctx, "a.md", []byte("x"), "m", "unknown")
	require.ErrorIs(t, err, common.ErrConflict)

	h1, err := m.Upsert(ctx, "a.md", []byte("v1"), "m", "")
	require.NoError(t, err)
	h2, err := m.Upsert(ctx, "a.md", []byte("v2"), "m", h1)
	require.NoError(t, err)

	_, err = m.Upsert(ctx, "a.md", []byte("v3"), "m", h1)
	require.ErrorIs(t, err, common.ErrConflict)
	_, err = m.Upsert(ctx, "a.md", []byte("v3"), "m", h2)
	require.NoError(t, err)
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	_, err := m.Upsert(ctx, "/a.md", []byte("abc"), "m", "")
	require.NoError(t, err)

	f, err := m.Get(ctx, "a.md")
	require.NoError(t, err)
	f.Content[0] = 'z'

	again, err := m.Get(ctx, "a.md")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again.Content))

	missing, err := m.Get(ctx, "b.md")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemoryStore_DeleteListWalk(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	for _, p := range []string{"ns/documents/a.md", "ns/documents/x/b.md", "ns/settings.json"} {
		_, err := m.Upsert(ctx, p, []byte(p), "m", "")
		require.NoError(t, err)
	}

	paths, err := m.ListDir(ctx, "ns/documents")
	require.NoError(t, err)
	assert.Equal(t, []string{"ns/documents/a.md", "ns/documents/x"}, paths)

	top, err := m.WalkTree(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, []models.TreeEntry{{Path: "ns", Type: models.EntryTree}}, top)

	all, err := m.WalkTree(ctx, true)
	require.NoError(t, err)
	var blobs []string
	for _, e := range all {
		if e.Type == models.EntryBlob {
			blobs = append(blobs, e.Path)
		}
	}
	assert.Equal(t, []string{"ns/documents/a.md", "ns/documents/x/b.md", "ns/settings.json"}, blobs)

	require.ErrorIs(t, m.Delete(ctx, "ns/settings.json", "rm", "bad"), common.ErrConflict)
	require.NoError(t, m.Delete(ctx, "ns/settings.json", "rm", ""))
	require.NoError(t, m.Delete(ctx, "ns/settings.json", "rm", ""))

	f, err := m.Get(ctx, "ns/settings.json")
	require.NoError(t, err)
	assert.Nil(t, f)
}

func TestMemoryStore_HonorsCancellation(t *testing.T) {
	m := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Get(ctx, "a")
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, m.Ping(ctx), context.Canceled)
}
