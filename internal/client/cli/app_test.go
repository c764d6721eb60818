package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/docsync/internal/client/client"
	"github.com/dmitrijs2005/docsync/internal/client/config"
	"github.com/dmitrijs2005/docsync/internal/client/models"
	"github.com/dmitrijs2005/docsync/internal/client/remote"
	"github.com/dmitrijs2005/docsync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/docsync/internal/client/services"
	"github.com/dmitrijs2005/docsync/internal/common"
	"github.com/dmitrijs2005/docsync/internal/logging"
	"github.com/dmitrijs2005/docsync/internal/mdcodec"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func sequence(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return prefix + strconv.Itoa(n)
	}
}

func newTestApp(t *testing.T, input string) (*App, *bytes.Buffer, *remote.MemoryStore) {
	t.Helper()
	ctx := context.Background()

	db, err := client.InitDatabase(ctx, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	repos := client.NewRepositories(db)
	t.Cleanup(func() { _ = repos.Close() })

	store := remote.NewMemoryStore()
	now := func() time.Time { return fixedNow }
	svc := services.NewSyncService(store, services.SyncOptions{Now: now, NewID: sequence("pulled-")}, logging.Nop())

	out := &bytes.Buffer{}
	return &App{
		config: &config.Config{},
		repos:  repos,
		sync:   svc,
		log:    logging.Nop(),
		reader: rdr(input),
		out:    out,
		secret: "master",
		newID:  sequence("local-"),
		now:    now,
	}, out, store
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o700))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestREPL_Dispatch(t *testing.T) {
	a, out, _ := newTestApp(t, "help\n\nfoo\npush-doc\nimport-json stories x.json\nexit\nlist\n")
	a.runREPL(context.Background())

	s := out.String()
	assert.Contains(t, s, "Available commands:")
	assert.Contains(t, s, "push-doc <id>")
	assert.Contains(t, s, "Unknown command: foo")
	assert.Contains(t, s, "Usage: push-doc <id>")
	assert.Contains(t, s, "Usage: import-json <conversations|personas> <file.json>")
	assert.Contains(t, s, "Bye!")
	assert.NotContains(t, s, "document(s)", "commands after exit must not run")
}

func TestREPL_StopsOnEOF(t *testing.T) {
	a, out, _ := newTestApp(t, "list")
	a.runREPL(context.Background())
	assert.Contains(t, out.String(), "0 document(s), 0 image(s)")
}

func TestCommandTableIsComplete(t *testing.T) {
	require.Len(t, commandOrder, len(commands))
	for _, name := range commandOrder {
		_, ok := commands[name]
		assert.True(t, ok, name)
	}
}

func TestImportAndPushDocs(t *testing.T) {
	ctx := context.Background()
	a, out, store := newTestApp(t, "")

	dir := t.TempDir()
	file := writeFile(t, dir, "work/Plan.md", "# Plan\n\n---\n**Tags:** go, sync\n---\n\nShip it.")

	require.True(t, a.exec(ctx, "import "+file+" "+dir))
	assert.Contains(t, out.String(), "imported local-1: Plan")

	docs, err := a.repos.Documents.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "work", docs[0].FolderPath)
	assert.Equal(t, []string{"go", "sync"}, docs[0].Tags)
	assert.Equal(t, "Plan.md", docs[0].Source)
	assert.True(t, fixedNow.Equal(docs[0].UploadedAt))

	require.True(t, a.exec(ctx, "push-docs"))
	assert.Contains(t, out.String(), "ok: synced 1/1 documents")

	f, err := store.Get(ctx, "sepilot/documents/work/Plan.md")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Contains(t, string(f.Content), "Ship it.")

	idx, err := store.Get(ctx, "sepilot/documents/README.md")
	require.NoError(t, err)
	require.NotNil(t, idx)
}

func TestPullThenPushDoc_Conflict(t *testing.T) {
	ctx := context.Background()
	a, out, store := newTestApp(t, "")

	const p = "sepilot/documents/notes/Plan.md"
	_, err := store.Upsert(ctx, p, []byte(mdcodec.Encode("Plan", "v1", mdcodec.Metadata{})), "seed", "")
	require.NoError(t, err)

	require.True(t, a.exec(ctx, "pull-docs"))
	assert.Contains(t, out.String(), "ok: pulled 1 documents")

	last, err := a.repos.Metadata.Get(ctx, metadata.KeyLastPull)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-01T12:00:00Z", string(last))

	// Someone else edits the file after our pull.
	_, err = store.Upsert(ctx, p, []byte(mdcodec.Encode("Plan", "v2", mdcodec.Metadata{})), "edit", "")
	require.NoError(t, err)

	require.True(t, a.exec(ctx, "push-doc pulled-1"))
	assert.Contains(t, out.String(), "failed [conflict]: "+models.ConflictMessage)

	f, err := store.Get(ctx, p)
	require.NoError(t, err)
	assert.Contains(t, string(f.Content), "v2")

	out.Reset()
	require.True(t, a.exec(ctx, "pull-docs"))
	docs, err := a.repos.Documents.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1, "a re-pull replaces the previous copy")
	assert.Equal(t, "pulled-2", docs[0].ID)
	assert.Equal(t, "v2", strings.TrimSpace(docs[0].Content))

	require.True(t, a.exec(ctx, "push-doc pulled-2"))
	assert.Contains(t, out.String(), "ok: document synced: "+p)

	f, err = store.Get(ctx, p)
	require.NoError(t, err)
	docs, err = a.repos.Documents.GetAll(ctx)
	require.NoError(t, err)
	require.NotNil(t, docs[0].Remote)
	assert.Equal(t, f.ContentHash, docs[0].Remote.Hash)
	assert.Equal(t, p, docs[0].Remote.Path)
}

func TestPushDoc_NotFound(t *testing.T) {
	a, out, _ := newTestApp(t, "")
	require.True(t, a.exec(context.Background(), "push-doc nope"))
	assert.Contains(t, out.String(), "error: document nope: "+common.ErrNotFound.Error())
}

func TestDeleteDoc(t *testing.T) {
	ctx := context.Background()
	a, out, store := newTestApp(t, "")

	dir := t.TempDir()
	require.True(t, a.exec(ctx, "import "+writeFile(t, dir, "A.md", "# A\n\nfirst")))
	require.True(t, a.exec(ctx, "import "+writeFile(t, dir, "B.md", "# B\n\nsecond")))
	require.True(t, a.exec(ctx, "push-docs"))

	a.reader = rdr("n\n")
	require.True(t, a.exec(ctx, "delete-doc local-1"))
	assert.Contains(t, out.String(), "cancelled")

	a.reader = rdr("y\n")
	require.True(t, a.exec(ctx, "delete-doc local-1"))
	assert.Contains(t, out.String(), "ok: document deleted: sepilot/documents/A.md")

	f, err := store.Get(ctx, "sepilot/documents/A.md")
	require.NoError(t, err)
	assert.Nil(t, f)

	idx, err := store.Get(ctx, "sepilot/documents/README.md")
	require.NoError(t, err)
	require.NotNil(t, idx)
	assert.NotContains(t, string(idx.Content), "A.md")
	assert.Contains(t, string(idx.Content), "B.md")

	docs, err := a.repos.Documents.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "local-2", docs[0].ID)
}

func TestSettingsRoundTrip(t *testing.T) {
	ctx := context.Background()
	a, out, store := newTestApp(t, "")

	file := writeFile(t, t.TempDir(), "settings.json", `{"llm":{"provider":"openai","apiKey":"sk-123"}}`)
	require.True(t, a.exec(ctx, "push-settings"))
	assert.Contains(t, out.String(), "no settings imported")

	require.True(t, a.exec(ctx, "import-settings "+file))
	require.True(t, a.exec(ctx, "push-settings"))
	assert.Contains(t, out.String(), "ok: ")

	remoteFile, err := store.Get(ctx, "sepilot/settings.json")
	require.NoError(t, err)
	require.NotNil(t, remoteFile)
	assert.NotContains(t, string(remoteFile.Content), "sk-123")

	require.NoError(t, a.repos.Metadata.Delete(ctx, metadata.KeySettings))
	require.True(t, a.exec(ctx, "pull-settings"))

	var s models.Settings
	ok, err := metadata.LoadJSON(ctx, a.repos.Metadata, metadata.KeySettings, &s)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, s.LLM)
	assert.Equal(t, "sk-123", s.LLM.APIKey)
	assert.Equal(t, "openai", s.LLM.Provider)
}

func TestImportSettings_Invalid(t *testing.T) {
	a, out, _ := newTestApp(t, "")
	file := writeFile(t, t.TempDir(), "bad.json", `{"llm":`)
	require.True(t, a.exec(context.Background(), "import-settings "+file))
	assert.Contains(t, out.String(), "error: "+common.ErrValidation.Error())
}

func TestMasterSecretPrompt(t *testing.T) {
	old := readPassword
	defer func() { readPassword = old }()

	a, _, _ := newTestApp(t, "")
	a.secret = ""

	readPassword = func(int) ([]byte, error) { return nil, nil }
	_, err := a.masterSecret()
	require.ErrorIs(t, err, common.ErrValidation)

	calls := 0
	readPassword = func(int) ([]byte, error) {
		calls++
		return []byte("typed"), nil
	}
	for range 2 {
		s, err := a.masterSecret()
		require.NoError(t, err)
		assert.Equal(t, "typed", s)
	}
	assert.Equal(t, 1, calls, "the secret is prompted once")

	a.secret = ""
	readPassword = func(int) ([]byte, error) { return nil, errors.New("no tty") }
	_, err = a.masterSecret()
	require.Error(t, err)
}

func TestPayloadCommands(t *testing.T) {
	ctx := context.Background()
	a, out, store := newTestApp(t, "")
	dir := t.TempDir()

	require.True(t, a.exec(ctx, "push-personas"))
	assert.Contains(t, out.String(), "no personas imported")

	require.True(t, a.exec(ctx, "import-json conversations "+writeFile(t, dir, "c.json", `{"conversations":[{"id":"c1"}]}`)))
	require.True(t, a.exec(ctx, "import-json personas "+writeFile(t, dir, "p.json", `[{"name":"Tutor"}]`)))
	require.True(t, a.exec(ctx, "import-json personas "+writeFile(t, dir, "bad.json", `[{`)))
	assert.Contains(t, out.String(), "not valid JSON")

	require.True(t, a.exec(ctx, "push-conversations"))
	require.True(t, a.exec(ctx, "push-personas"))

	f, err := store.Get(ctx, "sepilot/conversations.json")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.JSONEq(t, `{"conversations":[{"id":"c1"}]}`, string(f.Content))

	require.NoError(t, a.repos.Metadata.Delete(ctx, metadata.KeyPersonas))
	require.True(t, a.exec(ctx, "pull-personas"))
	raw, err := a.repos.Metadata.Get(ctx, metadata.KeyPersonas)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"Tutor"}]`, string(raw))
}

func TestImageCommands(t *testing.T) {
	ctx := context.Background()
	a, out, store := newTestApp(t, "")

	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 16)...)
	file := filepath.Join(t.TempDir(), "cat.png")
	require.NoError(t, os.WriteFile(file, png, 0o600))

	require.True(t, a.exec(ctx, "add-image "+file+" a sleepy cat"))
	assert.Contains(t, out.String(), "image added local-1 (sha256:")

	img, err := a.repos.Images.GetByID(ctx, "local-1")
	require.NoError(t, err)
	require.NotNil(t, img)
	assert.Equal(t, "image/png", img.MimeType)
	assert.Equal(t, "a sleepy cat", img.Prompt)

	require.True(t, a.exec(ctx, "push-images"))
	f, err := store.Get(ctx, "sepilot/images-metadata.json")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Contains(t, string(f.Content), img.ContentHash)

	require.NoError(t, a.repos.Images.DeleteByID(ctx, "local-1"))
	require.True(t, a.exec(ctx, "pull-images"))
	images, err := a.repos.Images.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, "cat.png", images[0].Filename)
}

func TestNewApp(t *testing.T) {
	ctx := context.Background()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.ServerVariant = models.VariantMemory
	cfg.DataDir = t.TempDir()
	cfg.LogLevel = "error"

	a, err := NewApp(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.repos.Close() })

	out := &bytes.Buffer{}
	a.out = out
	require.True(t, a.exec(ctx, "test"))
	assert.Contains(t, out.String(), "ok: connection ok")
	assert.FileExists(t, filepath.Join(cfg.DataDir, "docsync.db"))
}

func TestNewApp_UnconfiguredRemote(t *testing.T) {
	ctx := context.Background()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DataDir = t.TempDir()
	cfg.LogLevel = "error"

	a, err := NewApp(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.repos.Close() })

	out := &bytes.Buffer{}
	a.out = out
	require.True(t, a.exec(ctx, "test"))
	assert.Contains(t, out.String(), "failed [validation]")
}

func TestPullSettings_KeepsLocalToken(t *testing.T) {
	ctx := context.Background()
	a, _, _ := newTestApp(t, "")

	file := writeFile(t, t.TempDir(), "settings.json",
		`{"llm":{"apiKey":"sk-123"},"github":{"owner":"octo","repo":"notes","token":"ghp_local"}}`)
	require.True(t, a.exec(ctx, "import-settings "+file))
	require.True(t, a.exec(ctx, "push-settings"))
	require.True(t, a.exec(ctx, "pull-settings"))

	var s models.Settings
	ok, err := metadata.LoadJSON(ctx, a.repos.Metadata, metadata.KeySettings, &s)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, s.GitHub)
	assert.Equal(t, "ghp_local", s.GitHub.Token)
	assert.Equal(t, "octo", s.GitHub.Owner)
	assert.Equal(t, "sk-123", s.LLM.APIKey)
}

func TestPushDocsThenPullDocs_NoDuplicates(t *testing.T) {
	ctx := context.Background()
	a, out, store := newTestApp(t, "")

	require.True(t, a.exec(ctx, "import "+writeFile(t, t.TempDir(), "Plan.md", "# Plan\n\nShip it.")))
	require.True(t, a.exec(ctx, "push-docs"))

	const p = "sepilot/documents/Plan.md"
	f, err := store.Get(ctx, p)
	require.NoError(t, err)
	require.NotNil(t, f)

	docs, err := a.repos.Documents.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.NotNil(t, docs[0].Remote)
	assert.Equal(t, f.ContentHash, docs[0].Remote.Hash)
	assert.Equal(t, p, docs[0].Remote.Path)

	require.True(t, a.exec(ctx, "pull-docs"))
	docs, err = a.repos.Documents.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1, "the pulled copy replaces the pushed row")
	assert.Equal(t, "pulled-1", docs[0].ID)

	out.Reset()
	require.True(t, a.exec(ctx, "push-docs"))
	assert.Contains(t, out.String(), "ok: synced 1/1 documents")
}

type unreachableStore struct {
	*remote.MemoryStore
}

func (unreachableStore) Ping(context.Context) error {
	return fmt.Errorf("dial api.github.com: %w", common.ErrTransient)
}

func TestTestConnection_TransientFailureSuggestsRetry(t *testing.T) {
	a, out, _ := newTestApp(t, "")
	a.sync = services.NewSyncService(unreachableStore{remote.NewMemoryStore()}, services.SyncOptions{}, logging.Nop())

	require.True(t, a.exec(context.Background(), "test"))
	s := out.String()
	assert.Contains(t, s, "failed [transient]: connection test failed")
	assert.Contains(t, s, "try again later")
	assert.NotContains(t, s, "pull-docs")
}
