// Package services holds the sync orchestrator. Each operation is
// independent: it composes the codec, chunk merge, index and encryption
// packages with a remote.Store and reports a models.SyncResult. Nothing is
// kept between calls.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/dmitrijs2005/docsync/internal/client/models"
	"github.com/dmitrijs2005/docsync/internal/client/remote"
	"github.com/dmitrijs2005/docsync/internal/common"
	"github.com/dmitrijs2005/docsync/internal/cryptox"
	"github.com/dmitrijs2005/docsync/internal/logging"
	"github.com/google/uuid"
)

const (
	DefaultNamespace     = "sepilot"
	DefaultDocumentsPath = "documents"

	settingsFile      = "settings.json"
	indexFile         = "README.md"
	imagesFile        = "images-metadata.json"
	conversationsFile = "conversations.json"
	personasFile      = "personas.json"
)

// SyncOptions tunes the remote layout. Zero values take the defaults.
type SyncOptions struct {
	Namespace       string
	DocumentsPath   string
	SensitiveFields []string

	Now   func() time.Time
	NewID func() string
}

// SyncService pushes and pulls each entity category against one store.
type SyncService struct {
	store  remote.Store
	opts   SyncOptions
	schema cryptox.Schema[models.Settings]
	log    logging.Logger
}

func NewSyncService(store remote.Store, opts SyncOptions, log logging.Logger) *SyncService {
	if opts.Namespace == "" {
		opts.Namespace = DefaultNamespace
	}
	if opts.DocumentsPath == "" {
		opts.DocumentsPath = DefaultDocumentsPath
	}
	if opts.SensitiveFields == nil {
		opts.SensitiveFields = models.DefaultSensitiveFields
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	return &SyncService{
		store:  store,
		opts:   opts,
		schema: cryptox.Schema[models.Settings](models.SensitiveSettingsFields),
		log:    log,
	}
}

func (s *SyncService) nsPath(name string) string {
	return path.Join(strings.Trim(s.opts.Namespace, "/"), name)
}

func (s *SyncService) documentsDir() string {
	return s.nsPath(strings.Trim(s.opts.DocumentsPath, "/"))
}

func (s *SyncService) indexPath() string {
	return s.documentsDir() + "/" + indexFile
}

func (s *SyncService) ready() error {
	if s.store == nil {
		return fmt.Errorf("%w: remote store is not configured", common.ErrValidation)
	}
	return nil
}

// TestConnection performs one read-only call against the remote.
func (s *SyncService) TestConnection(ctx context.Context) models.SyncResult {
	if err := s.ready(); err != nil {
		return models.Failed("connection test failed", err)
	}
	if err := s.store.Ping(ctx); err != nil {
		s.log.Warn(ctx, "connection test failed", "error", err)
		return models.Failed("connection test failed", err)
	}
	return models.Succeeded("connection ok", "")
}

// PushSettings encrypts the sensitive fields of a copy of settings, strips the
// sync credential and writes the result.
func (s *SyncService) PushSettings(ctx context.Context, settings *models.Settings, secret string) models.SyncResult {
	if err := s.ready(); err != nil {
		return models.Failed("settings sync failed", err)
	}
	if settings == nil {
		return models.Failed("settings sync failed", fmt.Errorf("%w: no settings to sync", common.ErrValidation))
	}

	payload, err := settings.Clone()
	if err != nil {
		return models.Failed("settings sync failed", err)
	}
	if err := s.schema.EncryptFields(payload, s.opts.SensitiveFields, secret); err != nil {
		return models.Failed("settings sync failed", err)
	}
	payload.StripCredentials()

	body, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return models.Failed("settings sync failed", err)
	}

	hash, err := s.store.Upsert(ctx, s.nsPath(settingsFile), body, "Sync settings", "")
	if err != nil {
		s.log.Warn(ctx, "settings push failed", "error", err)
		return models.Failed("settings sync failed", err)
	}

	s.log.Info(ctx, "settings pushed", "hash", hash)
	return models.Succeeded("settings synced", hash)
}

// PullSettings reads and decrypts the remote settings. A nil Settings with a
// successful result means nothing is stored remotely. Fields that cannot be
// decrypted keep their stored value and are counted in the message. The sync
// credential, never stored remotely, is carried over from local.
func (s *SyncService) PullSettings(ctx context.Context, secret string, local *models.Settings) (*models.Settings, models.SyncResult) {
	if err := s.ready(); err != nil {
		return nil, models.Failed("settings pull failed", err)
	}

	f, err := s.store.Get(ctx, s.nsPath(settingsFile))
	if err != nil {
		return nil, models.Failed("settings pull failed", err)
	}
	if f == nil {
		return nil, models.Succeeded("no settings stored remotely", "")
	}

	var settings models.Settings
	if err := json.Unmarshal(f.Content, &settings); err != nil {
		return nil, models.Failed("settings pull failed", fmt.Errorf("%w: decode settings: %v", common.ErrValidation, err))
	}

	failed := s.schema.DecryptFields(&settings, s.opts.SensitiveFields, secret)
	for _, fe := range failed {
		s.log.Warn(ctx, "settings field left encrypted", "field", fe.Path, "error", fe.Err)
	}

	settings.RestoreCredentials(local)

	msg := "settings pulled"
	if len(failed) > 0 {
		msg = fmt.Sprintf("settings pulled, %d field(s) could not be decrypted", len(failed))
	}
	return &settings, models.Succeeded(msg, f.ContentHash)
}
