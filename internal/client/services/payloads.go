package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/docsync/internal/client/models"
	"github.com/dmitrijs2005/docsync/internal/common"
)

const manifestVersion = 1

// PushImages writes the image metadata manifest. Image bytes never leave the
// client; each image is represented by its content hash.
func (s *SyncService) PushImages(ctx context.Context, images []models.ImageMetadata) models.SyncResult {
	if err := s.ready(); err != nil {
		return models.Failed("images sync failed", err)
	}

	manifest := models.ImagesManifest{
		Version:    manifestVersion,
		ExportedAt: s.opts.Now().UTC(),
		Images:     make([]models.ImageMetadata, 0, len(images)),
	}
	for _, img := range images {
		img.EnsureHash()
		img.Data = nil
		manifest.Images = append(manifest.Images, img)
	}

	body, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return models.Failed("images sync failed", err)
	}

	hash, err := s.store.Upsert(ctx, s.nsPath(imagesFile), body, fmt.Sprintf("Sync %d image(s) metadata", len(images)), "")
	if err != nil {
		s.log.Warn(ctx, "images push failed", "error", err)
		return models.Failed("images sync failed", err)
	}
	return models.Succeeded(fmt.Sprintf("synced metadata of %d image(s)", len(images)), hash)
}

// PullImages reads the image metadata manifest.
func (s *SyncService) PullImages(ctx context.Context) ([]models.ImageMetadata, models.SyncResult) {
	raw, res := s.pullJSON(ctx, imagesFile, "images")
	if raw == nil {
		return nil, res
	}

	var manifest models.ImagesManifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return nil, models.Failed("images pull failed", fmt.Errorf("%w: decode manifest: %v", common.ErrValidation, err))
	}
	return manifest.Images, res
}

// PushConversations writes the conversation backup verbatim.
func (s *SyncService) PushConversations(ctx context.Context, backup models.ConversationBackup) models.SyncResult {
	return s.pushJSON(ctx, conversationsFile, "conversations", backup)
}

func (s *SyncService) PullConversations(ctx context.Context) (models.ConversationBackup, models.SyncResult) {
	return s.pullJSON(ctx, conversationsFile, "conversations")
}

// PushPersonas writes the persona collection verbatim.
func (s *SyncService) PushPersonas(ctx context.Context, personas models.Personas) models.SyncResult {
	return s.pushJSON(ctx, personasFile, "personas", personas)
}

func (s *SyncService) PullPersonas(ctx context.Context) (models.Personas, models.SyncResult) {
	return s.pullJSON(ctx, personasFile, "personas")
}

func (s *SyncService) pushJSON(ctx context.Context, name, what string, payload json.RawMessage) models.SyncResult {
	if err := s.ready(); err != nil {
		return models.Failed(what+" sync failed", err)
	}
	if len(payload) == 0 || !json.Valid(payload) {
		return models.Failed(what+" sync failed", fmt.Errorf("%w: %s payload is not valid JSON", common.ErrValidation, what))
	}

	hash, err := s.store.Upsert(ctx, s.nsPath(name), payload, "Sync "+what, "")
	if err != nil {
		s.log.Warn(ctx, what+" push failed", "error", err)
		return models.Failed(what+" sync failed", err)
	}
	return models.Succeeded(what+" synced", hash)
}

// pullJSON returns nil content with a successful result when nothing is
// stored.
func (s *SyncService) pullJSON(ctx context.Context, name, what string) (json.RawMessage, models.SyncResult) {
	if err := s.ready(); err != nil {
		return nil, models.Failed(what+" pull failed", err)
	}

	f, err := s.store.Get(ctx, s.nsPath(name))
	if err != nil {
		return nil, models.Failed(what+" pull failed", err)
	}
	if f == nil {
		return nil, models.Succeeded("no "+what+" stored remotely", "")
	}
	if !json.Valid(f.Content) {
		return nil, models.Failed(what+" pull failed", fmt.Errorf("%w: remote %s is not valid JSON", common.ErrValidation, what))
	}
	return json.RawMessage(f.Content), models.Succeeded(what+" pulled", f.ContentHash)
}
