package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/docsync/internal/client/models"
	"github.com/dmitrijs2005/docsync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/docsync/internal/common"
)

var payloadKeys = map[string]string{
	"conversations": metadata.KeyConversations,
	"personas":      metadata.KeyPersonas,
}

func (a *App) importJSON(ctx context.Context, args []string) error {
	key, ok := payloadKeys[args[0]]
	if !ok {
		return errUsage
	}
	data, err := os.ReadFile(args[1])
	if err != nil {
		return err
	}
	if !json.Valid(data) {
		return fmt.Errorf("%w: %s is not valid JSON", common.ErrValidation, args[1])
	}
	if err := a.repos.Metadata.Set(ctx, key, data); err != nil {
		return err
	}
	a.printf("%s imported", args[0])
	return nil
}

func (a *App) addImage(ctx context.Context, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	img := models.ImageMetadata{
		ID:        a.newID(),
		Filename:  filepath.Base(args[0]),
		MimeType:  http.DetectContentType(data),
		Prompt:    strings.Join(args[1:], " "),
		CreatedAt: a.now().UTC(),
		Data:      data,
	}
	if err := a.repos.Images.CreateOrUpdate(ctx, &img); err != nil {
		return err
	}
	a.printf("image added %s (%s)", img.ID, img.ContentHash)
	return nil
}

func (a *App) pushImages(ctx context.Context, _ []string) error {
	images, err := a.repos.Images.GetAll(ctx)
	if err != nil {
		return err
	}
	a.printResult(a.sync.PushImages(ctx, images))
	return nil
}

// pullImages stores the remote image metadata. Binary data stays whatever
// the local store already has.
func (a *App) pullImages(ctx context.Context, _ []string) error {
	images, r := a.sync.PullImages(ctx)
	a.printResult(r)
	if !r.Success {
		return nil
	}
	for i := range images {
		if err := a.repos.Images.UpsertMetadata(ctx, &images[i]); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) pushConversations(ctx context.Context, _ []string) error {
	return a.pushPayload(ctx, metadata.KeyConversations, a.sync.PushConversations)
}

func (a *App) pullConversations(ctx context.Context, _ []string) error {
	return a.pullPayload(ctx, metadata.KeyConversations, a.sync.PullConversations)
}

func (a *App) pushPersonas(ctx context.Context, _ []string) error {
	return a.pushPayload(ctx, metadata.KeyPersonas, a.sync.PushPersonas)
}

func (a *App) pullPersonas(ctx context.Context, _ []string) error {
	return a.pullPayload(ctx, metadata.KeyPersonas, a.sync.PullPersonas)
}

func (a *App) pushPayload(ctx context.Context, key string, push func(context.Context, json.RawMessage) models.SyncResult) error {
	raw, err := a.repos.Metadata.Get(ctx, key)
	if err != nil {
		return err
	}
	if raw == nil {
		a.printf("no %s imported, run import-json first", key)
		return nil
	}
	a.printResult(push(ctx, raw))
	return nil
}

func (a *App) pullPayload(ctx context.Context, key string, pull func(context.Context) (json.RawMessage, models.SyncResult)) error {
	raw, r := pull(ctx)
	a.printResult(r)
	if !r.Success || raw == nil {
		return nil
	}
	return a.repos.Metadata.Set(ctx, key, raw)
}

func (a *App) testConnection(ctx context.Context, _ []string) error {
	a.printResult(a.sync.TestConnection(ctx))
	return nil
}
