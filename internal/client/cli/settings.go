package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/docsync/internal/client/models"
	"github.com/dmitrijs2005/docsync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/docsync/internal/common"
)

func (a *App) importSettings(ctx context.Context, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	var s models.Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: settings file: %v", common.ErrValidation, err)
	}
	if err := metadata.SaveJSON(ctx, a.repos.Metadata, metadata.KeySettings, &s); err != nil {
		return err
	}
	a.printf("settings imported")
	return nil
}

func (a *App) pushSettings(ctx context.Context, _ []string) error {
	var s models.Settings
	ok, err := metadata.LoadJSON(ctx, a.repos.Metadata, metadata.KeySettings, &s)
	if err != nil {
		return err
	}
	if !ok {
		a.printf("no settings imported, run import-settings first")
		return nil
	}

	secret, err := a.masterSecret()
	if err != nil {
		return err
	}
	a.printResult(a.sync.PushSettings(ctx, &s, secret))
	return nil
}

// pullSettings replaces the local settings with the remote copy, keeping the
// local sync token. Fields that could not be decrypted stay encrypted and are
// reported in the result.
func (a *App) pullSettings(ctx context.Context, _ []string) error {
	secret, err := a.masterSecret()
	if err != nil {
		return err
	}

	var local *models.Settings
	var stored models.Settings
	ok, err := metadata.LoadJSON(ctx, a.repos.Metadata, metadata.KeySettings, &stored)
	if err != nil {
		return err
	}
	if ok {
		local = &stored
	}

	s, r := a.sync.PullSettings(ctx, secret, local)
	a.printResult(r)
	if !r.Success || s == nil {
		return nil
	}
	return metadata.SaveJSON(ctx, a.repos.Metadata, metadata.KeySettings, s)
}
