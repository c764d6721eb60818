package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/docsync/internal/client/client"
	"github.com/dmitrijs2005/docsync/internal/client/config"
	"github.com/dmitrijs2005/docsync/internal/client/remote"
	"github.com/dmitrijs2005/docsync/internal/client/services"
	"github.com/dmitrijs2005/docsync/internal/common"
	"github.com/dmitrijs2005/docsync/internal/filex"
	"github.com/dmitrijs2005/docsync/internal/logging"
)

type App struct {
	config *config.Config
	repos  *client.Repositories
	sync   *services.SyncService
	log    logging.Logger
	reader *bufio.Reader
	out    io.Writer

	secret string
	newID  func() string
	now    func() time.Time
}

// NewApp opens the local database and builds the remote store. A store that
// cannot be built is logged, and the sync commands then report a validation
// error until the configuration is fixed.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	log := logging.New(c.LogLevel, c.LogFormat, os.Stderr)

	dataDir, err := filex.DataDir(c.DataDir)
	if err != nil {
		return nil, err
	}

	db, err := client.InitDatabase(ctx, c.ResolveDatabasePath(dataDir))
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	store, err := remote.NewCache(log).For(ctx, c.SyncConfig())
	if err != nil {
		log.Warn(ctx, "remote store unavailable", "variant", string(c.ServerVariant), "error", err)
	}

	svc := services.NewSyncService(store, services.SyncOptions{
		Namespace:       c.Namespace,
		DocumentsPath:   c.DocumentsPath,
		SensitiveFields: c.SensitiveFields,
	}, log)

	return &App{
		config: c,
		repos:  client.NewRepositories(db),
		sync:   svc,
		log:    log,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
		secret: c.MasterSecret,
		newID:  uuid.NewString,
		now:    time.Now,
	}, nil
}

func (a *App) Run(ctx context.Context) {
	defer func() {
		if err := a.repos.Close(); err != nil {
			a.log.Warn(ctx, "closing database", "error", err)
		}
	}()
	fmt.Fprintln(a.out, "Welcome to docsync CLI (type 'help' for commands)")
	a.runREPL(ctx)
}

// masterSecret returns the secret for settings encryption, prompting once
// when it was not supplied through the environment.
func (a *App) masterSecret() (string, error) {
	if a.secret != "" {
		return a.secret, nil
	}
	pw, err := GetPassword(a.out, "Master secret")
	if err != nil {
		return "", err
	}
	if len(pw) == 0 {
		return "", fmt.Errorf("%w: master secret is empty", common.ErrValidation)
	}
	a.secret = string(pw)
	return a.secret, nil
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format+"\n", args...)
}
