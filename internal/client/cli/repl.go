package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/docsync/internal/client/models"
)

var errUsage = errors.New("usage")

type command struct {
	usage string
	args  int
	run   func(a *App, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"test":               {"test", 0, (*App).testConnection},
	"import":             {"import <file.md> [base-dir]", 1, (*App).importDocument},
	"import-settings":    {"import-settings <file.json>", 1, (*App).importSettings},
	"import-json":        {"import-json <conversations|personas> <file.json>", 2, (*App).importJSON},
	"add-image":          {"add-image <file> [prompt]", 1, (*App).addImage},
	"list":               {"list", 0, (*App).list},
	"push-settings":      {"push-settings", 0, (*App).pushSettings},
	"pull-settings":      {"pull-settings", 0, (*App).pullSettings},
	"push-docs":          {"push-docs", 0, (*App).pushDocuments},
	"push-doc":           {"push-doc <id>", 1, (*App).pushDocument},
	"pull-docs":          {"pull-docs", 0, (*App).pullDocuments},
	"delete-doc":         {"delete-doc <id>", 1, (*App).deleteDocument},
	"push-images":        {"push-images", 0, (*App).pushImages},
	"pull-images":        {"pull-images", 0, (*App).pullImages},
	"push-conversations": {"push-conversations", 0, (*App).pushConversations},
	"pull-conversations": {"pull-conversations", 0, (*App).pullConversations},
	"push-personas":      {"push-personas", 0, (*App).pushPersonas},
	"pull-personas":      {"pull-personas", 0, (*App).pullPersonas},
}

var commandOrder = []string{
	"test", "list",
	"import", "import-settings", "import-json", "add-image",
	"push-docs", "push-doc", "pull-docs", "delete-doc",
	"push-settings", "pull-settings",
	"push-images", "pull-images",
	"push-conversations", "pull-conversations",
	"push-personas", "pull-personas",
}

// runREPL reads commands until EOF, exit or quit. Command errors are printed
// and the loop continues.
func (a *App) runREPL(ctx context.Context) {
	for {
		fmt.Fprint(a.out, "docsync> ")
		line, err := a.reader.ReadString('\n')
		if line = strings.TrimSpace(line); line != "" {
			if !a.exec(ctx, line) {
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// exec runs one command line and reports whether the loop should go on.
func (a *App) exec(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	name, args := parts[0], parts[1:]

	switch name {
	case "exit", "quit":
		a.printf("Bye!")
		return false
	case "help":
		a.help()
		return true
	}

	cmd, ok := commands[name]
	if !ok {
		a.printf("Unknown command: %s", name)
		return true
	}
	if len(args) < cmd.args {
		a.printf("Usage: %s", cmd.usage)
		return true
	}

	if err := cmd.run(a, ctx, args); err != nil {
		if errors.Is(err, errUsage) {
			a.printf("Usage: %s", cmd.usage)
		} else {
			a.printf("error: %v", err)
		}
	}
	return true
}

func (a *App) help() {
	a.printf("Available commands:")
	for _, name := range commandOrder {
		a.printf("  %s", commands[name].usage)
	}
	a.printf("  help")
	a.printf("  exit")
}

func (a *App) printResult(r models.SyncResult) {
	if r.Success {
		a.printf("ok: %s", r.Message)
		return
	}
	a.printf("failed [%s]: %s", r.Kind, r.Message)
	switch {
	case r.IsConflict():
		a.printf("run pull-docs to fetch the current remote version")
	case r.Kind.Retryable():
		a.printf("temporary failure, try again later")
	}
}
