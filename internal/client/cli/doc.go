// Package cli provides the interactive docsync command-line client.
//
// It wires configuration, the local sqlite store, the remote store selected
// by the configuration and the sync service, then runs a REPL. Documents,
// settings, images, conversations and personas are imported into the local
// store and pushed or pulled on command.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
