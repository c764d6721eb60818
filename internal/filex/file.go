// Package filex resolves and creates the CLI's data directory.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

const appDir = "docsync"

var userConfigDir = os.UserConfigDir

// DataDir returns dir made absolute, or the per-user config directory for
// the application when dir is empty. The directory is created if needed.
func DataDir(dir string) (string, error) {
	if dir == "" {
		base, err := userConfigDir()
		if err != nil {
			return "", fmt.Errorf("locate config dir: %w", err)
		}
		dir = filepath.Join(base, appDir)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", abs, err)
	}
	return abs, nil
}
