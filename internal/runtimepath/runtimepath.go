package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
)

// Dir returns the runtime directory that holds the status socket. Priority:
// 1) XDG_RUNTIME_DIR (if set)
// 2) $TMPDIR/workrooms-runtime-<uid> (created)
//
// Stream Deck launches plugins on macOS where XDG_RUNTIME_DIR is normally
// unset, so the temp fallback is the common path.
func Dir() (string, error) {
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		return runtimeDir, nil
	}

	dir := filepath.Join(os.TempDir(), fmt.Sprintf("workrooms-runtime-%d", os.Getuid()))
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create runtime dir: %w", err)
	}
	return dir, nil
}

// SocketPath returns the daemon status socket path.
func SocketPath() (string, error) {
	runtimeDir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(runtimeDir, "workrooms.sock"), nil
}
