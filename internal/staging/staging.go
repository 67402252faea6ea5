package staging

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ignis-runtime/ignis-bootstrap/internal/storage"
	"github.com/ignis-runtime/ignis-bootstrap/internal/utils"
)

// Stage downloads a code bundle into the task root and returns the
// staged file path. The file keeps the object key's base name so a
// handler reference like "echo.handler" finds "<taskRoot>/echo.wasm".
func Stage(ctx context.Context, store storage.BundleStore, key, taskRoot string) (string, error) {
	ok, err := store.Exists(ctx, key)
	if err != nil {
		return "", fmt.Errorf("bundle lookup: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("bundle not found: %s", key)
	}

	data, err := store.Download(ctx, key)
	if err != nil {
		return "", fmt.Errorf("bundle download: %w", err)
	}

	if err := os.MkdirAll(taskRoot, 0o755); err != nil {
		return "", fmt.Errorf("task root: %w", err)
	}

	path := filepath.Join(taskRoot, filepath.Base(key))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("stage bundle: %w", err)
	}

	return path, nil
}

// Fingerprint returns the checksum of a staged file, used for logging
// and as the compiled-module cache key.
func Fingerprint(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return utils.Checksum(data), nil
}
