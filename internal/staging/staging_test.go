package staging

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBundleStore struct {
	objects map[string][]byte
}

func (f *fakeBundleStore) Download(_ context.Context, key string) ([]byte, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("bundle not found")
	}
	return data, nil
}

func (f *fakeBundleStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := f.objects[key]
	return ok, nil
}

func TestStageWritesBundleIntoTaskRoot(t *testing.T) {
	store := &fakeBundleStore{objects: map[string][]byte{
		"functions/echo.wasm": []byte("\x00asm fake module"),
	}}
	taskRoot := filepath.Join(t.TempDir(), "task")

	path, err := Stage(context.Background(), store, "functions/echo.wasm", taskRoot)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(taskRoot, "echo.wasm"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x00asm fake module"), data)
}

func TestStageMissingBundle(t *testing.T) {
	store := &fakeBundleStore{objects: map[string][]byte{}}

	_, err := Stage(context.Background(), store, "functions/missing.wasm", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestFingerprintIsStable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "echo.wasm")
	require.NoError(t, os.WriteFile(path, []byte("module bytes"), 0o644))

	a, err := Fingerprint(path)
	require.NoError(t, err)
	b, err := Fingerprint(path)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEmpty(t, a)
}
