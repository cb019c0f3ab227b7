package background

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"metamorphosis/internal/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRembg writes an executable script standing in for rembg.
func fakeRembg(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script mocks are not supported on windows")
	}
	path := filepath.Join(t.TempDir(), "rembg")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func writeInput(t *testing.T) (string, []byte) {
	t.Helper()
	data := []byte("\x89PNG\r\n\x1a\nfake image payload")
	path := filepath.Join(t.TempDir(), "photo.jpg")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path, data
}

func TestNewDefaults(t *testing.T) {
	assert.Equal(t, DefaultCommand, New("").command)
	assert.Equal(t, "/opt/rembg", New("/opt/rembg").command)
}

func TestRemoveBackgroundPassesBytesThrough(t *testing.T) {
	// The fake checks its arguments and echoes stdin
	r := New(fakeRembg(t, `[ "$1 $2 $3" = "i - -" ] || exit 2
cat
`))
	input, data := writeInput(t)
	output := filepath.Join(filepath.Dir(input), "photo_meta.png")

	require.NoError(t, r.RemoveBackground(context.Background(), input, output))

	got, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestRemoveBackgroundFailure(t *testing.T) {
	r := New(fakeRembg(t, "echo 'model download failed' >&2\nexit 1\n"))
	input, _ := writeInput(t)
	output := filepath.Join(filepath.Dir(input), "photo_meta.png")

	err := r.RemoveBackground(context.Background(), input, output)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model download failed")
	assert.NoFileExists(t, output)
}

func TestRemoveBackgroundEmptyOutput(t *testing.T) {
	r := New(fakeRembg(t, "cat > /dev/null\n"))
	input, _ := writeInput(t)
	output := filepath.Join(filepath.Dir(input), "photo_meta.png")

	require.Error(t, r.RemoveBackground(context.Background(), input, output))
	assert.NoFileExists(t, output)
}

func TestRemoveBackgroundUnavailable(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "missing-rembg"))
	assert.False(t, r.Available())

	err := r.RemoveBackground(context.Background(), "photo.jpg", "photo_meta.png")
	assert.True(t, errors.Is(err, catalog.ErrFeatureUnavailable), "got %v", err)
}

func TestRemoveBackgroundMissingInput(t *testing.T) {
	r := New(fakeRembg(t, "cat\n"))
	dir := t.TempDir()

	err := r.RemoveBackground(context.Background(), filepath.Join(dir, "gone.png"), filepath.Join(dir, "gone_meta.png"))
	assert.Error(t, err)
}
