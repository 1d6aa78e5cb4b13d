package cmd

import (
	"path/filepath"
	"testing"

	"github.com/andthens/BluePrint/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchConfig(t *testing.T) {
	c := watchConfig(config.Config{KeepUploads: true, PurgeOutputs: true, UploadDir: "uploads"})
	assert.False(t, c.KeepUploads, "dropped files are not copied into UPLOAD_DIR")
	assert.False(t, c.PurgeOutputs)
	assert.Equal(t, "uploads", c.UploadDir)
}

func TestCheckWatchDir(t *testing.T) {
	root := t.TempDir()
	c := config.Config{
		UploadDir: filepath.Join(root, "uploads"),
		OutputDir: filepath.Join(root, "outputs"),
	}

	require.NoError(t, checkWatchDir(filepath.Join(root, "drop"), c))
	require.NoError(t, checkWatchDir(root, c))

	err := checkWatchDir(filepath.Join(root, "uploads"), c)
	require.ErrorContains(t, err, "UPLOAD_DIR")

	err = checkWatchDir(filepath.Join(root, "outputs", "."), c)
	require.ErrorContains(t, err, "OUTPUT_DIR")
}

func TestWatch_RefusesUploadDir(t *testing.T) {
	uploads := t.TempDir()
	t.Setenv("UPLOAD_DIR", uploads)
	t.Setenv("OUTPUT_DIR", t.TempDir())

	_, err := runCLI(t, "watch", uploads)
	require.ErrorContains(t, err, "cannot watch")
}
