package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchive_BundlesFilesFlat(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := 0; i < 3; i++ {
		p := filepath.Join(dir, fmt.Sprintf("thumb_%04d.png", i+1))
		require.NoError(t, os.WriteFile(p, []byte(fmt.Sprintf("png-%d", i)), 0o644))
		paths = append(paths, p)
	}

	out := filepath.Join(t.TempDir(), "thumbs.zip")
	require.NoError(t, NewThumbnailArchiver().Archive(context.Background(), paths, out))

	zr, err := zip.OpenReader(out)
	require.NoError(t, err)
	defer zr.Close()

	require.Len(t, zr.File, 3)
	// Entries are flat basenames, no directory structure leaks in.
	assert.Equal(t, "thumb_0001.png", zr.File[0].Name)
	assert.Equal(t, "thumb_0003.png", zr.File[2].Name)
}

func TestArchive_MissingFileFails(t *testing.T) {
	out := filepath.Join(t.TempDir(), "thumbs.zip")
	err := NewThumbnailArchiver().Archive(context.Background(), []string{"/nonexistent/thumb.png"}, out)
	require.Error(t, err)
}

func TestArchive_CanceledContext(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "thumb.png")
	require.NoError(t, os.WriteFile(p, []byte("png"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := filepath.Join(t.TempDir(), "thumbs.zip")
	err := NewThumbnailArchiver().Archive(ctx, []string{p}, out)
	assert.ErrorIs(t, err, context.Canceled)
}
