package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDisk_UploadPublicURLDelete(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	d, err := NewDisk(dir, "http://localhost:8080/files/")
	require.NoError(t, err)
	ctx := context.Background()

	// URL is unavailable before upload.
	_, err = d.PublicURL(ctx, "7")
	require.Error(t, err)

	src := filepath.Join(t.TempDir(), "song.mp3")
	require.NoError(t, os.WriteFile(src, []byte("audio-bytes"), 0o644))

	require.NoError(t, d.Upload(ctx, src, "7", "audio/mpeg"))

	// Source file is consumed.
	_, err = os.Stat(src)
	require.True(t, os.IsNotExist(err))

	// Blob landed in the store.
	data, err := os.ReadFile(filepath.Join(dir, "7"))
	require.NoError(t, err)
	require.Equal(t, "audio-bytes", string(data))

	url, err := d.PublicURL(ctx, "7")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "http://localhost:8080/files/7?token="), url)
	require.NotEqual(t, "http://localhost:8080/files/7?token=", url)

	// The URL is stable across calls (token persisted, not re-rolled).
	again, err := d.PublicURL(ctx, "7")
	require.NoError(t, err)
	require.Equal(t, url, again)

	require.NoError(t, d.Delete(ctx, "7"))
	_, err = d.PublicURL(ctx, "7")
	require.Error(t, err)

	// Deleting a missing blob is a no-op.
	require.NoError(t, d.Delete(ctx, "7"))
}

func TestDisk_KeyCannotEscapeDir(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	d, err := NewDisk(dir, "http://localhost/files")
	require.NoError(t, err)

	src := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

	require.NoError(t, d.Upload(context.Background(), src, "../../etc/evil", "text/plain"))

	// The path traversal is stripped to its base name inside the store.
	_, err = os.Stat(filepath.Join(dir, "evil"))
	require.NoError(t, err)
}
