package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52}

func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}

func TestSniffMedia(t *testing.T) {
	t.Run("png", func(t *testing.T) {
		media, err := SniffMedia(writeFile(t, "photo.bin", pngHeader))
		require.NoError(t, err)
		assert.Equal(t, MediaKindImage, media.Kind)
		assert.Equal(t, "image/png", media.MIME)
		assert.Equal(t, "png", media.Extension)
	})

	t.Run("plain text is rejected", func(t *testing.T) {
		_, err := SniffMedia(writeFile(t, "notes.txt", []byte("hello there, not an image")))
		assert.ErrorIs(t, err, ErrUnsupportedMedia)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := SniffMedia(filepath.Join(t.TempDir(), "absent.png"))
		assert.Error(t, err)
	})
}

func TestIsLocalFile(t *testing.T) {
	path := writeFile(t, "photo.png", pngHeader)

	assert.True(t, IsLocalFile(path))
	assert.False(t, IsLocalFile(filepath.Dir(path)))
	assert.False(t, IsLocalFile(filepath.Join(filepath.Dir(path), "missing.png")))
	assert.False(t, IsLocalFile("https://cdn.example.com/photo.png"))
	assert.False(t, IsLocalFile(""))
}

func TestIsRemoteURL(t *testing.T) {
	assert.True(t, IsRemoteURL("https://cdn.example.com/a.jpg"))
	assert.True(t, IsRemoteURL("HTTP://cdn.example.com/a.jpg"))
	assert.False(t, IsRemoteURL("/var/uploads/a.jpg"))
}

func TestStagedFileName(t *testing.T) {
	a, err := StagedFileName("Holiday Photo.JPG")
	require.NoError(t, err)
	b, err := StagedFileName("Holiday Photo.JPG")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasSuffix(a, ".jpg"))

	c, err := StagedFileName("../../etc/passwd")
	require.NoError(t, err)
	assert.NotContains(t, c, "/")
	assert.NotContains(t, c, ".")
}
