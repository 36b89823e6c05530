package utils

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSupportedImage(t *testing.T) {
	assert.True(t, IsSupportedImage("a.jpg"))
	assert.True(t, IsSupportedImage("a.JPEG"))
	assert.True(t, IsSupportedImage("a.png"))
	assert.True(t, IsSupportedImage("a.bmp"))
	assert.False(t, IsSupportedImage("a.tiff"))
	assert.False(t, IsSupportedImage("a.pdf"))
	assert.False(t, IsSupportedImage("noext"))
}

func TestSaveAndLoadImage_PNG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 32, 16))
	img.Set(3, 4, color.RGBA{200, 100, 50, 255})
	path := filepath.Join(t.TempDir(), "out.png")

	require.NoError(t, SaveImage(img, path))

	loaded, meta, err := LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, 32, meta.Width)
	assert.Equal(t, 16, meta.Height)
	assert.Equal(t, "png", meta.Format)
	assert.Positive(t, meta.SizeBytes)
	assert.Equal(t, 32, loaded.Bounds().Dx())
}

func TestSaveAndLoadImage_JPEG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	path := filepath.Join(t.TempDir(), "out.jpg")

	require.NoError(t, SaveImage(img, path))

	_, meta, err := LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", meta.Format)
}

func TestSaveImage_CreatesDirectories(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	path := filepath.Join(t.TempDir(), "deep", "nested", "out.png")

	require.NoError(t, SaveImage(img, path))
	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestSaveImage_NilImage(t *testing.T) {
	err := SaveImage(nil, filepath.Join(t.TempDir(), "out.png"))
	assert.Error(t, err)
}

func TestLoadImage_Missing(t *testing.T) {
	_, _, err := LoadImage(filepath.Join(t.TempDir(), "missing.png"))
	require.Error(t, err)

	var ipErr *ImageProcessingError
	assert.True(t, errors.As(err, &ipErr))
	assert.Equal(t, "load", ipErr.Operation)
}

func TestLoadImage_UnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.tiff")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o600))

	_, _, err := LoadImage(path)
	assert.Error(t, err)
}

func TestLoadImage_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.png")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o600))

	_, _, err := LoadImage(path)
	require.Error(t, err)

	var ipErr *ImageProcessingError
	require.True(t, errors.As(err, &ipErr))
	assert.Equal(t, "decode", ipErr.Operation)
}

func TestListImageFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.png", "a.jpg", "notes.txt", "c.bmp"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.png"), 0o750))

	paths, err := ListImageFiles(dir)
	require.NoError(t, err)
	require.Len(t, paths, 3)
	assert.Equal(t, filepath.Join(dir, "a.jpg"), paths[0])
	assert.Equal(t, filepath.Join(dir, "b.png"), paths[1])
	assert.Equal(t, filepath.Join(dir, "c.bmp"), paths[2])
}

func TestListImageFiles_MissingDir(t *testing.T) {
	_, err := ListImageFiles(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
