package assets

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
)

func writeTestPNG(t *testing.T, path string, width, height int) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	assert.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))

	f, err := os.Create(path)
	assert.NoError(t, err)
	defer f.Close()

	assert.NoError(t, png.Encode(f, img))
}

func decodeSize(t *testing.T, data []byte) (int, int) {
	t.Helper()

	img, err := imaging.Decode(bytes.NewReader(data))
	assert.NoError(t, err)
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestPathsAndMissing(t *testing.T) {
	root := t.TempDir()
	lib := NewLibrary(root)

	writeTestPNG(t, filepath.Join(root, PosterFolder, "003.png"), 200, 300)

	path, ok := lib.PosterPath(3)
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(root, PosterFolder, "003.png"), path)

	_, ok = lib.PosterPath(4)
	assert.False(t, ok)

	assert.False(t, lib.MissingPoster(3))
	assert.True(t, lib.MissingPoster(4))
	assert.True(t, lib.MissingPortrait(3))
	assert.True(t, lib.MissingQRCode(3))
}

func TestPosterPNGScalesToWidth(t *testing.T) {
	root := t.TempDir()
	lib := NewLibrary(root)

	writeTestPNG(t, filepath.Join(root, PosterFolder, "001.png"), 400, 600)

	data, err := lib.PosterPNG(1, 100)
	assert.NoError(t, err)

	w, h := decodeSize(t, data)
	assert.Equal(t, 100, w)
	assert.Equal(t, 150, h, "aspect ratio is preserved")
}

func TestPortraitPNGScalesToHeight(t *testing.T) {
	root := t.TempDir()
	lib := NewLibrary(root)

	writeTestPNG(t, filepath.Join(root, PortraitFolder, "001.png"), 100, 200)

	data, err := lib.PortraitPNG(1, 50)
	assert.NoError(t, err)

	_, h := decodeSize(t, data)
	assert.Equal(t, 50, h)
}

func TestFallbackNeverFails(t *testing.T) {
	lib := NewLibrary(t.TempDir())

	data, err := lib.PosterPNG(42, 120)
	assert.NoError(t, err, "missing material resolves to fallback")
	w, _ := decodeSize(t, data)
	assert.Equal(t, 120, w)

	data, err = lib.QRCodePNG(42, 64)
	assert.NoError(t, err)
	_, h := decodeSize(t, data)
	assert.Equal(t, 64, h)
}

func TestScaledPNGCached(t *testing.T) {
	root := t.TempDir()
	lib := NewLibrary(root)

	path := filepath.Join(root, PosterFolder, "001.png")
	writeTestPNG(t, path, 400, 600)

	first, err := lib.PosterPNG(1, 100)
	assert.NoError(t, err)

	// Once cached, the file on disk no longer matters.
	assert.NoError(t, os.Remove(path))

	second, err := lib.scaledPNG(path, 100, 0)
	assert.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestWritePlaceholders(t *testing.T) {
	root := t.TempDir()
	folder := filepath.Join(root, PosterFolder)

	assert.NoError(t, WritePlaceholders(folder, []int{1, 2}, 120, 160))

	// The library must resolve what the generator wrote.
	lib := NewLibrary(root)
	for _, id := range []int{1, 2} {
		path, ok := lib.PosterPath(id)
		assert.True(t, ok, path)
	}

	// Existing files are kept.
	info1, err := os.Stat(filepath.Join(folder, "001.png"))
	if !assert.NoError(t, err) {
		return
	}
	assert.NoError(t, WritePlaceholders(folder, []int{1}, 120, 160))

	info2, err := os.Stat(filepath.Join(folder, "001.png"))
	if !assert.NoError(t, err) {
		return
	}
	assert.Equal(t, info1.ModTime(), info2.ModTime())
}
