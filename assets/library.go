package assets

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/confmeet/posterwall/program"
)

const (
	PosterFolder   = "posters_raster"
	PortraitFolder = "presenters_crop"
	QRCodeFolder   = "qrcodes"
	DownloadFolder = "posters_download"
)

// Library resolves the image material for a poster program.
//
// All the pixmaps for a given poster share the same file name (e.g.,
// 003.png) and live in different folders under the program root. A file
// that is missing on disk resolves to a generated fallback, so that lookup
// never fails and the slideshow always has something to put on the screen.
//
// Decoded and scaled images are cached, as rescaling a full-resolution
// poster is by far the most expensive operation on the target hardware.
type Library struct {
	root  string
	cache *cache.Cache
}

func NewLibrary(root string) *Library {
	return &Library{
		root:  root,
		cache: cache.New(30*time.Minute, 10*time.Minute),
	}
}

func (lib *Library) PosterPath(friendlyID int) (string, bool) {
	return lib.path(PosterFolder, friendlyID)
}

func (lib *Library) PortraitPath(friendlyID int) (string, bool) {
	return lib.path(PortraitFolder, friendlyID)
}

func (lib *Library) QRCodePath(friendlyID int) (string, bool) {
	return lib.path(QRCodeFolder, friendlyID)
}

func (lib *Library) QRCodeFolderPath() string {
	return filepath.Join(lib.root, QRCodeFolder)
}

func (lib *Library) path(folder string, friendlyID int) (string, bool) {
	path := filepath.Join(lib.root, folder, program.ImageName(friendlyID))
	if _, err := os.Stat(path); err != nil {
		return path, false
	}
	return path, true
}

func (lib *Library) MissingPoster(friendlyID int) bool {
	_, ok := lib.PosterPath(friendlyID)
	return !ok
}

func (lib *Library) MissingPortrait(friendlyID int) bool {
	_, ok := lib.PortraitPath(friendlyID)
	return !ok
}

func (lib *Library) MissingQRCode(friendlyID int) bool {
	_, ok := lib.QRCodePath(friendlyID)
	return !ok
}

// PosterPNG returns the poster image scaled to the given width, encoded
// as PNG.
func (lib *Library) PosterPNG(friendlyID int, width int) ([]byte, error) {
	path, ok := lib.PosterPath(friendlyID)
	if !ok {
		zap.L().Warn("poster image not found", zap.String("path", path))
		return lib.fallbackPNG("poster", width, 0)
	}
	return lib.scaledPNG(path, width, 0)
}

// PortraitPNG returns the presenter portrait scaled to the given height.
func (lib *Library) PortraitPNG(friendlyID int, height int) ([]byte, error) {
	path, ok := lib.PortraitPath(friendlyID)
	if !ok {
		zap.L().Warn("portrait image not found", zap.String("path", path))
		return lib.fallbackPNG("portrait", 0, height)
	}
	return lib.scaledPNG(path, 0, height)
}

// QRCodePNG returns the poster QR code scaled to the given height.
func (lib *Library) QRCodePNG(friendlyID int, height int) ([]byte, error) {
	path, ok := lib.QRCodePath(friendlyID)
	if !ok {
		zap.L().Warn("qrcode image not found", zap.String("path", path))
		return lib.fallbackPNG("qrcode", 0, height)
	}
	return lib.scaledPNG(path, 0, height)
}

// FallbackPosterPNG is the poster shown when a screen has no roster.
func (lib *Library) FallbackPosterPNG(width int) ([]byte, error) {
	return lib.fallbackPNG("poster", width, 0)
}

// Preload warms the cache with all the material of a roster, so that the
// slideshow never decodes on the advance path.
func (lib *Library) Preload(roster *program.Roster, posterWidth, portraitHeight int) {
	for _, poster := range roster.Posters {
		if _, err := lib.PosterPNG(poster.FriendlyID, posterWidth); err != nil {
			zap.L().Warn("preload failed",
				zap.Int("poster", poster.FriendlyID),
				zap.Error(err),
			)
		}
		lib.PortraitPNG(poster.FriendlyID, portraitHeight)
		lib.QRCodePNG(poster.FriendlyID, portraitHeight)
	}
}

func (lib *Library) scaledPNG(path string, width, height int) ([]byte, error) {
	key := fmt.Sprintf("%s:%dx%d", path, width, height)
	if data, ok := lib.cache.Get(key); ok {
		return data.([]byte), nil
	}

	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image %s: %w", path, err)
	}

	data, err := encodePNG(scale(img, width, height))
	if err != nil {
		return nil, err
	}

	lib.cache.SetDefault(key, data)
	return data, nil
}

func (lib *Library) fallbackPNG(kind string, width, height int) ([]byte, error) {
	key := fmt.Sprintf("fallback:%s:%dx%d", kind, width, height)
	if data, ok := lib.cache.Get(key); ok {
		return data.([]byte), nil
	}

	w, h := width, height
	if w == 0 {
		w = height
	}
	if h == 0 {
		h = width * 4 / 3
	}

	data, err := encodePNG(Placeholder(w, h, "no material", kind))
	if err != nil {
		return nil, err
	}

	lib.cache.SetDefault(key, data)
	return data, nil
}

func scale(img image.Image, width, height int) image.Image {
	bounds := img.Bounds()
	if width > 0 && bounds.Dx() == width {
		return img
	}
	if height > 0 && bounds.Dy() == height {
		return img
	}
	return imaging.Resize(img, width, height, imaging.Lanczos)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
