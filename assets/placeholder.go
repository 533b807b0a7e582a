package assets

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/confmeet/posterwall/program"
)

var placeholderPalette = []color.RGBA{
	{R: 0x2f, G: 0x6f, B: 0xa7, A: 0xff},
	{R: 0xa7, G: 0x4f, B: 0x2f, A: 0xff},
	{R: 0x3f, G: 0x8f, B: 0x4f, A: 0xff},
	{R: 0x8f, G: 0x3f, B: 0x7f, A: 0xff},
}

// Placeholder draws a synthetic poster with the two text lines centered
// on a colored canvas. Used for fleet rehearsal before the real material
// is available, and as the fallback for missing images.
func Placeholder(width, height int, title, subtitle string) image.Image {
	bg := placeholderPalette[(len(title)+len(subtitle))%len(placeholderPalette)]

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)

	border := image.Rect(10, 10, width-10, height-10)
	draw.Draw(img, border, &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	drawCenteredText(img, title, height/2-10, bg)
	drawCenteredText(img, subtitle, height/2+14, bg)

	return img
}

func drawCenteredText(img *image.RGBA, text string, y int, c color.Color) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot: fixed.P(
			(img.Bounds().Dx()-width)/2,
			y,
		),
	}
	d.DrawString(text)
}

// WritePlaceholders fills the given poster folder with synthetic posters
// for the given friendly IDs, skipping files that already exist.
func WritePlaceholders(folder string, friendlyIDs []int, width, height int) error {
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return err
	}

	for _, id := range friendlyIDs {
		path := filepath.Join(folder, program.ImageName(id))
		if _, err := os.Stat(path); err == nil {
			continue
		}

		img := Placeholder(width, height,
			fmt.Sprintf("poster %03d", id),
			"placeholder",
		)
		if err := imaging.Save(img, path); err != nil {
			return fmt.Errorf("save placeholder %s: %w", path, err)
		}
	}
	return nil
}
