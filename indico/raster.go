package indico

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/confmeet/posterwall/program"
)

// RasterizePosters converts the downloaded attachments into the display
// format: <srcDir>/NNN-<name>.png|jpg|jpeg is re-encoded as
// <dstDir>/NNN.png, which is where the asset library looks. PDF
// attachments cannot be rendered here; they are reported so they can be
// rasterized with an external tool (pdftoppm) before the event.
func RasterizePosters(srcDir, dstDir string, overwrite bool) error {
	log := zap.L().With(
		zap.String("package", "indico"),
	)

	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return err
	}

	for _, e := range entries {
		name := e.Name()
		id, ok := attachmentFriendlyID(name)
		if !ok {
			continue
		}

		target := filepath.Join(dstDir, program.ImageName(id))

		switch strings.ToLower(filepath.Ext(name)) {
		case ".png", ".jpg", ".jpeg":
			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					continue
				}
			}

			img, err := imaging.Open(filepath.Join(srcDir, name))
			if err != nil {
				log.Error("attachment not decodable",
					zap.String("file", name),
					zap.Error(err),
				)
				continue
			}

			if err := imaging.Save(img, target); err != nil {
				return err
			}

			log.Info("poster rasterized",
				zap.String("file", name),
				zap.String("target", target),
			)

		case ".pdf":
			log.Warn("pdf attachment needs external rasterization",
				zap.String("file", name),
				zap.String("hint", "pdftoppm -png -singlefile"),
			)
		}
	}

	return nil
}

// attachmentFriendlyID parses the leading friendly ID of a downloaded
// attachment name (e.g. 007-poster.png).
func attachmentFriendlyID(name string) (int, bool) {
	prefix, _, found := strings.Cut(name, "-")
	if !found {
		return 0, false
	}

	id, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, false
	}

	return id, true
}
