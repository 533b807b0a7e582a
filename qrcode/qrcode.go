// Package qrcode generates the QR codes pointing at the poster pages of
// the conference management system.
package qrcode

import (
	"os"

	qr "github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

// Generate writes a QR code for the given data. An existing file is left
// alone unless overwrite is set, so regenerating the whole batch is cheap.
func Generate(data, path string, size int, overwrite bool) error {
	if _, err := os.Stat(path); err == nil && !overwrite {
		zap.L().Debug("qrcode exists, skipping", zap.String("path", path))
		return nil
	}

	if size <= 0 {
		size = 256
	}

	return qr.WriteFile(data, qr.Medium, size, path)
}
