package indico

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/confmeet/posterwall/qrcode"
)

var posterExtensions = map[string]bool{
	".pdf":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// DownloadAttachments fetches the poster files attached to each
// contribution into dir, named <friendly ID>-<attachment name> so a
// contribution with several attachments keeps them all. A sidecar
// .tstamp file records the export's modification stamp so unchanged
// attachments are skipped on re-runs. With dryRun set nothing is
// written; the planned downloads are only logged.
func (info *ConferenceInfo) DownloadAttachments(dir string, concurrency int, dryRun bool) error {
	if !dryRun {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	if concurrency < 1 {
		concurrency = 4
	}

	client := &http.Client{Timeout: 5 * time.Minute}

	g := new(errgroup.Group)
	g.SetLimit(concurrency)

	for _, s := range info.Sessions {
		for _, c := range s.Contributions {
			c := c
			g.Go(func() error {
				return info.downloadContribution(client, dir, c, dryRun)
			})
		}
	}

	return g.Wait()
}

func (info *ConferenceInfo) downloadContribution(client *http.Client, dir string, c Contribution, dryRun bool) error {
	for _, folder := range c.Folders {
		for _, a := range folder.Attachments {
			ext := strings.ToLower(path.Ext(a.DownloadURL))
			if !posterExtensions[ext] {
				continue
			}

			name := fmt.Sprintf("%03d-%s", c.FriendlyID, path.Base(a.DownloadURL))
			target := filepath.Join(dir, name)
			stamp := target + ".tstamp"

			if unchanged(stamp, a.ModifiedDT) {
				info.log.Debug("attachment up to date",
					zap.String("file", name),
				)
				continue
			}

			if dryRun {
				info.log.Info("would download",
					zap.String("file", name),
					zap.String("url", a.DownloadURL),
				)
				continue
			}

			if err := download(client, a.DownloadURL, target); err != nil {
				info.log.Error("attachment download failed",
					zap.Int("friendly_id", c.FriendlyID),
					zap.String("url", a.DownloadURL),
					zap.Error(err),
				)
				return err
			}

			if err := os.WriteFile(stamp, []byte(a.ModifiedDT), 0o644); err != nil {
				return err
			}

			info.log.Info("attachment downloaded",
				zap.String("file", name),
			)
		}
	}

	return nil
}

func unchanged(stamp, modified string) bool {
	data, err := os.ReadFile(stamp)
	if err != nil {
		return false
	}
	return string(data) == modified
}

func download(client *http.Client, url, target string) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed: %s", resp.Status)
	}

	f, err := os.Create(target)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(f, resp.Body)
	return err
}

// GenerateQRCodes renders one QR code per contribution into dir,
// named after the contribution's friendly ID.
func (info *ConferenceInfo) GenerateQRCodes(dir string, size int, overwrite bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	for _, s := range info.Sessions {
		for _, c := range s.Contributions {
			name := fmt.Sprintf("%03d.png", c.FriendlyID)
			target := filepath.Join(dir, name)

			if err := qrcode.Generate(QRCodeData(c), target, size, overwrite); err != nil {
				return err
			}
		}
	}

	return nil
}
