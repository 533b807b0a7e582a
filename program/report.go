package program

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// AssetChecker reports whether the image material for a poster is present
// on disk. Implemented by the asset library.
type AssetChecker interface {
	MissingPoster(friendlyID int) bool
	MissingPortrait(friendlyID int) bool
	MissingQRCode(friendlyID int) bool
}

// SessionStats summarizes the screen assignment of one session.
type SessionStats struct {
	Session    *Session    `json:"session"`
	Posters    int         `json:"posters"`
	Screens    int         `json:"screens"`
	ScreenLoad map[int]int `json:"screen_load"`
	MinLoad    int         `json:"min_load"`
	MaxLoad    int         `json:"max_load"`
	MeanLoad   float64     `json:"mean_load"`
}

// Report is a diagnostic summary of the program: per-session screen
// multiplicity and the material that is still missing on disk.
type Report struct {
	Sessions []*SessionStats `json:"sessions"`

	Posters   int `json:"posters"`
	Portraits int `json:"portraits"`
	QRCodes   int `json:"qrcodes"`

	MissingPosters   int `json:"missing_posters"`
	MissingPortraits int `json:"missing_portraits"`
	MissingQRCodes   int `json:"missing_qrcodes"`

	// Orphans are posters present on disk whose presenter picture is not.
	Orphans    []*Poster `json:"orphans"`
	NoMaterial []*Poster `json:"no_material"`
}

// BuildReport walks the whole program and checks every poster against the
// asset library.
func BuildReport(sessions []*Session, postersBySession map[int][]*Poster, assets AssetChecker) *Report {
	report := &Report{}
	for _, session := range sessions {
		posters := postersBySession[session.ID]

		stats := &SessionStats{
			Session:    session,
			Posters:    len(posters),
			ScreenLoad: make(map[int]int),
		}
		for _, poster := range posters {
			stats.ScreenLoad[poster.ScreenID]++
		}
		stats.Screens = len(stats.ScreenLoad)
		for _, n := range stats.ScreenLoad {
			if stats.MinLoad == 0 || n < stats.MinLoad {
				stats.MinLoad = n
			}
			if n > stats.MaxLoad {
				stats.MaxLoad = n
			}
		}
		if stats.Screens > 0 {
			stats.MeanLoad = float64(stats.Posters) / float64(stats.Screens)
		}
		report.Sessions = append(report.Sessions, stats)

		for _, poster := range posters {
			posterMissing := assets.MissingPoster(poster.FriendlyID)
			if posterMissing {
				report.MissingPosters++
				report.NoMaterial = append(report.NoMaterial, poster)
			} else {
				report.Posters++
			}
			if assets.MissingPortrait(poster.FriendlyID) {
				report.MissingPortraits++
				if !posterMissing {
					report.Orphans = append(report.Orphans, poster)
				}
			} else {
				report.Portraits++
			}
			if assets.MissingQRCode(poster.FriendlyID) {
				report.MissingQRCodes++
			} else {
				report.QRCodes++
			}
		}
	}
	return report
}

// Log dumps the report through the given logger.
func (r *Report) Log(log *zap.Logger) {
	for _, stats := range r.Sessions {
		screens := make([]int, 0, len(stats.ScreenLoad))
		for id := range stats.ScreenLoad {
			screens = append(screens, id)
		}
		sort.Ints(screens)

		log.Info(stats.Session.String(),
			zap.Int("posters", stats.Posters),
			zap.Int("screens", stats.Screens),
			zap.String("load", fmt.Sprintf("%d--%d (average %.2f)", stats.MinLoad, stats.MaxLoad, stats.MeanLoad)),
			zap.Ints("screen_ids", screens),
		)
	}
	log.Info("program material",
		zap.Int("posters", r.Posters),
		zap.Int("portraits", r.Portraits),
		zap.Int("qrcodes", r.QRCodes),
	)
	log.Info("missing material",
		zap.Int("posters", r.MissingPosters),
		zap.Int("portraits", r.MissingPortraits),
		zap.Int("qrcodes", r.MissingQRCodes),
	)
	for _, poster := range r.Orphans {
		log.Warn("poster with no presenter picture", zap.String("poster", poster.String()))
	}
	for _, poster := range r.NoMaterial {
		log.Warn("missing poster", zap.String("poster", poster.String()))
	}
}
