package indico

import (
	"encoding/json"
	"errors"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/confmeet/posterwall/program"
)

// SessionFilter selects sessions of interest from the export,
// in display order, optionally renaming them.
type SessionFilter struct {
	ID    int
	Title string // replaces the export title when non-empty
}

// ConferenceInfo is the retrieved conference program, restricted to the
// poster sessions selected by the filter.
type ConferenceInfo struct {
	Sessions []*Session
	Orphans  []Contribution

	log *zap.Logger
}

// LoadInfo reads a saved export and keeps the sessions selected by the
// filter, in filter order. Contributions outside any selected session
// are collected as orphans.
func LoadInfo(path string, filter []SessionFilter) (*ConferenceInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var e export
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}

	if len(e.Results) == 0 {
		return nil, errors.New("export holds no results")
	}

	result := e.Results[0]

	log := zap.L().With(
		zap.String("package", "indico"),
	)

	info := &ConferenceInfo{log: log}

	byID := make(map[int]*Session)
	for _, s := range result.Sessions {
		byID[s.ID] = s
	}

	if len(filter) == 0 {
		info.Sessions = result.Sessions
	} else {
		for _, f := range filter {
			s, ok := byID[f.ID]
			if !ok {
				log.Warn("session missing from export", zap.Int("session_id", f.ID))
				continue
			}

			if f.Title != "" {
				s.Title = f.Title
			}

			info.Sessions = append(info.Sessions, s)
		}
	}

	info.Orphans = result.Contributions
	for _, c := range info.Orphans {
		log.Warn("contribution outside selected sessions",
			zap.Int("friendly_id", c.FriendlyID),
			zap.String("title", c.Title),
		)
	}

	return info, nil
}

// ContributionIDs lists the friendly IDs of every contribution in the
// selected sessions.
func (info *ConferenceInfo) ContributionIDs() []int {
	var ids []int
	for _, s := range info.Sessions {
		for _, c := range s.Contributions {
			ids = append(ids, c.FriendlyID)
		}
	}

	return ids
}

// Workbook converts the conference info into a program workbook.
//
// Session times from the export mark the posters' presentation slot,
// not their display window. They are widened so a morning session is
// shown from midnight until the afternoon session takes over at 15:00,
// and an afternoon session until the end of the day.
func (info *ConferenceInfo) Workbook() *program.Workbook {
	wb := &program.Workbook{
		Posters: make(map[int][]*program.Poster),
	}

	programIndex := 0
	for _, s := range info.Sessions {
		session := &program.Session{
			ID:    s.ID,
			Title: s.Title,
		}

		if t, err := s.StartDate.Parse(); err != nil {
			info.log.Warn("invalid session start",
				zap.Int("session_id", s.ID),
				zap.Error(err),
			)
		} else {
			session.Start = widenStart(t)
		}

		if t, err := s.EndDate.Parse(); err != nil {
			info.log.Warn("invalid session end",
				zap.Int("session_id", s.ID),
				zap.Error(err),
			)
		} else {
			session.End = widenEnd(t)
		}

		wb.Sessions = append(wb.Sessions, session)

		for i, c := range s.Contributions {
			poster := &program.Poster{
				FriendlyID:   c.FriendlyID,
				DBID:         c.DBID,
				ScreenID:     i%20 + 1, // placeholder until screens are assigned
				Title:        c.Title,
				SessionID:    s.ID,
				SessionIndex: i,
				ProgramIndex: programIndex,
			}

			if len(c.Speakers) > 0 {
				sp := c.Speakers[0]
				poster.Presenter = program.Presenter{
					FirstName:   sp.FirstName,
					LastName:    sp.LastName,
					Affiliation: sp.Affiliation,
				}
			} else {
				info.log.Warn("contribution without speaker",
					zap.Int("friendly_id", c.FriendlyID),
				)
			}

			wb.Posters[s.ID] = append(wb.Posters[s.ID], poster)
			programIndex++
		}
	}

	return wb
}

// DumpExcel writes the conference program as a workbook file readable
// by the program loader.
func (info *ConferenceInfo) DumpExcel(path string) error {
	return program.WriteWorkbook(path, info.Workbook())
}

func widenStart(t time.Time) time.Time {
	if t.Hour() < 13 {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 1, 0, 0, t.Location())
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 15, 0, 0, 0, t.Location())
}

func widenEnd(t time.Time) time.Time {
	if t.Hour() < 13 {
		return time.Date(t.Year(), t.Month(), t.Day(), 15, 0, 0, 0, t.Location())
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 0, 0, t.Location())
}

// QRCodeData is the payload encoded in a poster's QR code, pointing
// at the contribution page of the conference site.
func QRCodeData(c Contribution) string {
	if c.URL != "" {
		return c.URL
	}
	return strconv.Itoa(c.FriendlyID)
}
