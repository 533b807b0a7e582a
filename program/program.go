package program

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	DateLayout       = "02/01/2006"
	DateTimeLayout   = "02/01/2006 15:04"
	DatePrettyLayout = "Monday, January 2, 2006"
)

// Presenter identifies the person standing next to a poster.
type Presenter struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Affiliation string `json:"affiliation"`
}

func (p Presenter) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

func (p Presenter) String() string {
	return fmt.Sprintf("%s (%s)", p.FullName(), p.Affiliation)
}

// Poster describes a single contribution of the poster program.
//
// FriendlyID is the human-readable identifier assigned by the conference
// management system, and the one all image files are named after. DBID is
// the internal identifier, which is needed to retrieve the material online.
// ScreenID is the screen the poster is assigned to.
type Poster struct {
	FriendlyID int       `json:"friendly_id"`
	DBID       int       `json:"db_id"`
	ScreenID   int       `json:"screen_id"`
	Title      string    `json:"title"`
	Presenter  Presenter `json:"presenter"`

	SessionID    int `json:"session_id"`
	SessionIndex int `json:"session_index"`
	ProgramIndex int `json:"program_index"`
}

// ImageName returns the file name shared by all the pixmaps for the poster.
// Posters, portraits and QR codes share the same name and live in
// different folders.
func (p *Poster) ImageName() string {
	return ImageName(p.FriendlyID)
}

func ImageName(friendlyID int) string {
	return fmt.Sprintf("%03d.png", friendlyID)
}

// ShortTitle trims the title to a maximum number of characters,
// adding an ellipsis when truncation happens. Counts runes, as titles
// are frequently non-ASCII.
func (p *Poster) ShortTitle(maxChars int) string {
	runes := []rune(p.Title)
	if len(runes) <= maxChars {
		return p.Title
	}
	if maxChars <= 3 {
		return string(runes[:maxChars])
	}
	return string(runes[:maxChars-3]) + "..."
}

func (p *Poster) String() string {
	return fmt.Sprintf("[%03d] %s (%s)", p.FriendlyID, p.ShortTitle(40), p.Presenter.FullName())
}

// Session is a poster session, i.e., a time window during which a set of
// posters is on display.
type Session struct {
	ID    int       `json:"id"`
	Title string    `json:"title"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Ongoing returns true if the session is ongoing at the given time.
// Note the window is closed at the start and open at the end, and that a
// session with invalid (zero) bounds is never ongoing.
func (s *Session) Ongoing(t time.Time) bool {
	if s.Start.IsZero() || s.End.IsZero() {
		return false
	}
	return !t.Before(s.Start) && t.Before(s.End)
}

func (s *Session) String() string {
	return fmt.Sprintf("session %d (%s)", s.ID, s.Title)
}

// Roster is the ordered list of posters a given screen cycles through
// during an ongoing session.
type Roster struct {
	ScreenID int       `json:"screen_id"`
	Session  *Session  `json:"session,omitempty"`
	Posters  []*Poster `json:"posters"`
}

func (r *Roster) Len() int {
	return len(r.Posters)
}

// BuildRoster assembles the roster for a screen from all the sessions
// ongoing at the given time. Posters from parallel sessions are merged and
// sorted by friendly ID; the roster session is the one contributing the
// posters for this screen (sessions are not mixed within a screen).
func BuildRoster(sessions []*Session, postersBySession map[int][]*Poster, screenID int, at time.Time) *Roster {
	roster := &Roster{ScreenID: screenID}
	for _, session := range sessions {
		if !session.Ongoing(at) {
			continue
		}
		for _, poster := range postersBySession[session.ID] {
			if poster.ScreenID != screenID {
				continue
			}
			roster.Posters = append(roster.Posters, poster)
			if roster.Session == nil {
				roster.Session = session
			}
		}
	}
	sort.Slice(roster.Posters, func(i, j int) bool {
		return roster.Posters[i].FriendlyID < roster.Posters[j].FriendlyID
	})
	return roster
}

// ParseSessionTime parses a session bound in the spreadsheet datetime
// format. An empty string is not an error and yields a zero time, which in
// turn makes the session never ongoing.
func ParseSessionTime(text string) (time.Time, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(DateTimeLayout, text, time.Local)
}
