package program

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const ProgramSheet = "Program"

var (
	programColumns = []string{"Session ID", "Session Name", "Start Date", "End Date"}
	sessionColumns = []string{"Friendly ID", "DB ID", "Screen ID", "Title", "First Name", "Last Name", "Affiliation"}
)

// Workbook is the in-memory image of the spreadsheet configuration: the
// session program plus the posters of each session sheet.
type Workbook struct {
	Sessions []*Session
	Posters  map[int][]*Poster
}

// LoadWorkbook reads the whole program from the excel configuration file.
//
// The first sheet ("Program") holds one row per session; each session then
// has its own sheet, named after the session ID. A session sheet that is
// missing or malformed costs a warning, not an error, so that a partially
// filled workbook still produces a usable program.
func LoadWorkbook(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(ProgramSheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", ProgramSheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", ProgramSheet)
	}

	wb := &Workbook{
		Posters: make(map[int][]*Poster),
	}

	cols := columnIndex(rows[0])
	for _, row := range rows[1:] {
		session, err := sessionFromRow(row, cols)
		if err != nil {
			zap.L().Warn("skipping program row", zap.Error(err))
			continue
		}
		wb.Sessions = append(wb.Sessions, session)
	}

	for _, session := range wb.Sessions {
		posters, err := loadSessionSheet(f, session.ID)
		if err != nil {
			zap.L().Warn("session data not available",
				zap.Int("session_id", session.ID),
				zap.Error(err),
			)
			continue
		}
		for i, poster := range posters {
			poster.SessionID = session.ID
			poster.SessionIndex = i
		}
		wb.Posters[session.ID] = posters
	}

	index := 0
	for _, session := range wb.Sessions {
		for _, poster := range wb.Posters[session.ID] {
			poster.ProgramIndex = index
			index++
		}
	}

	return wb, nil
}

func loadSessionSheet(f *excelize.File, sessionID int) ([]*Poster, error) {
	sheet := strconv.Itoa(sessionID)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheet)
	}

	cols := columnIndex(rows[0])
	posters := make([]*Poster, 0, len(rows)-1)
	for _, row := range rows[1:] {
		poster, err := posterFromRow(row, cols)
		if err != nil {
			zap.L().Warn("skipping poster row",
				zap.String("sheet", sheet),
				zap.Error(err),
			)
			continue
		}
		posters = append(posters, poster)
	}
	return posters, nil
}

func sessionFromRow(row []string, cols map[string]int) (*Session, error) {
	id, err := intCell(row, cols, "Session ID")
	if err != nil {
		return nil, err
	}

	session := &Session{
		ID:    id,
		Title: cell(row, cols, "Session Name"),
	}

	// Invalid bounds are logged and left at the zero value, which makes the
	// session never ongoing.
	if session.Start, err = ParseSessionTime(cell(row, cols, "Start Date")); err != nil {
		zap.L().Warn("invalid session start", zap.Int("session_id", id), zap.Error(err))
	}
	if session.End, err = ParseSessionTime(cell(row, cols, "End Date")); err != nil {
		zap.L().Warn("invalid session end", zap.Int("session_id", id), zap.Error(err))
	}
	return session, nil
}

func posterFromRow(row []string, cols map[string]int) (*Poster, error) {
	friendlyID, err := intCell(row, cols, "Friendly ID")
	if err != nil {
		return nil, err
	}
	dbID, err := intCell(row, cols, "DB ID")
	if err != nil {
		return nil, err
	}
	screenID, err := intCell(row, cols, "Screen ID")
	if err != nil {
		return nil, err
	}

	return &Poster{
		FriendlyID: friendlyID,
		DBID:       dbID,
		ScreenID:   screenID,
		Title:      cell(row, cols, "Title"),
		Presenter: Presenter{
			FirstName:   cell(row, cols, "First Name"),
			LastName:    cell(row, cols, "Last Name"),
			Affiliation: cell(row, cols, "Affiliation"),
		},
	}, nil
}

func columnIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	return cols
}

func cell(row []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func intCell(row []string, cols map[string]int, name string) (int, error) {
	text := cell(row, cols, name)
	if text == "" {
		return 0, fmt.Errorf("missing %q", name)
	}
	// Excel numeric cells may come back as floats ("12.0").
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %q: %w", name, err)
	}
	return int(value), nil
}

// WriteWorkbook dumps a program to the excel configuration format, one
// sheet per session. The inverse of LoadWorkbook, used by the conference
// importer and the tests.
func WriteWorkbook(path string, wb *Workbook) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", ProgramSheet)

	rows := [][]any{anySlice(programColumns)}
	for _, session := range wb.Sessions {
		rows = append(rows, []any{
			session.ID,
			session.Title,
			formatSessionTime(session.Start),
			formatSessionTime(session.End),
		})
	}
	if err := writeRows(f, ProgramSheet, rows); err != nil {
		return err
	}

	for _, session := range wb.Sessions {
		sheet := strconv.Itoa(session.ID)
		if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
		rows := [][]any{anySlice(sessionColumns)}
		for _, poster := range wb.Posters[session.ID] {
			rows = append(rows, []any{
				poster.FriendlyID,
				poster.DBID,
				poster.ScreenID,
				poster.Title,
				poster.Presenter.FirstName,
				poster.Presenter.LastName,
				poster.Presenter.Affiliation,
			})
		}
		if err := writeRows(f, sheet, rows); err != nil {
			return err
		}
	}

	return f.SaveAs(path)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func anySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func formatSessionTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateTimeLayout)
}
