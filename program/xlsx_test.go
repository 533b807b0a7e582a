package program

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/xuri/excelize/v2"
)

func testWorkbook(t *testing.T) *Workbook {
	t.Helper()

	start, err := time.ParseInLocation(DateTimeLayout, "28/05/2026 09:00", time.Local)
	assert.NoError(t, err)

	return &Workbook{
		Sessions: []*Session{
			{ID: 101, Title: "Morning Posters", Start: start, End: start.Add(4 * time.Hour)},
			{ID: 102, Title: "Afternoon Posters"},
		},
		Posters: map[int][]*Poster{
			101: {
				{
					FriendlyID: 1, DBID: 9001, ScreenID: 1,
					Title: "Displaying posters at scale",
					Presenter: Presenter{
						FirstName:   "Ada",
						LastName:    "Lovelace",
						Affiliation: "Analytical Engines Ltd",
					},
					SessionID: 101, SessionIndex: 0, ProgramIndex: 0,
				},
				{
					FriendlyID: 2, DBID: 9002, ScreenID: 2,
					Title: "Kiosk fleets on a budget",
					Presenter: Presenter{
						FirstName:   "Alan",
						LastName:    "Turing",
						Affiliation: "NPL",
					},
					SessionID: 101, SessionIndex: 1, ProgramIndex: 1,
				},
			},
			102: {},
		},
	}
}

func TestWorkbookRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "program.xlsx")
	wb := testWorkbook(t)

	assert.NoError(t, WriteWorkbook(path, wb))

	loaded, err := LoadWorkbook(path)
	assert.NoError(t, err)

	if assert.Len(t, loaded.Sessions, 2) {
		assert.Equal(t, 101, loaded.Sessions[0].ID)
		assert.Equal(t, "Morning Posters", loaded.Sessions[0].Title)
		assert.True(t, wb.Sessions[0].Start.Equal(loaded.Sessions[0].Start))
		assert.True(t, loaded.Sessions[1].Start.IsZero(), "unset bounds stay zero")
	}

	if assert.Len(t, loaded.Posters[101], 2) {
		p := loaded.Posters[101][0]
		assert.Equal(t, 1, p.FriendlyID)
		assert.Equal(t, 9001, p.DBID)
		assert.Equal(t, "Ada Lovelace", p.Presenter.FullName())
		assert.Equal(t, 101, p.SessionID)
		assert.Equal(t, 0, p.ProgramIndex)
		assert.Equal(t, 1, loaded.Posters[101][1].ProgramIndex)
	}

	assert.Empty(t, loaded.Posters[102])
}

func TestLoadWorkbookMissingSessionSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "program.xlsx")

	f := excelize.NewFile()
	f.SetSheetName("Sheet1", ProgramSheet)
	f.SetSheetRow(ProgramSheet, "A1", &[]any{"Session ID", "Session Name", "Start Date", "End Date"})
	f.SetSheetRow(ProgramSheet, "A2", &[]any{33, "Orphan Session", "28/05/2026 09:00", "28/05/2026 13:00"})
	assert.NoError(t, f.SaveAs(path))
	f.Close()

	wb, err := LoadWorkbook(path)
	assert.NoError(t, err, "a missing session sheet is not fatal")
	assert.Len(t, wb.Sessions, 1)
	assert.Empty(t, wb.Posters[33])
}

func TestLoadWorkbookInvalidDates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "program.xlsx")

	f := excelize.NewFile()
	f.SetSheetName("Sheet1", ProgramSheet)
	f.SetSheetRow(ProgramSheet, "A1", &[]any{"Session ID", "Session Name", "Start Date", "End Date"})
	f.SetSheetRow(ProgramSheet, "A2", &[]any{7, "Bad Dates", "soon", "later"})
	assert.NoError(t, f.SaveAs(path))
	f.Close()

	wb, err := LoadWorkbook(path)
	assert.NoError(t, err)
	if assert.Len(t, wb.Sessions, 1) {
		assert.False(t, wb.Sessions[0].Ongoing(time.Now()), "invalid bounds never ongoing")
	}
}
