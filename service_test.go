package posterwall

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/confmeet/posterwall/assets"
	"github.com/confmeet/posterwall/conf"
	"github.com/confmeet/posterwall/persistence/inmem"
	"github.com/confmeet/posterwall/program"
)

type serviceTestSuite struct {
	suite.Suite
	svc     Service
	posters program.Repository
	root    string
}

func (suite *serviceTestSuite) SetupTest() {
	posters, err := inmem.NewProgramRepository()
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.posters = posters
	suite.root = suite.T().TempDir()

	start := time.Date(2026, time.May, 28, 9, 0, 0, 0, time.Local)
	session := &program.Session{
		ID:    101,
		Title: "Morning Posters",
		Start: start,
		End:   start.Add(4 * time.Hour),
	}

	posters.ReplaceProgram(
		[]*program.Session{session},
		map[int][]*program.Poster{
			101: {
				{FriendlyID: 1, ScreenID: 1, Title: "First", SessionID: 101, ProgramIndex: 0},
				{FriendlyID: 2, ScreenID: 2, Title: "Second", SessionID: 101, ProgramIndex: 1},
			},
		},
	)

	cfg := conf.Program{
		ConfigFile:  filepath.Join(suite.root, "program.xlsx"),
		RootFolder:  suite.root,
		DisplayDate: start.Add(time.Hour),
	}

	library := assets.NewLibrary(suite.root)
	suite.svc = NewService(posters, library, cfg)
}

func (suite *serviceTestSuite) TearDownTest() {
	suite.posters.Close()
}

func (suite *serviceTestSuite) TestSessions() {
	sessions, err := suite.svc.Sessions()
	suite.NoError(err)
	suite.Len(sessions, 1)
}

func (suite *serviceTestSuite) TestPoster() {
	poster, err := suite.svc.Poster(2)
	suite.NoError(err)
	suite.Equal("Second", poster.Title)

	_, err = suite.svc.Poster(404)
	suite.ErrorIs(err, program.ErrPosterNotFound)
}

func (suite *serviceTestSuite) TestRoster() {
	roster, err := suite.svc.Roster(1, time.Time{})
	suite.NoError(err)
	suite.Len(roster.Posters, 1, "the display clock falls inside the session")
	suite.Equal(1, roster.Posters[0].FriendlyID)

	outside := time.Date(2026, time.May, 28, 20, 0, 0, 0, time.Local)
	roster, err = suite.svc.Roster(1, outside)
	suite.NoError(err)
	suite.Empty(roster.Posters)
}

func (suite *serviceTestSuite) TestRandomPoster() {
	poster, err := suite.svc.RandomPoster()
	suite.NoError(err)
	suite.Contains([]int{1, 2}, poster.FriendlyID)

	suite.posters.Truncate()

	_, err = suite.svc.RandomPoster()
	suite.ErrorIs(err, ErrEmptyProgram)
}

func (suite *serviceTestSuite) TestReload() {
	wb := &program.Workbook{
		Sessions: []*program.Session{
			{ID: 201, Title: "Imported"},
		},
		Posters: map[int][]*program.Poster{
			201: {{FriendlyID: 9, ScreenID: 1, SessionID: 201}},
		},
	}

	path := filepath.Join(suite.root, "program.xlsx")
	suite.NoError(program.WriteWorkbook(path, wb))

	suite.NoError(suite.svc.Reload())

	sessions, err := suite.svc.Sessions()
	suite.NoError(err)
	suite.Len(sessions, 1)
	suite.Equal(201, sessions[0].ID)
}

func (suite *serviceTestSuite) TestReport() {
	report, err := suite.svc.Report()
	suite.NoError(err)
	suite.Len(report.Sessions, 1)
	suite.Equal(2, report.MissingPosters, "no material on disk yet")
	suite.Equal(2, report.Sessions[0].Posters)
	suite.Equal(2, report.Sessions[0].Screens)
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(serviceTestSuite))
}
