package kv

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/confmeet/posterwall/conf"
	"github.com/confmeet/posterwall/program"
)

type programRepositoryTestSuite struct {
	suite.Suite
	posters program.Repository
	session *program.Session
}

func (suite *programRepositoryTestSuite) SetupSuite() {
	cfg := conf.Persistence{
		Driver: conf.BadgerDB,
		Name:   "posterwall",
		InMem:  true,
	}

	posters, err := NewProgramRepository(cfg)
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.posters = posters
}

func (suite *programRepositoryTestSuite) SetupTest() {
	suite.posters.Truncate()

	start := time.Date(2026, time.May, 28, 9, 0, 0, 0, time.Local)

	morning := &program.Session{
		ID:    101,
		Title: "Morning Posters",
		Start: start,
		End:   start.Add(4 * time.Hour),
	}
	afternoon := &program.Session{
		ID:    102,
		Title: "Afternoon Posters",
		Start: start.Add(6 * time.Hour),
		End:   start.Add(10 * time.Hour),
	}

	posters := map[int][]*program.Poster{
		101: {
			{FriendlyID: 1, ScreenID: 1, Title: "First", SessionID: 101, ProgramIndex: 0},
			{FriendlyID: 2, ScreenID: 2, Title: "Second", SessionID: 101, ProgramIndex: 1},
		},
		102: {
			{FriendlyID: 3, ScreenID: 1, Title: "Third", SessionID: 102, ProgramIndex: 2},
		},
	}

	suite.posters.ReplaceProgram([]*program.Session{morning, afternoon}, posters)
	suite.session = morning
}

func (suite *programRepositoryTestSuite) TestSessions() {
	sessions, err := suite.posters.Sessions()
	suite.NoError(err)
	suite.Len(sessions, 2)
	suite.Equal(101, sessions[0].ID, "sessions are ordered by start")
}

func (suite *programRepositoryTestSuite) TestSession() {
	session, err := suite.posters.Session(suite.session.ID)
	suite.NoError(err)
	suite.Equal("Morning Posters", session.Title)

	_, err = suite.posters.Session(999)
	suite.ErrorIs(err, program.ErrSessionNotFound)
}

func (suite *programRepositoryTestSuite) TestPosters() {
	posters, err := suite.posters.Posters(101)
	suite.NoError(err)
	suite.Len(posters, 2)
	suite.Equal(1, posters[0].FriendlyID, "posters are ordered by friendly ID")
}

func (suite *programRepositoryTestSuite) TestFind() {
	poster, err := suite.posters.Find(3)
	suite.NoError(err)
	suite.Equal("Third", poster.Title)

	_, err = suite.posters.Find(999)
	suite.ErrorIs(err, program.ErrPosterNotFound)
}

func (suite *programRepositoryTestSuite) TestListAll() {
	posters, err := suite.posters.ListAll()
	suite.NoError(err)
	suite.Len(posters, 3)
	suite.Equal(1, posters[0].FriendlyID, "ordered by program index")
	suite.Equal(3, posters[2].FriendlyID)
}

func (suite *programRepositoryTestSuite) TestReplaceProgram() {
	next := &program.Session{
		ID:    201,
		Title: "Next Day",
		Start: time.Date(2026, time.May, 29, 9, 0, 0, 0, time.Local),
		End:   time.Date(2026, time.May, 29, 13, 0, 0, 0, time.Local),
	}

	err := suite.posters.ReplaceProgram(
		[]*program.Session{next},
		map[int][]*program.Poster{
			201: {{FriendlyID: 9, ScreenID: 1, SessionID: 201}},
		},
	)
	suite.NoError(err)

	sessions, err := suite.posters.Sessions()
	suite.NoError(err)
	suite.Len(sessions, 1, "the previous program is gone")

	_, err = suite.posters.Find(1)
	suite.ErrorIs(err, program.ErrPosterNotFound)

	poster, err := suite.posters.Find(9)
	suite.NoError(err)
	suite.Equal(201, poster.SessionID)
}

func (suite *programRepositoryTestSuite) TearDownSuite() {
	suite.posters.Close()
}

func TestProgramRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(programRepositoryTestSuite))
}
