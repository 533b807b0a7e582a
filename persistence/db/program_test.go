package db

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
}

func (suite *programRepositoryTestSuite) SetupSuite() {
	cfg := conf.Persistence{
		Driver: conf.SQLite,
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

	start := time.Date(2026, time.May, 28, 9, 0, 0, 0, time.UTC)

	session := &program.Session{
		ID:    101,
		Title: "Morning Posters",
		Start: start,
		End:   start.Add(4 * time.Hour),
	}

	suite.posters.ReplaceProgram(
		[]*program.Session{session},
		map[int][]*program.Poster{
			101: {
				{FriendlyID: 2, ScreenID: 2, Title: "Second", SessionID: 101, ProgramIndex: 1},
				{FriendlyID: 1, ScreenID: 1, Title: "First", SessionID: 101, ProgramIndex: 0},
			},
		},
	)
}

func (suite *programRepositoryTestSuite) TestPostersOrdered() {
	posters, err := suite.posters.Posters(101)
	suite.NoError(err)
	suite.Len(posters, 2)
	suite.Equal(1, posters[0].FriendlyID)
}

func (suite *programRepositoryTestSuite) TestFind() {
	poster, err := suite.posters.Find(2)
	suite.NoError(err)
	suite.Equal("Second", poster.Title)
	suite.Equal(2, poster.ScreenID)

	_, err = suite.posters.Find(404)
	suite.ErrorIs(err, program.ErrPosterNotFound)
}

func (suite *programRepositoryTestSuite) TestReplaceProgram() {
	next := &program.Session{
		ID:    201,
		Title: "Next Day",
		Start: time.Date(2026, time.May, 29, 9, 0, 0, 0, time.UTC),
		End:   time.Date(2026, time.May, 29, 13, 0, 0, 0, time.UTC),
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
	suite.Len(sessions, 1)
	suite.Equal(201, sessions[0].ID)

	_, err = suite.posters.Find(1)
	suite.ErrorIs(err, program.ErrPosterNotFound)
}

func (suite *programRepositoryTestSuite) TearDownSuite() {
	suite.posters.Close()
}

func TestProgramRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(programRepositoryTestSuite))
}
