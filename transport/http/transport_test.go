package http

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"

	"github.com/confmeet/posterwall"
	"github.com/confmeet/posterwall/assets"
	"github.com/confmeet/posterwall/conf"
	"github.com/confmeet/posterwall/persistence/inmem"
	"github.com/confmeet/posterwall/policy"
	"github.com/confmeet/posterwall/program"
	"github.com/confmeet/posterwall/slideshow"
)

type transportTestSuite struct {
	suite.Suite
	router  *gin.Engine
	posters program.Repository
	token   string
}

func (suite *transportTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	root := suite.T().TempDir()

	cfg := &conf.Config{
		Name: "posterwall-test",
		Admin: conf.Admin{
			Privkey:   priv,
			Timeout:   time.Hour,
			Audiences: []string{"operators"},
		},
		Display: conf.Display{
			Mode:            conf.Fullscreen,
			Fading:          true,
			PosterWidth:     100,
			HeaderHeight:    40,
			PortraitHeight:  40,
			AdvanceInterval: time.Hour,
			PauseInterval:   time.Hour,
			ReloadInterval:  time.Hour,
		},
		Program: conf.Program{
			ConfigFile:  root + "/program.xlsx",
			RootFolder:  root,
			DisplayDate: time.Date(2026, time.May, 28, 10, 0, 0, 0, time.Local),
		},
	}
	conf.ReplaceGlobals(cfg)

	Init(cfg.Name, "operators", priv)

	token, _, err := IssueToken("ops")
	if err != nil {
		suite.Fail(err.Error())
		return
	}
	suite.token = token

	posters, err := inmem.NewProgramRepository()
	if err != nil {
		suite.Fail(err.Error())
		return
	}
	suite.posters = posters

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
				{FriendlyID: 1, ScreenID: 1, Title: "First", SessionID: 101},
				{FriendlyID: 2, ScreenID: 2, Title: "Second", SessionID: 101},
			},
		},
	)

	library := assets.NewLibrary(root)

	svc := posterwall.NewService(posters, library, cfg.Program)

	endpoints := posterwall.EndpointSet{
		Sessions:     posterwall.SessionsEndpoint(svc),
		Posters:      posterwall.PostersEndpoint(svc),
		Poster:       posterwall.PosterEndpoint(svc),
		Roster:       posterwall.RosterEndpoint(svc),
		RandomPoster: posterwall.RandomPosterEndpoint(svc),
		Reload:       posterwall.ReloadEndpoint(svc),
		Report:       posterwall.ReportEndpoint(svc),
	}

	engine := slideshow.NewEngine(1, cfg.Display, cfg.Program, posters, library)

	adminPolicy, err := policy.New(context.Background(), "")
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	r := gin.New()
	r.GET("/posterwall/healthz", HealthHandler)
	r.GET("/posterwall/kiosk", KioskHandler)
	r.GET("/posterwall/frame", FrameHandler(engine))
	r.POST("/posterwall/control/:action", ControlHandler(engine, 1, adminPolicy))
	r.GET("/posterwall/sessions", SessionsHandler(endpoints.Sessions))
	r.GET("/posterwall/sessions/:session/posters", PostersHandler(endpoints.Posters))
	r.GET("/posterwall/posters/:poster", PosterHandler(endpoints.Poster))
	r.GET("/posterwall/posters/:poster/image", PosterImageHandler(library))
	r.GET("/posterwall/fallback", FallbackImageHandler(library))
	r.GET("/posterwall/screens/:screen/roster", RosterHandler(endpoints.Roster))
	r.GET("/posterwall/report", ReportHandler(endpoints.Report))

	suite.router = r
}

func (suite *transportTestSuite) get(path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *transportTestSuite) TestHealthz() {
	w := suite.get("/posterwall/healthz")
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *transportTestSuite) TestSessions() {
	w := suite.get("/posterwall/sessions")
	suite.Equal(http.StatusOK, w.Code)

	var sessions []*program.Session
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &sessions))
	suite.Len(sessions, 1)
	suite.Equal("Morning Posters", sessions[0].Title)
}

func (suite *transportTestSuite) TestPosters() {
	w := suite.get("/posterwall/sessions/101/posters")
	suite.Equal(http.StatusOK, w.Code)

	var posters []*program.Poster
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &posters))
	suite.Len(posters, 2)
}

func (suite *transportTestSuite) TestPosterNotFound() {
	w := suite.get("/posterwall/posters/404")
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *transportTestSuite) TestRoster() {
	w := suite.get("/posterwall/screens/1/roster")
	suite.Equal(http.StatusOK, w.Code)

	var roster program.Roster
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &roster))
	suite.Len(roster.Posters, 1)
	suite.Equal(1, roster.Posters[0].FriendlyID)
}

func (suite *transportTestSuite) TestRosterAt() {
	w := suite.get("/posterwall/screens/1/roster?at=2026-05-30T20:00:00Z")
	suite.Equal(http.StatusOK, w.Code)

	var roster program.Roster
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &roster))
	suite.Empty(roster.Posters)
}

func (suite *transportTestSuite) TestPosterImageFallback() {
	w := suite.get("/posterwall/posters/1/image")
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("image/png", w.Header().Get("Content-Type"))
	suite.NotEmpty(w.Body.Bytes(), "missing material falls back to a placeholder")
}

func (suite *transportTestSuite) TestFrame() {
	w := suite.get("/posterwall/frame")
	suite.Equal(http.StatusOK, w.Code)

	var frame slideshow.Frame
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &frame))
	suite.Equal(1, frame.Total)
}

func (suite *transportTestSuite) TestKiosk() {
	w := suite.get("/posterwall/kiosk")
	suite.Equal(http.StatusOK, w.Code)

	page := w.Body.String()
	suite.Contains(page, "posterwall-test")
	suite.Contains(page, "setPoster('fallback')", "an empty roster shows the fallback poster")
	suite.Contains(page, "transition: opacity")
	suite.Contains(page, "requestFullscreen")
}

func (suite *transportTestSuite) TestFallbackImage() {
	w := suite.get("/posterwall/fallback")
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("image/png", w.Header().Get("Content-Type"))
	suite.NotEmpty(w.Body.Bytes())
}

func (suite *transportTestSuite) TestControlUnauthorized() {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/posterwall/control/pause", nil)
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *transportTestSuite) TestControlAuthorized() {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/posterwall/control/pause", nil)
	req.Header.Set("Authorization", "Bearer "+suite.token)
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusOK, w.Code)
}

func (suite *transportTestSuite) TestControlUnknownAction() {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/posterwall/control/dance", nil)
	req.Header.Set("Authorization", "Bearer "+suite.token)
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *transportTestSuite) TearDownSuite() {
	suite.posters.Close()
}

func TestTransportTestSuite(t *testing.T) {
	suite.Run(t, new(transportTestSuite))
}
