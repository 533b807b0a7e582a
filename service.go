package posterwall

import (
	"errors"
	"math/rand"
	"time"

	"github.com/confmeet/posterwall/assets"
	"github.com/confmeet/posterwall/conf"
	"github.com/confmeet/posterwall/program"
)

var (
	ErrEmptyProgram = errors.New("empty program")
)

type Service interface {
	Sessions() ([]*program.Session, error)
	Posters(sessionID int) ([]*program.Poster, error)
	Poster(friendlyID int) (*program.Poster, error)
	Roster(screenID int, at time.Time) (*program.Roster, error)
	RandomPoster() (*program.Poster, error)
	Reload() error
	Report() (*program.Report, error)
}

type ServiceMiddleware func(Service) Service

func NewService(posters program.Repository, library *assets.Library, cfg conf.Program) Service {
	return &service{cfg, posters, library}
}

type service struct {
	cfg     conf.Program
	posters program.Repository
	library *assets.Library
}

func (svc *service) Sessions() ([]*program.Session, error) {
	return svc.posters.Sessions()
}

func (svc *service) Posters(sessionID int) ([]*program.Poster, error) {
	return svc.posters.Posters(sessionID)
}

func (svc *service) Poster(friendlyID int) (*program.Poster, error) {
	return svc.posters.Find(friendlyID)
}

func (svc *service) Roster(screenID int, at time.Time) (*program.Roster, error) {
	if at.IsZero() {
		at = svc.cfg.Now()
	}

	sessions, err := svc.posters.Sessions()
	if err != nil {
		return nil, err
	}

	posters := make(map[int][]*program.Poster)
	for _, s := range sessions {
		ps, err := svc.posters.Posters(s.ID)
		if err != nil {
			return nil, err
		}

		posters[s.ID] = ps
	}

	return program.BuildRoster(sessions, posters, screenID, at), nil
}

func (svc *service) RandomPoster() (*program.Poster, error) {
	posters, err := svc.posters.ListAll()
	if err != nil {
		return nil, err
	}

	if len(posters) == 0 {
		return nil, ErrEmptyProgram
	}

	return posters[rand.Intn(len(posters))], nil
}

// Reload re-imports the configured workbook, replacing the whole
// program in one transaction.
func (svc *service) Reload() error {
	wb, err := program.LoadWorkbook(svc.cfg.ConfigFile)
	if err != nil {
		return err
	}

	return svc.posters.ReplaceProgram(wb.Sessions, wb.Posters)
}

func (svc *service) Report() (*program.Report, error) {
	sessions, err := svc.posters.Sessions()
	if err != nil {
		return nil, err
	}

	posters := make(map[int][]*program.Poster)
	for _, s := range sessions {
		ps, err := svc.posters.Posters(s.ID)
		if err != nil {
			return nil, err
		}

		posters[s.ID] = ps
	}

	return program.BuildReport(sessions, posters, svc.library), nil
}
