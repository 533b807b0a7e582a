package db

import (
	"errors"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/confmeet/posterwall/conf"
	"github.com/confmeet/posterwall/program"
)

func NewProgramRepository(cfg conf.Persistence) (program.Repository, error) {
	filename := cfg.Host + "/" + cfg.Name + ".db"
	if cfg.InMem {
		filename = "file::memory:?cache=shared"
	}

	db, err := gorm.Open(sqlite.Open(filename), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	db.AutoMigrate(
		&Session{}, &Poster{},
	)

	repo := new(programRepository)
	repo.db = db
	return repo, nil
}

// Session is the data model for a poster session.
type Session struct {
	ID    int `gorm:"primaryKey"`
	Title string
	Start time.Time
	End   time.Time
	DataModel
}

func NewSession(s *program.Session) *Session {
	return &Session{
		ID:    s.ID,
		Title: s.Title,
		Start: s.Start,
		End:   s.End,
	}
}

func (s *Session) reconstitute() *program.Session {
	return &program.Session{
		ID:    s.ID,
		Title: s.Title,
		Start: s.Start,
		End:   s.End,
	}
}

// Poster is the data model for a poster contribution.
type Poster struct {
	FriendlyID   int `gorm:"primaryKey"`
	DBID         int
	ScreenID     int `gorm:"index"`
	Title        string
	FirstName    string
	LastName     string
	Affiliation  string
	SessionID    int `gorm:"index"`
	SessionIndex int
	ProgramIndex int
	DataModel
}

func NewPoster(p *program.Poster) *Poster {
	return &Poster{
		FriendlyID:   p.FriendlyID,
		DBID:         p.DBID,
		ScreenID:     p.ScreenID,
		Title:        p.Title,
		FirstName:    p.Presenter.FirstName,
		LastName:     p.Presenter.LastName,
		Affiliation:  p.Presenter.Affiliation,
		SessionID:    p.SessionID,
		SessionIndex: p.SessionIndex,
		ProgramIndex: p.ProgramIndex,
	}
}

func (p *Poster) reconstitute() *program.Poster {
	return &program.Poster{
		FriendlyID: p.FriendlyID,
		DBID:       p.DBID,
		ScreenID:   p.ScreenID,
		Title:      p.Title,
		Presenter: program.Presenter{
			FirstName:   p.FirstName,
			LastName:    p.LastName,
			Affiliation: p.Affiliation,
		},
		SessionID:    p.SessionID,
		SessionIndex: p.SessionIndex,
		ProgramIndex: p.ProgramIndex,
	}
}

type programRepository struct {
	db *gorm.DB
}

func (repo *programRepository) ReplaceProgram(sessions []*program.Session, posters map[int][]*program.Poster) error {
	return repo.db.Transaction(func(tx *gorm.DB) error {
		// Wipe the previous program first, then insert the new one.
		if err := tx.Unscoped().Where("1 = 1").Delete(&Poster{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("1 = 1").Delete(&Session{}).Error; err != nil {
			return err
		}

		for _, s := range sessions {
			if err := tx.Create(NewSession(s)).Error; err != nil {
				return err
			}
			for _, p := range posters[s.ID] {
				if err := tx.Create(NewPoster(p)).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (repo *programRepository) Sessions() ([]*program.Session, error) {
	var sessions []*Session

	result := repo.db.Order("start").Find(&sessions)
	if err := result.Error; err != nil {
		return nil, err
	}

	results := make([]*program.Session, 0, len(sessions))
	for _, s := range sessions {
		results = append(results, s.reconstitute())
	}

	return results, nil
}

func (repo *programRepository) Session(id int) (*program.Session, error) {
	var s *Session

	result := repo.db.Take(&s, "id = ?", id)
	if err := result.Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, program.ErrSessionNotFound
		}

		return nil, err
	}

	return s.reconstitute(), nil
}

func (repo *programRepository) Posters(sessionID int) ([]*program.Poster, error) {
	var posters []*Poster

	result := repo.db.Order("friendly_id").Find(&posters, "session_id = ?", sessionID)
	if err := result.Error; err != nil {
		return nil, err
	}

	results := make([]*program.Poster, 0, len(posters))
	for _, p := range posters {
		results = append(results, p.reconstitute())
	}

	return results, nil
}

func (repo *programRepository) Find(friendlyID int) (*program.Poster, error) {
	var p *Poster

	result := repo.db.Take(&p, "friendly_id = ?", friendlyID)
	if err := result.Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, program.ErrPosterNotFound
		}

		return nil, err
	}

	return p.reconstitute(), nil
}

func (repo *programRepository) ListAll() ([]*program.Poster, error) {
	var posters []*Poster

	result := repo.db.Order("program_index").Find(&posters)
	if err := result.Error; err != nil {
		return nil, err
	}

	results := make([]*program.Poster, 0, len(posters))
	for _, p := range posters {
		results = append(results, p.reconstitute())
	}

	return results, nil
}

func (repo *programRepository) Truncate() error {
	if err := repo.db.Exec("DELETE FROM posters").Error; err != nil {
		return err
	}

	return repo.db.Exec("DELETE FROM sessions").Error
}

func (repo *programRepository) Close() error {
	return nil
}
