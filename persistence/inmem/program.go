package inmem

import (
	"sort"
	"sync"

	"github.com/confmeet/posterwall/program"
)

func NewProgramRepository() (program.Repository, error) {
	return &programRepository{
		sessions: make(map[int]*program.Session),
		posters:  make(map[int]*program.Poster),
	}, nil
}

type programRepository struct {
	sync.RWMutex
	sessions map[int]*program.Session
	posters  map[int]*program.Poster
}

func (repo *programRepository) ReplaceProgram(sessions []*program.Session, posters map[int][]*program.Poster) error {
	repo.Lock()
	defer repo.Unlock()

	repo.sessions = make(map[int]*program.Session)
	repo.posters = make(map[int]*program.Poster)

	for _, s := range sessions {
		repo.sessions[s.ID] = s
		for _, p := range posters[s.ID] {
			repo.posters[p.FriendlyID] = p
		}
	}
	return nil
}

func (repo *programRepository) Sessions() ([]*program.Session, error) {
	repo.RLock()
	defer repo.RUnlock()

	sessions := make([]*program.Session, 0, len(repo.sessions))
	for _, s := range repo.sessions {
		sessions = append(sessions, s)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Start.Before(sessions[j].Start)
	})

	return sessions, nil
}

func (repo *programRepository) Session(id int) (*program.Session, error) {
	repo.RLock()
	defer repo.RUnlock()

	s, ok := repo.sessions[id]
	if !ok {
		return nil, program.ErrSessionNotFound
	}
	return s, nil
}

func (repo *programRepository) Posters(sessionID int) ([]*program.Poster, error) {
	repo.RLock()
	defer repo.RUnlock()

	posters := make([]*program.Poster, 0)
	for _, p := range repo.posters {
		if p.SessionID == sessionID {
			posters = append(posters, p)
		}
	}

	sort.Slice(posters, func(i, j int) bool {
		return posters[i].FriendlyID < posters[j].FriendlyID
	})

	return posters, nil
}

func (repo *programRepository) Find(friendlyID int) (*program.Poster, error) {
	repo.RLock()
	defer repo.RUnlock()

	p, ok := repo.posters[friendlyID]
	if !ok {
		return nil, program.ErrPosterNotFound
	}
	return p, nil
}

func (repo *programRepository) ListAll() ([]*program.Poster, error) {
	repo.RLock()
	defer repo.RUnlock()

	posters := make([]*program.Poster, 0, len(repo.posters))
	for _, p := range repo.posters {
		posters = append(posters, p)
	}

	sort.Slice(posters, func(i, j int) bool {
		return posters[i].ProgramIndex < posters[j].ProgramIndex
	})

	return posters, nil
}

func (repo *programRepository) Truncate() error {
	repo.Lock()
	defer repo.Unlock()

	repo.sessions = make(map[int]*program.Session)
	repo.posters = make(map[int]*program.Poster)
	return nil
}

func (repo *programRepository) Close() error {
	return nil
}
