package kv

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v4"

	"github.com/confmeet/posterwall/conf"
	"github.com/confmeet/posterwall/program"
)

var (
	sessionPrefix = []byte("session:")
	posterPrefix  = []byte("poster:")
)

func NewProgramRepository(cfg conf.Persistence) (program.Repository, error) {
	opts := badger.DefaultOptions(cfg.Host + "/" + cfg.Name)
	if cfg.InMem {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	repo := new(programRepository)
	repo.db = db
	return repo, nil
}

type programRepository struct {
	db *badger.DB
}

func sessionKey(id int) []byte {
	return append(sessionPrefix, []byte(fmt.Sprintf("%06d", id))...)
}

func posterKey(friendlyID int) []byte {
	return append(posterPrefix, []byte(fmt.Sprintf("%06d", friendlyID))...)
}

func (repo *programRepository) ReplaceProgram(sessions []*program.Session, posters map[int][]*program.Poster) error {
	if err := repo.Truncate(); err != nil {
		return err
	}

	wb := repo.db.NewWriteBatch()
	defer wb.Cancel()

	for _, s := range sessions {
		data, err := json.Marshal(s)
		if err != nil {
			return err
		}
		if err := wb.Set(sessionKey(s.ID), data); err != nil {
			return err
		}

		for _, p := range posters[s.ID] {
			data, err := json.Marshal(p)
			if err != nil {
				return err
			}
			if err := wb.Set(posterKey(p.FriendlyID), data); err != nil {
				return err
			}
		}
	}

	return wb.Flush()
}

func (repo *programRepository) Sessions() ([]*program.Session, error) {
	var sessions []*program.Session

	err := repo.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(sessionPrefix); it.ValidForPrefix(sessionPrefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var s *program.Session
				if err := json.Unmarshal(val, &s); err != nil {
					return err
				}
				sessions = append(sessions, s)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Start.Before(sessions[j].Start)
	})

	return sessions, nil
}

func (repo *programRepository) Session(id int) (*program.Session, error) {
	var s *program.Session

	err := repo.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return program.ErrSessionNotFound
			}
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &s)
		})
	})
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (repo *programRepository) Posters(sessionID int) ([]*program.Poster, error) {
	all, err := repo.ListAll()
	if err != nil {
		return nil, err
	}

	posters := make([]*program.Poster, 0)
	for _, p := range all {
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
	var p *program.Poster

	err := repo.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(posterKey(friendlyID))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return program.ErrPosterNotFound
			}
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &p)
		})
	})
	if err != nil {
		return nil, err
	}

	return p, nil
}

func (repo *programRepository) ListAll() ([]*program.Poster, error) {
	var posters []*program.Poster

	err := repo.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(posterPrefix); it.ValidForPrefix(posterPrefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var p *program.Poster
				if err := json.Unmarshal(val, &p); err != nil {
					return err
				}
				posters = append(posters, p)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(posters, func(i, j int) bool {
		return posters[i].ProgramIndex < posters[j].ProgramIndex
	})

	return posters, nil
}

func (repo *programRepository) Truncate() error {
	return repo.db.DropAll()
}

func (repo *programRepository) Close() error {
	return repo.db.Close()
}
