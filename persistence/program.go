package persistence

import (
	"errors"

	"github.com/confmeet/posterwall/conf"
	"github.com/confmeet/posterwall/persistence/db"
	"github.com/confmeet/posterwall/persistence/inmem"
	"github.com/confmeet/posterwall/persistence/kv"
	"github.com/confmeet/posterwall/program"
)

func NewProgramRepository(cfg conf.Persistence) (program.Repository, error) {
	switch cfg.Driver {
	case conf.SQLite:
		return db.NewProgramRepository(cfg)
	case conf.BadgerDB:
		return kv.NewProgramRepository(cfg)
	case conf.InMem:
		return inmem.NewProgramRepository()
	default:
		return nil, errors.New("driver not supported")
	}
}
