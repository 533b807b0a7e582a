package program

import "errors"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrPosterNotFound  = errors.New("poster not found")
)

type Repository interface {
	// Command

	// ReplaceProgram atomically swaps the stored program for a new one.
	ReplaceProgram(sessions []*Session, posters map[int][]*Poster) error

	// Query

	Sessions() ([]*Session, error)
	Session(id int) (*Session, error)
	Posters(sessionID int) ([]*Poster, error)
	Find(friendlyID int) (*Poster, error)
	ListAll() ([]*Poster, error)

	Truncate() error
	Close() error
}
