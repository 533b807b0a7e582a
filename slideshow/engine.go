// Package slideshow drives the poster rotation shown on a screen.
package slideshow

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/confmeet/posterwall/assets"
	"github.com/confmeet/posterwall/conf"
	"github.com/confmeet/posterwall/program"
)

type State int

const (
	Stopped State = iota
	Running
	Paused
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Running:
		return "running"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// ReloadFile is the magic file dropped into the program root to
// request a roster reload. It is consumed when picked up.
const ReloadFile = ".reload"

// Frame is a snapshot of what the screen should show right now.
type Frame struct {
	State     State            `json:"state"`
	Session   *program.Session `json:"session,omitempty"`
	Poster    *program.Poster  `json:"poster,omitempty"`
	Index     int              `json:"index"`
	Total     int              `json:"total"`
	PausedAt  time.Time        `json:"paused_at,omitempty"`
	LoadedAt  time.Time        `json:"loaded_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Engine rotates through the ongoing roster of one screen, advancing
// on a timer, pausing on request, and reloading its roster when the
// program changes.
type Engine struct {
	screenID int
	display  conf.Display
	now      func() time.Time

	repo    program.Repository
	library *assets.Library

	mu       sync.RWMutex
	state    State
	roster   *program.Roster
	index    int
	pausedAt time.Time
	loadedAt time.Time

	advance *time.Timer
	resume  *time.Timer

	commands chan func()
	done     chan struct{}

	log *zap.Logger
}

func NewEngine(screenID int, display conf.Display, prog conf.Program,
	repo program.Repository, library *assets.Library) *Engine {

	log := zap.L().With(
		zap.String("package", "slideshow"),
		zap.Int("screen_id", screenID),
	)

	e := &Engine{
		screenID: screenID,
		display:  display,
		now:      prog.Now,
		repo:     repo,
		library:  library,
		commands: make(chan func(), 16),
		done:     make(chan struct{}),
		log:      log,
	}

	e.reload()

	return e
}

// Run starts the rotation and blocks until the context is cancelled.
func (e *Engine) Run(ctx context.Context, programRoot string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(programRoot); err != nil {
		e.log.Warn("program root not watchable", zap.Error(err))
	}

	e.mu.Lock()
	e.state = Running
	e.mu.Unlock()

	e.advance = time.NewTimer(e.display.AdvanceInterval)
	defer e.advance.Stop()

	e.resume = time.NewTimer(e.display.PauseInterval)
	if !e.resume.Stop() {
		<-e.resume.C
	}
	defer e.resume.Stop()

	reload := time.NewTicker(e.display.ReloadInterval)
	defer reload.Stop()

	reloadPath := filepath.Join(programRoot, ReloadFile)

	for {
		select {
		case <-ctx.Done():
			e.mu.Lock()
			e.state = Stopped
			e.mu.Unlock()
			close(e.done)
			return ctx.Err()

		case cmd := <-e.commands:
			cmd()

		case <-e.advance.C:
			if e.Frame().State == Running {
				e.step(1)
			}
			e.advance.Reset(e.display.AdvanceInterval)

		case <-e.resume.C:
			e.doResume()

		case <-reload.C:
			if consumeReloadFile(reloadPath) {
				e.log.Info("reload requested via file")
				e.reload()
			} else {
				e.refreshRoster()
			}

		case ev, ok := <-watcher.Events:
			if !ok {
				continue
			}
			if filepath.Base(ev.Name) == ReloadFile && ev.Op.Has(fsnotify.Create) {
				if consumeReloadFile(reloadPath) {
					e.log.Info("reload requested via watcher")
					e.reload()
				}
			}

		case err, ok := <-watcher.Errors:
			if ok {
				e.log.Warn("watcher error", zap.Error(err))
			}
		}
	}
}

// Frame returns a snapshot of the current display state.
func (e *Engine) Frame() Frame {
	e.mu.RLock()
	defer e.mu.RUnlock()

	f := Frame{
		State:     e.state,
		Index:     e.index,
		LoadedAt:  e.loadedAt,
		UpdatedAt: e.now(),
	}

	if e.state == Paused {
		f.PausedAt = e.pausedAt
	}

	if e.roster != nil {
		f.Session = e.roster.Session
		f.Total = len(e.roster.Posters)
		if f.Total > 0 {
			f.Poster = e.roster.Posters[e.index]
		}
	}

	return f
}

// Pause holds the current poster. The rotation resumes on its own
// after the configured pause timeout.
func (e *Engine) Pause() {
	e.send(func() {
		e.mu.Lock()
		defer e.mu.Unlock()

		if e.state != Running {
			return
		}

		e.state = Paused
		e.pausedAt = e.now()
		e.resume.Reset(e.display.PauseInterval)
		e.log.Debug("paused")
	})
}

// Resume restarts the rotation immediately.
func (e *Engine) Resume() {
	e.send(e.doResume)
}

// Next advances to the following poster and restarts the pause clock
// when paused.
func (e *Engine) Next() {
	e.send(func() {
		e.step(1)
		e.rearm()
	})
}

// Previous steps back to the preceding poster.
func (e *Engine) Previous() {
	e.send(func() {
		e.step(-1)
		e.rearm()
	})
}

// Reload rebuilds the roster from the repository.
func (e *Engine) Reload() {
	e.send(e.reload)
}

func (e *Engine) send(cmd func()) {
	select {
	case e.commands <- cmd:
	case <-e.done:
	}
}

func (e *Engine) doResume() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != Paused {
		return
	}

	e.state = Running
	e.resume.Stop()
	e.advance.Reset(e.display.AdvanceInterval)
	e.log.Debug("resumed")
}

func (e *Engine) rearm() {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case Running:
		e.advance.Reset(e.display.AdvanceInterval)
	case Paused:
		e.pausedAt = e.now()
		e.resume.Reset(e.display.PauseInterval)
	}
}

// step moves the index by delta, wrapping around the roster. Rosters
// of one poster or none leave the index at zero.
func (e *Engine) step(delta int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.roster == nil || len(e.roster.Posters) == 0 {
		e.index = 0
		return
	}

	n := len(e.roster.Posters)
	e.index = ((e.index+delta)%n + n) % n
}

func (e *Engine) reload() {
	roster, err := e.buildRoster()
	if err != nil {
		e.log.Error("roster reload failed", zap.Error(err))
		return
	}

	e.mu.Lock()
	e.roster = roster
	e.index = 0
	e.loadedAt = e.now()
	e.mu.Unlock()

	e.log.Info("roster loaded",
		zap.Int("posters", len(roster.Posters)),
	)

	if e.library != nil {
		go e.library.Preload(roster,
			e.display.PosterWidth, e.display.PortraitHeight)
	}
}

// refreshRoster rebuilds the roster only when the ongoing session has
// changed, so a session boundary flips the screen without a restart.
func (e *Engine) refreshRoster() {
	roster, err := e.buildRoster()
	if err != nil {
		e.log.Error("roster refresh failed", zap.Error(err))
		return
	}

	e.mu.RLock()
	current := e.roster
	e.mu.RUnlock()

	if sameRoster(current, roster) {
		return
	}

	e.mu.Lock()
	e.roster = roster
	e.index = 0
	e.loadedAt = e.now()
	e.mu.Unlock()

	e.log.Info("ongoing session changed",
		zap.Int("posters", len(roster.Posters)),
	)
}

func (e *Engine) buildRoster() (*program.Roster, error) {
	sessions, err := e.repo.Sessions()
	if err != nil {
		return nil, err
	}

	posters := make(map[int][]*program.Poster)
	for _, s := range sessions {
		ps, err := e.repo.Posters(s.ID)
		if err != nil {
			return nil, err
		}
		posters[s.ID] = ps
	}

	return program.BuildRoster(sessions, posters, e.screenID, e.now()), nil
}

func sameRoster(a, b *program.Roster) bool {
	if a == nil || b == nil {
		return a == b
	}

	if len(a.Posters) != len(b.Posters) {
		return false
	}

	for i := range a.Posters {
		if a.Posters[i].FriendlyID != b.Posters[i].FriendlyID {
			return false
		}
	}

	return true
}

func consumeReloadFile(path string) bool {
	if _, err := os.Stat(path); err != nil {
		return false
	}

	if err := os.Remove(path); err != nil {
		zap.L().Warn("reload file not removable", zap.Error(err))
	}

	return true
}
