package posterwall

import (
	"time"

	"go.uber.org/zap"

	"github.com/confmeet/posterwall/program"
)

func LoggingMiddleware(log *zap.Logger) ServiceMiddleware {
	return func(next Service) Service {
		return &loggingMiddleware{
			log.With(
				zap.String("service", "posterwall"),
				zap.String("middleware", "logging"),
			),
			next,
		}
	}
}

type loggingMiddleware struct {
	log  *zap.Logger
	next Service
}

func (mw *loggingMiddleware) Sessions() ([]*program.Session, error) {
	log := mw.log.With(
		zap.String("action", "sessions"),
	)

	sessions, err := mw.next.Sessions()
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Debug("sessions listed",
		zap.Int("count", len(sessions)),
	)
	return sessions, nil
}

func (mw *loggingMiddleware) Posters(sessionID int) ([]*program.Poster, error) {
	log := mw.log.With(
		zap.String("action", "posters"),
		zap.Int("session_id", sessionID),
	)

	posters, err := mw.next.Posters(sessionID)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Debug("posters listed",
		zap.Int("count", len(posters)),
	)
	return posters, nil
}

func (mw *loggingMiddleware) Poster(friendlyID int) (*program.Poster, error) {
	log := mw.log.With(
		zap.String("action", "poster"),
		zap.Int("friendly_id", friendlyID),
	)

	poster, err := mw.next.Poster(friendlyID)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Debug("poster found")
	return poster, nil
}

func (mw *loggingMiddleware) Roster(screenID int, at time.Time) (*program.Roster, error) {
	log := mw.log.With(
		zap.String("action", "roster"),
		zap.Int("screen_id", screenID),
	)

	roster, err := mw.next.Roster(screenID, at)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("roster built",
		zap.Int("posters", len(roster.Posters)),
	)
	return roster, nil
}

func (mw *loggingMiddleware) RandomPoster() (*program.Poster, error) {
	log := mw.log.With(
		zap.String("action", "random_poster"),
	)

	poster, err := mw.next.RandomPoster()
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Debug("poster picked",
		zap.Int("friendly_id", poster.FriendlyID),
	)
	return poster, nil
}

func (mw *loggingMiddleware) Reload() error {
	log := mw.log.With(
		zap.String("action", "reload"),
	)

	if err := mw.next.Reload(); err != nil {
		log.Error(err.Error())
		return err
	}

	log.Info("program reloaded")
	return nil
}

func (mw *loggingMiddleware) Report() (*program.Report, error) {
	log := mw.log.With(
		zap.String("action", "report"),
	)

	report, err := mw.next.Report()
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("report built",
		zap.Int("sessions", len(report.Sessions)),
	)
	return report, nil
}
