package posterwall

import (
	"context"
	"errors"
	"time"

	"github.com/go-kit/kit/endpoint"
)

type EndpointSet struct {
	Sessions     endpoint.Endpoint
	Posters      endpoint.Endpoint
	Poster       endpoint.Endpoint
	Roster       endpoint.Endpoint
	RandomPoster endpoint.Endpoint
	Reload       endpoint.Endpoint
	Report       endpoint.Endpoint
}

func SessionsEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		sessions, err := svc.Sessions()
		if err != nil {
			return nil, err
		}

		return sessions, nil
	}
}

func PostersEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		sessionID, ok := request.(int)
		if !ok {
			return nil, errors.New("invalid request")
		}

		posters, err := svc.Posters(sessionID)
		if err != nil {
			return nil, err
		}

		return posters, nil
	}
}

func PosterEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		friendlyID, ok := request.(int)
		if !ok {
			return nil, errors.New("invalid request")
		}

		poster, err := svc.Poster(friendlyID)
		if err != nil {
			return nil, err
		}

		return poster, nil
	}
}

type RosterRequest struct {
	ScreenID int
	At       time.Time
}

func RosterEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		req, ok := request.(RosterRequest)
		if !ok {
			return nil, errors.New("invalid request")
		}

		roster, err := svc.Roster(req.ScreenID, req.At)
		if err != nil {
			return nil, err
		}

		return roster, nil
	}
}

func RandomPosterEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		poster, err := svc.RandomPoster()
		if err != nil {
			return nil, err
		}

		return poster, nil
	}
}

func ReloadEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		if err := svc.Reload(); err != nil {
			return nil, err
		}

		return "program reloaded", nil
	}
}

func ReportEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		report, err := svc.Report()
		if err != nil {
			return nil, err
		}

		return report, nil
	}
}
