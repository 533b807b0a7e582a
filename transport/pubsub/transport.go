// Package pubsub exposes the display daemon on NATS, so the whole
// fleet can be steered without touching each unit over SSH.
package pubsub

import (
	"context"
	"encoding/json"

	"github.com/go-kit/kit/endpoint"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/micro"

	"github.com/confmeet/posterwall/slideshow"
)

// ReloadSubject is the broadcast subject every unit subscribes to.
// A single publish reloads the whole wall.
const ReloadSubject = "posterwall.reload"

func ReloadHandler(endpoint endpoint.Endpoint) micro.HandlerFunc {
	return func(r micro.Request) {
		ctx := context.Background()
		resp, err := endpoint(ctx, nil)
		if err != nil {
			r.Error("417", err.Error(), nil)
			return
		}

		r.RespondJSON(&resp)
	}
}

func ReportHandler(endpoint endpoint.Endpoint) micro.HandlerFunc {
	return func(r micro.Request) {
		ctx := context.Background()
		resp, err := endpoint(ctx, nil)
		if err != nil {
			r.Error("417", err.Error(), nil)
			return
		}

		r.RespondJSON(&resp)
	}
}

// StatusHandler answers with the current frame, letting the operator
// poll what each screen is showing.
func StatusHandler(engine *slideshow.Engine) micro.HandlerFunc {
	return func(r micro.Request) {
		frame := engine.Frame()
		r.RespondJSON(&frame)
	}
}

// SubscribeReload wires the broadcast subject to the engine, and to
// the program import so new posters are picked up too.
func SubscribeReload(nc *nats.Conn, endpoint endpoint.Endpoint, engine *slideshow.Engine) (*nats.Subscription, error) {
	return nc.Subscribe(ReloadSubject, func(msg *nats.Msg) {
		ctx := context.Background()
		if _, err := endpoint(ctx, nil); err != nil {
			return
		}

		if engine != nil {
			engine.Reload()
		}
	})
}

// BroadcastReload asks every unit on the wall to reload its program.
func BroadcastReload(nc *nats.Conn) error {
	data, err := json.Marshal(map[string]string{"action": "reload"})
	if err != nil {
		return err
	}

	return nc.Publish(ReloadSubject, data)
}
