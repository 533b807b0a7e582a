package pubsub

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/sd"
	"github.com/nats-io/nats.go"

	"github.com/confmeet/posterwall/slideshow"
)

// Requester is the request side of a NATS connection.
type Requester interface {
	Request(subject string, data []byte, timeout time.Duration) (*nats.Msg, error)
}

// StatusFactory builds operator-side endpoints asking a unit for its
// current frame, one instance per screen service.
func StatusFactory(nc Requester) sd.Factory {
	return func(instance string) (endpoint.Endpoint, io.Closer, error) {
		return StatusEndpoint(nc, instance+".status"), nil, nil
	}
}

func StatusEndpoint(nc Requester, topic string) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		msg, err := nc.Request(topic, nil, 5000*time.Millisecond)
		if err != nil {
			return nil, err
		}

		var frame slideshow.Frame
		if err := json.Unmarshal(msg.Data, &frame); err != nil {
			return nil, err
		}

		return &frame, nil
	}
}
