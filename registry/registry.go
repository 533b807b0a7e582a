// Package registry announces the running daemon in Consul so fleet
// tooling and screens can find the controller.
package registry

import (
	"fmt"
	"os"
	"strconv"

	"github.com/hashicorp/consul/api"
	"go.uber.org/zap"

	"github.com/confmeet/posterwall/conf"
)

type Registry struct {
	client *api.Client
	id     string
	log    *zap.Logger
}

// Register announces the service under cfg.Service with an HTTP health
// check against the daemon's healthz endpoint. The screen ID goes into
// the service meta, where fleet discovery looks it up.
func Register(cfg conf.Registry, port, screenID int) (*Registry, error) {
	client, err := api.NewClient(&api.Config{
		Address: cfg.Address,
	})
	if err != nil {
		return nil, err
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "posterwall"
	}

	id := fmt.Sprintf("%s-%s", cfg.Service, hostname)

	registration := &api.AgentServiceRegistration{
		ID:   id,
		Name: cfg.Service,
		Port: port,
		Meta: map[string]string{
			"screen_id": strconv.Itoa(screenID),
		},
		Check: &api.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d/posterwall/healthz", hostname, port),
			Interval:                       "10s",
			Timeout:                        "3s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}

	if err := client.Agent().ServiceRegister(registration); err != nil {
		return nil, err
	}

	log := zap.L().With(
		zap.String("package", "registry"),
	)

	log.Info("service registered",
		zap.String("id", id),
	)

	return &Registry{
		client: client,
		id:     id,
		log:    log,
	}, nil
}

// Deregister removes the service from the catalog on shutdown.
func (r *Registry) Deregister() error {
	if err := r.client.Agent().ServiceDeregister(r.id); err != nil {
		return err
	}

	r.log.Info("service deregistered",
		zap.String("id", r.id),
	)

	return nil
}
