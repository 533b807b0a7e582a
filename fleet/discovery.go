package fleet

import (
	"sort"
	"strconv"

	"github.com/hashicorp/consul/api"
	"go.uber.org/zap"

	"github.com/confmeet/posterwall/conf"
)

// Discover queries the Consul catalog for registered screen hosts and
// merges them into the manager's static host list. Screens register
// themselves with a "screen_id" meta entry at boot.
func (m *Manager) Discover(cfg conf.Registry) error {
	client, err := api.NewClient(&api.Config{
		Address: cfg.Address,
	})
	if err != nil {
		return err
	}

	services, _, err := client.Catalog().Service(cfg.Service, "", nil)
	if err != nil {
		return err
	}

	known := make(map[string]bool)
	for _, h := range m.cfg.Hosts {
		known[h.Host] = true
	}

	for _, svc := range services {
		addr := svc.ServiceAddress
		if addr == "" {
			addr = svc.Address
		}

		if known[addr] {
			continue
		}

		id, err := strconv.Atoi(svc.ServiceMeta["screen_id"])
		if err != nil {
			m.log.Warn("registered host without screen id",
				zap.String("host", addr),
			)
			continue
		}

		m.cfg.Hosts = append(m.cfg.Hosts, conf.FleetHost{
			Host:     addr,
			ScreenID: id,
		})
		known[addr] = true
	}

	sort.Slice(m.cfg.Hosts, func(i, j int) bool {
		return m.cfg.Hosts[i].ScreenID < m.cfg.Hosts[j].ScreenID
	})

	m.log.Info("fleet discovered",
		zap.Int("hosts", len(m.cfg.Hosts)),
	)

	return nil
}
