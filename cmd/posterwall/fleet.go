package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/urfave/cli/v2"

	"github.com/confmeet/posterwall/conf"
	"github.com/confmeet/posterwall/fleet"
	"github.com/confmeet/posterwall/slideshow"

	transPubSub "github.com/confmeet/posterwall/transport/pubsub"
)

var fleetCmd = &cli.Command{
	Name:  "fleet",
	Usage: "Manage the screen units over SSH",
	Subcommands: []*cli.Command{
		{
			Name:      "run",
			Usage:     "Run a shell command on every unit",
			ArgsUsage: "<command>",
			Action: fleetAction(func(ctx *cli.Context, m *fleet.Manager) []fleet.Result {
				command := strings.Join(ctx.Args().Slice(), " ")
				return m.Run(ctx.Context, command)
			}),
		},
		{
			Name:  "status",
			Usage: "Report service state and uptime of every unit",
			Action: fleetAction(func(ctx *cli.Context, m *fleet.Manager) []fleet.Result {
				return m.Status(ctx.Context)
			}),
		},
		{
			Name:  "update",
			Usage: "Update the checkout and restart the service on every unit",
			Action: fleetAction(func(ctx *cli.Context, m *fleet.Manager) []fleet.Result {
				return m.Update(ctx.Context)
			}),
		},
		{
			Name:  "restart",
			Usage: "Restart the display service on every unit",
			Action: fleetAction(func(ctx *cli.Context, m *fleet.Manager) []fleet.Result {
				return m.Restart(ctx.Context)
			}),
		},
		{
			Name:  "sync-clock",
			Usage: "Push this machine's clock to every unit",
			Action: fleetAction(func(ctx *cli.Context, m *fleet.Manager) []fleet.Result {
				return m.SyncClock(ctx.Context, time.Now())
			}),
		},
		{
			Name:  "assign-screens",
			Usage: "Write each unit's screen ID to its identity file",
			Action: fleetAction(func(ctx *cli.Context, m *fleet.Manager) []fleet.Result {
				return m.AssignScreenIDs(ctx.Context)
			}),
		},
		{
			Name:  "reboot",
			Usage: "Reboot every unit",
			Action: fleetAction(func(ctx *cli.Context, m *fleet.Manager) []fleet.Result {
				return m.Reboot(ctx.Context)
			}),
		},
		{
			Name:  "shutdown",
			Usage: "Power every unit off",
			Action: fleetAction(func(ctx *cli.Context, m *fleet.Manager) []fleet.Result {
				return m.Shutdown(ctx.Context)
			}),
		},
		{
			Name:  "screens",
			Usage: "Show what every screen is displaying right now",
			Action: func(ctx *cli.Context) error {
				log, err := loadConfAndLogger(ctx)
				if err != nil {
					return err
				}
				defer log.Sync()

				cfg := conf.G()

				m, err := fleet.NewManager(cfg.Fleet)
				if err != nil {
					return err
				}

				if cfg.Registry.Enabled {
					if err := m.Discover(cfg.Registry); err != nil {
						return err
					}
				}

				opts := []nats.Option{nats.Name(cfg.Name)}
				if creds := cfg.NATS.Creds; creds != "" {
					opts = append(opts, nats.UserCredentials(creds))
				}

				nc, err := nats.Connect(cfg.NATS.URL, opts...)
				if err != nil {
					return err
				}
				defer nc.Close()

				factory := transPubSub.StatusFactory(nc)

				for _, host := range m.Hosts() {
					instance := fmt.Sprintf("posterwall.screen.%d", host.ScreenID)

					endpoint, _, err := factory(instance)
					if err != nil {
						return err
					}

					resp, err := endpoint(ctx.Context, nil)
					if err != nil {
						fmt.Printf("[screen %02d] %s: FAILED: %s\n", host.ScreenID, host.Host, err)
						continue
					}

					frame := resp.(*slideshow.Frame)
					line := fmt.Sprintf("[screen %02d] %s: %s", host.ScreenID, host.Host, frame.State)
					if frame.Poster != nil {
						line += fmt.Sprintf(", poster %03d (%d/%d)",
							frame.Poster.FriendlyID, frame.Index+1, frame.Total)
					}
					fmt.Println(line)
				}

				return nil
			},
		},
		{
			Name:  "reload",
			Usage: "Broadcast a program reload over NATS",
			Action: func(ctx *cli.Context) error {
				log, err := loadConfAndLogger(ctx)
				if err != nil {
					return err
				}
				defer log.Sync()

				cfg := conf.G()

				opts := []nats.Option{nats.Name(cfg.Name)}
				if creds := cfg.NATS.Creds; creds != "" {
					opts = append(opts, nats.UserCredentials(creds))
				}

				nc, err := nats.Connect(cfg.NATS.URL, opts...)
				if err != nil {
					return err
				}
				defer nc.Close()

				return transPubSub.BroadcastReload(nc)
			},
		},
	},
}

func fleetAction(op func(*cli.Context, *fleet.Manager) []fleet.Result) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		log, err := loadConfAndLogger(ctx)
		if err != nil {
			return err
		}
		defer log.Sync()

		cfg := conf.G()

		m, err := fleet.NewManager(cfg.Fleet)
		if err != nil {
			return err
		}

		if cfg.Registry.Enabled {
			if err := m.Discover(cfg.Registry); err != nil {
				return err
			}
		}

		var failed int
		for _, result := range op(ctx, m) {
			status := "ok"
			if result.Err != nil {
				status = "FAILED: " + result.Error
				failed++
			}

			fmt.Printf("[screen %02d] %s: %s\n", result.ScreenID, result.Host, status)
			if out := strings.TrimSpace(result.Output); out != "" {
				fmt.Println(indent(out))
			}
		}

		if failed > 0 {
			return fmt.Errorf("%d host(s) failed", failed)
		}

		return nil
	}
}

func indent(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = "    " + line
	}
	return strings.Join(lines, "\n")
}
