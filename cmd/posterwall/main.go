package main

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/micro"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/confmeet/posterwall"
	"github.com/confmeet/posterwall/assets"
	"github.com/confmeet/posterwall/conf"
	"github.com/confmeet/posterwall/persistence"
	"github.com/confmeet/posterwall/policy"
	"github.com/confmeet/posterwall/program"
	"github.com/confmeet/posterwall/registry"
	"github.com/confmeet/posterwall/slideshow"

	transHTTP "github.com/confmeet/posterwall/transport/http"
	transPubSub "github.com/confmeet/posterwall/transport/pubsub"
)

var (
	Version   string = "0.0.0"
	BuildTime string
	GitCommit string
)

var versionCmd = &cli.Command{
	Name:    "version",
	Aliases: []string{"ver", "v"},
	Usage:   "Show version",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "all",
			Aliases: []string{"a"},
			Usage:   "Show all information (include: Version, BuildTime, GitCommit)",
			Value:   false,
		},
	},
	Action: func(ctx *cli.Context) error {
		if !ctx.Bool("all") {
			fmt.Println(ctx.App.Version)
		} else {
			cli.ShowVersion(ctx)
		}
		return nil
	},
}

var genkeyCmd = &cli.Command{
	Name:  "genkey",
	Usage: "Generate a new ed25519 key pair",
	Action: func(ctx *cli.Context) error {
		pub, priv, err := ed25519.GenerateKey(nil)
		if err != nil {
			return fmt.Errorf("failed to generate key pair: %w", err)
		}

		basedPriv := base64.StdEncoding.EncodeToString(priv)
		basedPub := base64.StdEncoding.EncodeToString(pub)

		fmt.Printf("Public Key: %s\n", basedPub)
		fmt.Printf("Private Key: %s\n", basedPriv)

		return nil
	},
}

var tokenCmd = &cli.Command{
	Name:  "token",
	Usage: "Mint an admin token for the control endpoints",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "subject",
			Usage: "Token subject (who is steering the wall)",
			Value: "operator",
		},
	},
	Action: func(ctx *cli.Context) error {
		if err := loadConf(ctx); err != nil {
			return err
		}

		cfg := conf.G()
		transHTTP.Init(cfg.Name, firstAudience(cfg.Admin.Audiences), cfg.Admin.Privkey)

		token, expiredAt, err := transHTTP.IssueToken(ctx.String("subject"))
		if err != nil {
			return err
		}

		fmt.Println(token)
		fmt.Println("expires:", expiredAt.Format(time.RFC3339))
		return nil
	},
}

var importCmd = &cli.Command{
	Name:  "import",
	Usage: "Import the program workbook into the repository",
	Action: func(ctx *cli.Context) error {
		log, err := loadConfAndLogger(ctx)
		if err != nil {
			return err
		}
		defer log.Sync()

		cfg := conf.G()

		repo, err := persistence.NewProgramRepository(cfg.Persistence)
		if err != nil {
			return err
		}
		defer repo.Close()

		library := assets.NewLibrary(cfg.Program.RootFolder)

		svc := posterwall.NewService(repo, library, cfg.Program)
		svc = posterwall.LoggingMiddleware(log)(svc)

		return svc.Reload()
	},
}

var reportCmd = &cli.Command{
	Name:  "report",
	Usage: "Check the program against the material on disk",
	Action: func(ctx *cli.Context) error {
		log, err := loadConfAndLogger(ctx)
		if err != nil {
			return err
		}
		defer log.Sync()

		cfg := conf.G()

		wb, err := program.LoadWorkbook(cfg.Program.ConfigFile)
		if err != nil {
			return err
		}

		library := assets.NewLibrary(cfg.Program.RootFolder)

		report := program.BuildReport(wb.Sessions, wb.Posters, library)
		report.Log(log)
		return nil
	},
}

var placeholdersCmd = &cli.Command{
	Name:  "placeholders",
	Usage: "Generate synthetic poster images for a rehearsal run",
	Action: func(ctx *cli.Context) error {
		log, err := loadConfAndLogger(ctx)
		if err != nil {
			return err
		}
		defer log.Sync()

		cfg := conf.G()

		wb, err := program.LoadWorkbook(cfg.Program.ConfigFile)
		if err != nil {
			return err
		}

		var ids []int
		for _, posters := range wb.Posters {
			for _, p := range posters {
				ids = append(ids, p.FriendlyID)
			}
		}

		folder := filepath.Join(cfg.Program.RootFolder, assets.PosterFolder)
		return assets.WritePlaceholders(folder, ids,
			cfg.Display.PosterWidth, cfg.Display.PosterWidth*4/3)
	},
}

func main() {
	cli.VersionPrinter = func(cli *cli.Context) {
		fmt.Println("Version: " + cli.App.Version)
		fmt.Println("BuildTime: " + BuildTime)
		fmt.Println("GitCommit: " + GitCommit)
	}

	app := &cli.App{
		Name:    "posterwall",
		Usage:   "Conference poster display wall",
		Version: Version,
		Commands: []*cli.Command{
			importCmd,
			reportCmd,
			indicoCmd,
			placeholdersCmd,
			fleetCmd,
			tokenCmd,
			genkeyCmd,
			versionCmd,
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "path",
				Usage:   "Specifies the working directory",
				EnvVars: []string{"POSTERWALL_PATH"},
			},
			&cli.IntFlag{
				Name:    "port",
				Usage:   "Specifies the HTTP service port",
				Value:   8080,
				EnvVars: []string{"POSTERWALL_HTTP_PORT"},
			},
			&cli.IntFlag{
				Name:    "screen",
				Usage:   "Specifies the screen this unit drives",
				Value:   1,
				EnvVars: []string{"POSTERWALL_SCREEN_ID"},
			},
			&cli.StringFlag{
				Name:    "nats",
				EnvVars: []string{"NATS_URL"},
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}

	time.Sleep(300 * time.Millisecond)
}

func loadConf(cli *cli.Context) error {
	if err := conf.LoadEnv(cli); err != nil {
		return err
	}

	cfg, err := conf.LoadConfig()
	if err != nil {
		return err
	}
	conf.ReplaceGlobals(cfg)

	return nil
}

func loadConfAndLogger(cli *cli.Context) (*zap.Logger, error) {
	if err := loadConf(cli); err != nil {
		return nil, err
	}

	log, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}

	zap.ReplaceGlobals(log)
	return log, nil
}

func firstAudience(audiences []string) string {
	if len(audiences) == 0 {
		return "operators"
	}
	return audiences[0]
}

func run(cli *cli.Context) error {
	log, err := loadConfAndLogger(cli)
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg := conf.G()
	screenID := cli.Int("screen")

	// Add Persistence
	repo, err := persistence.NewProgramRepository(cfg.Persistence)
	if err != nil {
		log.Error(err.Error(),
			zap.String("infra", "persistence"),
			zap.String("driver", cfg.Persistence.Driver.String()),
		)
		return err
	}
	defer repo.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Add Service and Middlewares
	library := assets.NewLibrary(cfg.Program.RootFolder)

	svc := posterwall.NewService(repo, library, cfg.Program)
	svc = posterwall.LoggingMiddleware(log)(svc)

	if sessions, err := svc.Sessions(); err != nil || len(sessions) == 0 {
		log.Info("empty repository, importing program")
		if err := svc.Reload(); err != nil {
			log.Error(err.Error(), zap.String("infra", "import"))
			return err
		}
	}

	// Add Endpoints
	endpoints := posterwall.EndpointSet{
		Sessions:     posterwall.SessionsEndpoint(svc),
		Posters:      posterwall.PostersEndpoint(svc),
		Poster:       posterwall.PosterEndpoint(svc),
		Roster:       posterwall.RosterEndpoint(svc),
		RandomPoster: posterwall.RandomPosterEndpoint(svc),
		Reload:       posterwall.ReloadEndpoint(svc),
		Report:       posterwall.ReportEndpoint(svc),
	}

	// Add Slideshow
	engine := slideshow.NewEngine(screenID, cfg.Display, cfg.Program, repo, library)
	go engine.Run(ctx, cfg.Program.RootFolder)

	// Add PubSub Transport
	natsURL := cli.String("nats")
	if natsURL == "" {
		natsURL = cfg.NATS.URL
	}

	if natsURL != "" {
		opts := []nats.Option{nats.Name(cfg.Name)}
		if creds := cfg.NATS.Creds; creds != "" {
			opts = append(opts, nats.UserCredentials(creds))
		}

		nc, err := nats.Connect(natsURL, opts...)
		if err != nil {
			log.Error(err.Error(), zap.String("infra", "pubsub"))
			return err
		}
		defer nc.Close()

		log.Info("connected", zap.String("infra", "pubsub"))

		srv, err := micro.AddService(nc, micro.Config{
			Name:        "posterwall",
			Version:     Version,
			Description: "Conference poster display wall",
			Metadata: map[string]string{
				"screen_id": strconv.Itoa(screenID),
			},
		})
		if err != nil {
			return err
		}

		root := srv.AddGroup(fmt.Sprintf("posterwall.screen.%d", screenID))

		// SUB posterwall.screen.<id>.reload
		root.AddEndpoint("reload", transPubSub.ReloadHandler(endpoints.Reload))

		// SUB posterwall.screen.<id>.status
		root.AddEndpoint("status", transPubSub.StatusHandler(engine))

		// SUB posterwall.screen.<id>.report
		root.AddEndpoint("report", transPubSub.ReportHandler(endpoints.Report))

		// SUB posterwall.reload
		sub, err := transPubSub.SubscribeReload(nc, endpoints.Reload, engine)
		if err != nil {
			return err
		}
		defer sub.Unsubscribe()
	}

	// Add HTTP Transport
	transHTTP.Init(cfg.Name, firstAudience(cfg.Admin.Audiences), cfg.Admin.Privkey)

	policyPath := ""
	if custom := filepath.Join(conf.Path, "admin.rego"); exists(custom) {
		policyPath = custom
	}

	adminPolicy, err := policy.New(ctx, policyPath)
	if err != nil {
		return err
	}

	r := gin.New()
	r.Use(ginzap.Ginzap(log, time.RFC3339, true))
	r.Use(ginzap.RecoveryWithZap(log, true))

	api := r.Group("/posterwall")
	{
		// GET /posterwall/healthz
		api.GET("/healthz", transHTTP.HealthHandler)

		// GET /posterwall/kiosk
		api.GET("/kiosk", transHTTP.KioskHandler)

		// GET /posterwall/frame
		api.GET("/frame", transHTTP.FrameHandler(engine))

		// POST /posterwall/control/:action
		api.POST("/control/:action", transHTTP.ControlHandler(engine, screenID, adminPolicy))

		// GET /posterwall/sessions
		api.GET("/sessions", transHTTP.SessionsHandler(endpoints.Sessions))

		// GET /posterwall/sessions/:session/posters
		api.GET("/sessions/:session/posters", transHTTP.PostersHandler(endpoints.Posters))

		// GET /posterwall/fallback
		api.GET("/fallback", transHTTP.FallbackImageHandler(library))

		// GET /posterwall/posters/random
		api.GET("/posters/random", transHTTP.RandomPosterHandler(endpoints.RandomPoster))

		// GET /posterwall/posters/:poster
		api.GET("/posters/:poster", transHTTP.PosterHandler(endpoints.Poster))

		// GET /posterwall/posters/:poster/image
		api.GET("/posters/:poster/image", transHTTP.PosterImageHandler(library))

		// GET /posterwall/posters/:poster/portrait
		api.GET("/posters/:poster/portrait", transHTTP.PortraitImageHandler(library))

		// GET /posterwall/posters/:poster/qrcode
		api.GET("/posters/:poster/qrcode", transHTTP.QRCodeImageHandler(library))

		// GET /posterwall/screens/:screen/roster
		api.GET("/screens/:screen/roster", transHTTP.RosterHandler(endpoints.Roster))

		// GET /posterwall/report
		api.GET("/report", transHTTP.ReportHandler(endpoints.Report))
	}

	go r.Run(":" + strconv.Itoa(conf.Port))

	// Add Registry
	if cfg.Registry.Enabled {
		reg, err := registry.Register(cfg.Registry, conf.Port, screenID)
		if err != nil {
			log.Error(err.Error(), zap.String("infra", "registry"))
		} else {
			defer reg.Deregister()
		}
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sign := <-quit

	log.Info("shutdown", zap.String("signal", sign.String()))
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
