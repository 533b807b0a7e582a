package conf

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

var (
	Path string
	Port int

	global *Config
)

func G() *Config {
	if global == nil {
		panic("configuration not loaded")
	}

	return global
}

func ReplaceGlobals(cfg *Config) {
	global = cfg
}

func LoadEnv(cli *cli.Context) error {
	path := cli.String("path")
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return err
		}

		path = homeDir + "/.posterwall"
	}

	Path = path
	Port = cli.Int("port")
	return nil
}

func LoadConfig() (*Config, error) {
	f, err := os.Open(Path + "/config.yaml")
	if err != nil {
		f, err = os.Open(Path + "/config.example.yaml")
		if err != nil {
			return nil, err
		}
	}
	defer f.Close()

	r := NewEnvExpandedReader(f)

	var cfg *Config
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

type Config struct {
	Name        string      `yaml:"name"`
	Conference  Conference  `yaml:"conference"`
	Program     Program     `yaml:"program"`
	Display     Display     `yaml:"display"`
	Persistence Persistence `yaml:"persistence"`
	Admin       Admin       `yaml:"admin"`
	Fleet       Fleet       `yaml:"fleet"`
	NATS        NATS        `yaml:"nats"`
	Registry    Registry    `yaml:"registry"`
}

type Conference struct {
	Name     string `yaml:"name"`
	Location string `yaml:"location"`
	Dates    string `yaml:"dates"`
}

// HeaderTitle is the banner shown on top of every screen.
func (c Conference) HeaderTitle() string {
	return c.Name + " - " + c.Location + " - " + c.Dates
}

// Program points at the spreadsheet configuration and the folder holding
// the session material.
type Program struct {
	ConfigFile  string
	RootFolder  string
	DisplayDate time.Time
}

func (p *Program) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		ConfigFile  string `yaml:"configFile"`
		RootFolder  string `yaml:"rootFolder"`
		DisplayDate string `yaml:"displayDate"`
		DisplayTime string `yaml:"displayTime"`
	}

	if err := value.Decode(&raw); err != nil {
		return err
	}

	if raw.ConfigFile == "" {
		return errors.New("program config file not set")
	}

	p.ConfigFile = raw.ConfigFile

	p.RootFolder = raw.RootFolder
	if p.RootFolder == "" {
		p.RootFolder = filepath.Dir(raw.ConfigFile)
	}

	// The display date override lets a unit rehearse a given session.
	if raw.DisplayDate != "" {
		displayTime := raw.DisplayTime
		if displayTime == "" {
			displayTime = "12:00"
		}

		t, err := time.ParseInLocation("02/01/2006 15:04", raw.DisplayDate+" "+displayTime, time.Local)
		if err != nil {
			return err
		}

		p.DisplayDate = t
	}

	return nil
}

// Now returns the wall clock the program logic should use, honoring the
// display date override.
func (p *Program) Now() time.Time {
	if !p.DisplayDate.IsZero() {
		return p.DisplayDate
	}
	return time.Now()
}

type DisplayMode int

const (
	Default DisplayMode = iota
	Maximize
	Fullscreen
)

func ParseDisplayMode(mode string) (DisplayMode, error) {
	switch mode {
	case "", "default":
		return Default, nil
	case "maximize":
		return Maximize, nil
	case "fullscreen":
		return Fullscreen, nil
	default:
		return -1, errors.New("mode not supported")
	}
}

func (mode DisplayMode) String() string {
	switch mode {
	case Default:
		return "default"
	case Maximize:
		return "maximize"
	case Fullscreen:
		return "fullscreen"
	default:
		return "unknown"
	}
}

type Display struct {
	Mode            DisplayMode
	PosterWidth     int
	HeaderHeight    int
	PortraitHeight  int
	AdvanceInterval time.Duration
	PauseInterval   time.Duration
	ReloadInterval  time.Duration
	Fading          bool
}

func (d *Display) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Mode            string `yaml:"mode"`
		PosterWidth     int    `yaml:"posterWidth"`
		HeaderHeight    int    `yaml:"headerHeight"`
		PortraitHeight  int    `yaml:"portraitHeight"`
		AdvanceInterval string `yaml:"advanceInterval"`
		PauseInterval   string `yaml:"pauseInterval"`
		ReloadInterval  string `yaml:"reloadInterval"`
		Fading          bool   `yaml:"fading"`
	}

	if err := value.Decode(&raw); err != nil {
		return err
	}

	mode, err := ParseDisplayMode(raw.Mode)
	if err != nil {
		return err
	}
	d.Mode = mode

	d.PosterWidth = raw.PosterWidth
	if d.PosterWidth == 0 {
		d.PosterWidth = 1060
	}

	d.HeaderHeight = raw.HeaderHeight
	if d.HeaderHeight == 0 {
		d.HeaderHeight = 310
	}

	d.PortraitHeight = raw.PortraitHeight
	if d.PortraitHeight == 0 {
		d.PortraitHeight = 132
	}

	if d.AdvanceInterval, err = parseDuration(raw.AdvanceInterval, 30*time.Second); err != nil {
		return err
	}
	if d.PauseInterval, err = parseDuration(raw.PauseInterval, 5*time.Minute); err != nil {
		return err
	}
	if d.ReloadInterval, err = parseDuration(raw.ReloadInterval, 10*time.Second); err != nil {
		return err
	}

	d.Fading = raw.Fading
	return nil
}

func parseDuration(text string, fallback time.Duration) (time.Duration, error) {
	if text == "" {
		return fallback, nil
	}
	return time.ParseDuration(text)
}

type PersistenceDriver int

const (
	SQLite PersistenceDriver = iota
	BadgerDB
	InMem
)

func ParsePersistenceDriver(driver string) (PersistenceDriver, error) {
	switch driver {
	case "sqlite":
		return SQLite, nil
	case "badger":
		return BadgerDB, nil
	case "inmem":
		return InMem, nil
	default:
		return -1, errors.New("driver not supported")
	}
}

func (driver PersistenceDriver) String() string {
	switch driver {
	case SQLite:
		return "sqlite"
	case BadgerDB:
		return "badger"
	case InMem:
		return "inmem"
	default:
		return "unknown"
	}
}

type Persistence struct {
	Driver PersistenceDriver
	Name   string
	Host   string
	InMem  bool
}

func (p *Persistence) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Driver string `yaml:"driver"`
		Name   string `yaml:"name"`
		Host   string `yaml:"host"`
		InMem  bool   `yaml:"inmem"`
	}

	if err := value.Decode(&raw); err != nil {
		return err
	}

	driver, err := ParsePersistenceDriver(raw.Driver)
	if err != nil {
		return err
	}

	p.Driver = driver

	p.Name = raw.Name
	if p.Name == "" {
		p.Name = "posterwall"
	}

	p.Host = raw.Host
	if raw.Host == "" {
		p.Host = Path
	}

	p.InMem = raw.InMem

	return nil
}

// Admin carries the signing material for the control endpoints.
type Admin struct {
	Privkey   ed25519.PrivateKey
	Timeout   time.Duration
	Audiences []string
}

func (cfg *Admin) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Privkey   string
		Timeout   string
		Audiences []string
	}

	if err := value.Decode(&raw); err != nil {
		return err
	}

	if raw.Privkey != "" {
		priv, err := base64.StdEncoding.DecodeString(raw.Privkey)
		if err != nil {
			return err
		}

		if len(priv) != ed25519.PrivateKeySize {
			return errors.New("invalid ed25519 private key length")
		}

		cfg.Privkey = ed25519.PrivateKey(priv)
	}

	var err error
	if cfg.Timeout, err = parseDuration(raw.Timeout, 1*time.Hour); err != nil {
		return err
	}

	cfg.Audiences = raw.Audiences

	return nil
}

// FleetHost is one kiosk unit and the screen it drives.
type FleetHost struct {
	Host     string `yaml:"host"`
	ScreenID int    `yaml:"screenId"`
}

type Fleet struct {
	Hosts       []FleetHost
	User        string
	KeyFile     string
	Port        int
	CheckoutDir string
	ServiceName string
}

func (f *Fleet) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Hosts       []FleetHost `yaml:"hosts"`
		User        string      `yaml:"user"`
		KeyFile     string      `yaml:"keyFile"`
		Port        int         `yaml:"port"`
		CheckoutDir string      `yaml:"checkoutDir"`
		ServiceName string      `yaml:"serviceName"`
	}

	if err := value.Decode(&raw); err != nil {
		return err
	}

	f.Hosts = raw.Hosts

	f.User = raw.User
	if f.User == "" {
		f.User = "pi"
	}

	f.KeyFile = raw.KeyFile
	if f.KeyFile == "" {
		f.KeyFile = filepath.Join(Path, "fleet_ed25519")
	}

	f.Port = raw.Port
	if f.Port == 0 {
		f.Port = 22
	}

	f.CheckoutDir = raw.CheckoutDir
	if f.CheckoutDir == "" {
		f.CheckoutDir = "posterwall"
	}

	f.ServiceName = raw.ServiceName
	if f.ServiceName == "" {
		f.ServiceName = "posterwall"
	}

	return nil
}

type NATS struct {
	URL   string `yaml:"url"`
	Creds string `yaml:"creds"`
}

type Registry struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
	Service string `yaml:"service"`
}
