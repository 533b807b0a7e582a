// Package fleet manages the screens of the poster wall over SSH.
package fleet

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"

	"github.com/confmeet/posterwall/conf"
)

// Result is the outcome of one command on one host.
type Result struct {
	Host     string `json:"host"`
	ScreenID int    `json:"screen_id"`
	Output   string `json:"output"`
	Err      error  `json:"-"`
	Error    string `json:"error,omitempty"`
}

// Manager fans commands out to every configured screen host.
type Manager struct {
	cfg    conf.Fleet
	signer ssh.Signer
	dial   func(network, addr string, config *ssh.ClientConfig) (*ssh.Client, error)
	log    *zap.Logger
}

func NewManager(cfg conf.Fleet) (*Manager, error) {
	key, err := os.ReadFile(cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("fleet key: %w", err)
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("fleet key: %w", err)
	}

	log := zap.L().With(
		zap.String("package", "fleet"),
	)

	return &Manager{
		cfg:    cfg,
		signer: signer,
		dial:   ssh.Dial,
		log:    log,
	}, nil
}

// Hosts lists the configured screen hosts.
func (m *Manager) Hosts() []conf.FleetHost {
	return m.cfg.Hosts
}

// Run executes a shell command on every host in parallel and collects
// one result per host, in configuration order.
func (m *Manager) Run(ctx context.Context, command string) []Result {
	results := make([]Result, len(m.cfg.Hosts))

	var wg sync.WaitGroup
	for i, host := range m.cfg.Hosts {
		wg.Add(1)
		go func(i int, host conf.FleetHost) {
			defer wg.Done()
			results[i] = m.runOne(ctx, host, command)
		}(i, host)
	}
	wg.Wait()

	return results
}

func (m *Manager) runOne(ctx context.Context, host conf.FleetHost, command string) Result {
	result := Result{
		Host:     host.Host,
		ScreenID: host.ScreenID,
	}

	out, err := m.execute(ctx, host, command)
	result.Output = out
	if err != nil {
		result.Err = err
		result.Error = err.Error()
		m.log.Error("command failed",
			zap.String("host", host.Host),
			zap.Error(err),
		)
	}

	return result
}

func (m *Manager) execute(ctx context.Context, host conf.FleetHost, command string) (string, error) {
	config := &ssh.ClientConfig{
		User: m.cfg.User,
		Auth: []ssh.AuthMethod{
			ssh.PublicKeys(m.signer),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         10 * time.Second,
	}

	addr := net.JoinHostPort(host.Host, strconv.Itoa(m.cfg.Port))

	client, err := m.dial("tcp", addr, config)
	if err != nil {
		return "", fmt.Errorf("dial %s: %w", addr, err)
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return "", err
	}
	defer session.Close()

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			session.Close()
		case <-done:
		}
	}()
	defer close(done)

	out, err := session.CombinedOutput(command)
	return string(out), err
}
