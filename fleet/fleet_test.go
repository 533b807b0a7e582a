package fleet

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	glssh "github.com/gliderlabs/ssh"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/ssh"

	"github.com/confmeet/posterwall/conf"
)

func writeTestKey(t *testing.T) string {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	assert.NoError(t, err)

	block, err := ssh.MarshalPrivateKey(priv, "")
	assert.NoError(t, err)

	path := filepath.Join(t.TempDir(), "fleet_ed25519")
	assert.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0o600))

	return path
}

func startTestServer(t *testing.T, handler glssh.Handler) (host string, port int) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	assert.NoError(t, err)

	server := &glssh.Server{Handler: handler}
	go server.Serve(listener)
	t.Cleanup(func() { server.Close() })

	host, portStr, err := net.SplitHostPort(listener.Addr().String())
	assert.NoError(t, err)

	port, err = strconv.Atoi(portStr)
	assert.NoError(t, err)

	return host, port
}

func echoHandler(s glssh.Session) {
	io.WriteString(s, "ran: "+s.RawCommand())
}

func TestRun(t *testing.T) {
	host, port := startTestServer(t, echoHandler)

	cfg := conf.Fleet{
		Hosts: []conf.FleetHost{
			{Host: host, ScreenID: 1},
		},
		User:    "pi",
		KeyFile: writeTestKey(t),
		Port:    port,
	}

	m, err := NewManager(cfg)
	assert.NoError(t, err)

	results := m.Run(context.Background(), "uptime")
	if assert.Len(t, results, 1) {
		assert.NoError(t, results[0].Err)
		assert.Equal(t, host, results[0].Host)
		assert.Equal(t, 1, results[0].ScreenID)
		assert.Equal(t, "ran: uptime", results[0].Output)
	}
}

func TestRunFailuresDoNotAbort(t *testing.T) {
	host, port := startTestServer(t, func(s glssh.Session) {
		if s.RawCommand() == "explode" {
			s.Exit(1)
			return
		}
		io.WriteString(s, "ok")
	})

	cfg := conf.Fleet{
		Hosts: []conf.FleetHost{
			{Host: host, ScreenID: 1},
			{Host: host, ScreenID: 2},
		},
		User:    "pi",
		KeyFile: writeTestKey(t),
		Port:    port,
	}

	m, err := NewManager(cfg)
	assert.NoError(t, err)

	results := m.Run(context.Background(), "explode")
	assert.Len(t, results, 2, "one result per host, failures included")
	for _, result := range results {
		assert.Error(t, result.Err)
		assert.NotEmpty(t, result.Error)
	}
}

func TestNewManagerBadKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not_a_key")
	assert.NoError(t, os.WriteFile(path, []byte("garbage"), 0o600))

	_, err := NewManager(conf.Fleet{KeyFile: path})
	assert.Error(t, err)
}

func TestOpsCommands(t *testing.T) {
	var mu sync.Mutex
	var commands []string
	host, port := startTestServer(t, func(s glssh.Session) {
		mu.Lock()
		commands = append(commands, s.RawCommand())
		mu.Unlock()
		io.WriteString(s, "ok")
	})

	cfg := conf.Fleet{
		Hosts:       []conf.FleetHost{{Host: host, ScreenID: 7}},
		User:        "pi",
		KeyFile:     writeTestKey(t),
		Port:        port,
		CheckoutDir: "posterwall",
		ServiceName: "posterwall",
	}

	m, err := NewManager(cfg)
	assert.NoError(t, err)

	ctx := context.Background()

	results := m.Status(ctx)
	assert.NoError(t, results[0].Err)

	results = m.AssignScreenIDs(ctx)
	assert.NoError(t, results[0].Err)

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, commands, 2)
	assert.Contains(t, commands[0], "systemctl is-active posterwall")
	assert.Contains(t, commands[1], "echo 7")
}
