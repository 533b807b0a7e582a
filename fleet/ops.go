package fleet

import (
	"context"
	"fmt"
	"time"
)

// Status reports the display service state and uptime of every host.
func (m *Manager) Status(ctx context.Context) []Result {
	cmd := fmt.Sprintf("systemctl is-active %s; uptime", m.cfg.ServiceName)
	return m.Run(ctx, cmd)
}

// Update refreshes the checkout on every host and restarts the
// display service.
func (m *Manager) Update(ctx context.Context) []Result {
	cmd := fmt.Sprintf("cd %s && git pull --ff-only && sudo systemctl restart %s",
		m.cfg.CheckoutDir, m.cfg.ServiceName)
	return m.Run(ctx, cmd)
}

// Restart restarts the display service on every host.
func (m *Manager) Restart(ctx context.Context) []Result {
	cmd := fmt.Sprintf("sudo systemctl restart %s", m.cfg.ServiceName)
	return m.Run(ctx, cmd)
}

// Reboot reboots every host. Screens come back on their own once the
// display service starts at boot.
func (m *Manager) Reboot(ctx context.Context) []Result {
	return m.Run(ctx, "sudo reboot")
}

// Shutdown powers every host off, typically at the end of a
// conference day.
func (m *Manager) Shutdown(ctx context.Context) []Result {
	return m.Run(ctx, "sudo poweroff")
}

// SyncClock pushes the controller's clock to every host. The screens
// have no RTC, so a venue without NTP drifts badly between days.
func (m *Manager) SyncClock(ctx context.Context, now time.Time) []Result {
	cmd := fmt.Sprintf("sudo date -u -s '%s'", now.UTC().Format("2006-01-02 15:04:05"))
	return m.Run(ctx, cmd)
}

// AssignScreenIDs writes each host's configured screen ID to its
// identity file, read by the display service at start.
func (m *Manager) AssignScreenIDs(ctx context.Context) []Result {
	results := make([]Result, len(m.cfg.Hosts))
	for i, host := range m.cfg.Hosts {
		cmd := fmt.Sprintf("echo %d | sudo tee /etc/screen-id >/dev/null && cat /etc/screen-id",
			host.ScreenID)
		results[i] = m.runOne(ctx, host, cmd)
	}
	return results
}
