// Package daemon locates and restarts a running centy-daemon process
// after an install replaces its binary.
//
// The daemon records its PID at ~/.centy/daemon.pid. Lookup trusts the
// PID file when it names a live process and otherwise falls back to a
// process-table scan by executable name, so a stale or missing PID
// file never prevents a restart.
package daemon

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/centy-io/centy-installer/internal/config"
)

const (
	// PIDFileName is the PID file the daemon writes under ~/.centy.
	PIDFileName = "daemon.pid"

	// processName is the daemon executable name without the Windows
	// suffix.
	processName = "centy-daemon"
)

const (
	stopPollInterval = 500 * time.Millisecond
	stopPollAttempts = 10
)

// Controller finds, stops, and starts the daemon process.
type Controller struct {
	centyDir string
	log      config.Logger
}

// NewController creates a Controller rooted at centyDir (~/.centy in
// production). A nil logger is replaced with a no-op logger.
func NewController(centyDir string, logger config.Logger) *Controller {
	if logger == nil {
		logger = config.NopLogger()
	}
	return &Controller{centyDir: centyDir, log: logger}
}

// RestartIfRunning restarts the daemon when one is running, so a fresh
// install takes effect immediately. It returns true if a daemon was
// found and restarted, false if none was running. An error means a
// daemon was found but could not be stopped or started again.
func (c *Controller) RestartIfRunning(ctx context.Context, binaryPath string) (bool, error) {
	pid, found := c.findPID(ctx)
	if !found {
		c.log.Debug("no running daemon found")
		return false, nil
	}

	c.log.Info("restarting daemon", "pid", pid)
	if err := c.stop(ctx, pid); err != nil {
		return false, err
	}
	if err := c.start(binaryPath); err != nil {
		return false, err
	}
	return true, nil
}

// findPID locates a running daemon, preferring the PID file over a
// process-table scan.
func (c *Controller) findPID(ctx context.Context) (int32, bool) {
	if pid, ok := readPIDFile(filepath.Join(c.centyDir, PIDFileName)); ok {
		if running, err := process.PidExistsWithContext(ctx, pid); err == nil && running {
			return pid, true
		}
		c.log.Debug("stale PID file ignored", "pid", pid)
	}
	return findByName(ctx)
}

// readPIDFile parses a PID file. Missing or malformed files are not
// errors, only a negative lookup.
func readPIDFile(path string) (int32, bool) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.ParseInt(strings.TrimSpace(string(contents)), 10, 32)
	if err != nil || pid <= 0 {
		return 0, false
	}
	return int32(pid), true
}

// findByName scans the process table for the daemon executable.
func findByName(ctx context.Context) (int32, bool) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return 0, false
	}
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		if name == processName || name == processName+".exe" {
			return p.Pid, true
		}
	}
	return 0, false
}

// stop terminates the daemon, waiting for a graceful exit before
// escalating to a forced kill.
func (c *Controller) stop(ctx context.Context, pid int32) error {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return fmt.Errorf("daemon process %d: %w", pid, err)
	}

	if err := p.TerminateWithContext(ctx); err != nil {
		return fmt.Errorf("terminate daemon (pid %d): %w", pid, err)
	}

	for i := 0; i < stopPollAttempts; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(stopPollInterval):
		}
		if running, err := process.PidExistsWithContext(ctx, pid); err == nil && !running {
			return nil
		}
	}

	c.log.Warn("daemon did not exit gracefully, killing", "pid", pid)
	if err := p.KillWithContext(ctx); err != nil {
		return fmt.Errorf("kill daemon (pid %d): %w", pid, err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(stopPollInterval):
	}
	if running, err := process.PidExistsWithContext(ctx, pid); err == nil && running {
		return fmt.Errorf("daemon (pid %d) still running after forced kill", pid)
	}
	return nil
}

// start launches the daemon detached from the installer.
func (c *Controller) start(binaryPath string) error {
	cmd := exec.Command(binaryPath)
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start daemon %s: %w", binaryPath, err)
	}
	// The daemon outlives the installer; releasing avoids holding a
	// handle that would leave a zombie on exit.
	if err := cmd.Process.Release(); err != nil {
		return fmt.Errorf("release daemon process: %w", err)
	}
	c.log.Info("daemon started", "path", binaryPath)
	return nil
}
