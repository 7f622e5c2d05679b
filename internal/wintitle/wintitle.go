// Package wintitle reads the titles of top level browser windows from the
// operating system. Every failure degrades to "no signal".
package wintitle

import (
	"bytes"
	"context"
	"os/exec"
	"runtime"
	"time"

	"tab2md/internal/logger"

	"go.uber.org/zap"
)

// Probe returns the visible window titles of known browsers. ok is false
// when no signal is available.
type Probe interface {
	Titles(ctx context.Context) (titles []string, ok bool)
}

// Browser process names on Windows, application names on macOS and
// WM_CLASS fragments on X11.
var (
	DefaultProcesses = []string{"msedge", "chrome", "chromium", "brave"}
	DefaultApps      = []string{"Microsoft Edge", "Google Chrome", "Chromium", "Brave Browser"}
	DefaultClasses   = []string{"microsoft-edge", "chrome", "chromium", "brave"}
)

// SystemProbe shells out to the platform's window listing tool.
type SystemProbe struct {
	Processes []string
	Apps      []string
	Classes   []string
	Timeout   time.Duration
	Log       *zap.Logger

	goos string
	run  func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewSystemProbe returns a probe for the current platform.
func NewSystemProbe(log *zap.Logger) *SystemProbe {
	log = logger.OrNop(log)
	return &SystemProbe{
		Processes: DefaultProcesses,
		Apps:      DefaultApps,
		Classes:   DefaultClasses,
		Timeout:   2 * time.Second,
		Log:       log,
		goos:      runtime.GOOS,
		run:       runCommand,
	}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return nil, err
	}
	return stdout.Bytes(), nil
}

// Titles implements Probe.
func (p *SystemProbe) Titles(ctx context.Context) ([]string, bool) {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	var titles []string
	switch p.goos {
	case "windows":
		out, err := p.run(ctx, "powershell", "-NoProfile", "-NonInteractive", "-Command", powershellScript(p.Processes))
		if err != nil {
			p.Log.Debug("window title probe failed", zap.String("tool", "powershell"), zap.Error(err))
			return nil, false
		}
		titles = parseLines(out)
	case "darwin":
		for _, app := range p.Apps {
			out, err := p.run(ctx, "osascript", "-e", appleScript(app))
			if err != nil {
				p.Log.Debug("window title probe failed", zap.String("tool", "osascript"), zap.String("app", app), zap.Error(err))
				continue
			}
			titles = append(titles, parseLines(out)...)
		}
	case "linux", "freebsd", "openbsd", "netbsd":
		out, err := p.run(ctx, "wmctrl", "-lx")
		if err != nil {
			p.Log.Debug("window title probe failed", zap.String("tool", "wmctrl"), zap.Error(err))
			return nil, false
		}
		titles = parseWmctrl(out, p.Classes)
	default:
		return nil, false
	}

	if len(titles) == 0 {
		return nil, false
	}
	p.Log.Debug("window titles", zap.Strings("titles", titles))
	return titles, true
}
