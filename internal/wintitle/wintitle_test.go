package wintitle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseWmctrl(t *testing.T) {
	out := []byte(`0x01e00003 -1 xfce4-panel.Xfce4-panel  box xfce4-panel
0x03a00003  0 google-chrome.Google-chrome  box Go by Example - Google Chrome
0x04200001  0 microsoft-edge.Microsoft-edge  box 极客时间  -  Microsoft Edge
0x05000007  0 org.gnome.Terminal.Gnome-terminal  box chrome in a terminal title
0x05000009  0 brave-browser.Brave-browser  box
`)

	titles := parseWmctrl(out, DefaultClasses)

	assert.Equal(t, []string{
		"Go by Example - Google Chrome",
		"极客时间  -  Microsoft Edge",
	}, titles)
}

func TestParseLines(t *testing.T) {
	assert.Equal(t, []string{"a", "b c"}, parseLines([]byte("a\r\n\n  b c  \n")))
	assert.Empty(t, parseLines(nil))
}

func TestPowershellScriptNamesProcesses(t *testing.T) {
	script := powershellScript([]string{"msedge", "chrome"})
	assert.Contains(t, script, "Get-Process -Name msedge,chrome")
	assert.Contains(t, script, "MainWindowTitle")
}

func TestAppleScriptQuotesApp(t *testing.T) {
	script := appleScript("Google Chrome")
	assert.Contains(t, script, `exists process "Google Chrome"`)
}

func newTestProbe(goos string, run func(ctx context.Context, name string, args ...string) ([]byte, error)) *SystemProbe {
	p := NewSystemProbe(zap.NewNop())
	p.goos = goos
	p.run = run
	return p
}

func TestTitlesLinux(t *testing.T) {
	p := newTestProbe("linux", func(_ context.Context, name string, args ...string) ([]byte, error) {
		assert.Equal(t, "wmctrl", name)
		return []byte("0x1  0 chromium.Chromium  box Docs - Chromium\n"), nil
	})

	titles, ok := p.Titles(context.Background())
	require.True(t, ok)
	assert.Equal(t, []string{"Docs - Chromium"}, titles)
}

func TestTitlesDarwinSkipsFailingApps(t *testing.T) {
	p := newTestProbe("darwin", func(_ context.Context, name string, args ...string) ([]byte, error) {
		if args[1] == appleScript("Google Chrome") {
			return []byte("Inbox\nNews\n"), nil
		}
		return nil, errors.New("not allowed")
	})

	titles, ok := p.Titles(context.Background())
	require.True(t, ok)
	assert.Equal(t, []string{"Inbox", "News"}, titles)
}

func TestTitlesDegradeToNoSignal(t *testing.T) {
	failing := func(context.Context, string, ...string) ([]byte, error) {
		return nil, errors.New("executable file not found")
	}
	empty := func(context.Context, string, ...string) ([]byte, error) {
		return []byte("\n"), nil
	}

	for _, goos := range []string{"windows", "linux", "darwin"} {
		_, ok := newTestProbe(goos, failing).Titles(context.Background())
		assert.False(t, ok, goos)
		_, ok = newTestProbe(goos, empty).Titles(context.Background())
		assert.False(t, ok, goos)
	}

	_, ok := newTestProbe("plan9", empty).Titles(context.Background())
	assert.False(t, ok)
}

func TestNewSystemProbeWithoutLogger(t *testing.T) {
	p := NewSystemProbe(nil)
	require.NotNil(t, p.Log)
	p.run = func(context.Context, string, ...string) ([]byte, error) {
		return nil, errors.New("no display")
	}
	_, ok := p.Titles(context.Background())
	assert.False(t, ok)
}
