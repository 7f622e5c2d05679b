package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"tab2md/internal/browser"
	"tab2md/internal/config"
	"tab2md/internal/pipeline"
	"tab2md/internal/tab"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyFlagsOnlyOverridesChangedFlags(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--format", "json", "--no-window-titles", "--extract-timeout", "5s"}))

	cfg := config.Default()
	cfg.OutputDir = "from-file"
	applyFlags(cmd.Flags(), cfg)

	assert.Equal(t, "json", cfg.Format)
	assert.False(t, cfg.WindowTitles)
	assert.Equal(t, 5*time.Second, cfg.ExtractTimeout)
	assert.Equal(t, "from-file", cfg.OutputDir)
	assert.Equal(t, config.DefaultEndpoint, cfg.Endpoint)
}

func TestRunOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Endpoint = "http://127.0.0.1:9333/"

	opts, err := runOptions(cfg, "geekbang")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9333", opts.Endpoint)
	assert.Equal(t, "geekbang", opts.Strategy)
	assert.True(t, opts.WindowTitles)

	_, err = runOptions(cfg, "nope")
	assert.ErrorContains(t, err, "unknown strategy")
}

type stubPage struct{ url, title string }

func (p stubPage) URL() string   { return p.url }
func (p stubPage) Title() string { return p.title }

func (p stubPage) Signals(context.Context) (browser.Signals, error) {
	return browser.Signals{}, nil
}

func (p stubPage) HTML(context.Context) (string, error) { return "", nil }

func TestPrintCards(t *testing.T) {
	cards := []tab.ScoreCard{
		{Index: 0, Page: stubPage{url: "about:blank"}, Score: -1},
		{Index: 1, Page: stubPage{url: "https://a.example", title: "A"}, Score: 5,
			Signals: browser.Signals{Visibility: browser.VisibilityVisible, HasFocus: true}},
	}
	res := tab.Result{Cards: cards, Card: &cards[1], Page: cards[1].Page, Reason: tab.ReasonScore}

	var buf bytes.Buffer
	printCards(&buf, res)
	out := buf.String()
	assert.Contains(t, out, "#1 score=5 visibility=visible focus=true")
	assert.Contains(t, out, "https://a.example")
	assert.Contains(t, out, "selected #1 by score")

	buf.Reset()
	printCards(&buf, tab.Result{Reason: tab.ReasonNone})
	assert.True(t, strings.HasSuffix(buf.String(), "no candidate tab\n"))
}

func TestExitCodes(t *testing.T) {
	assert.Equal(t, 0, pipeline.ExitCode(nil))
	assert.Equal(t, 1, pipeline.ExitCode(errors.New("bad flag")))
}
