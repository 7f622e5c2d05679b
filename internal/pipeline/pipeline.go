// Package pipeline converts the active browser tab into a file: connect,
// resolve the tab, pick a strategy, extract, write.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tab2md/internal/browser"
	"tab2md/internal/extractor"
	"tab2md/internal/formatter"
	"tab2md/internal/logger"
	"tab2md/internal/output"
	"tab2md/internal/strategy"
	"tab2md/internal/tab"
	"tab2md/internal/wintitle"

	"go.uber.org/zap"
)

// Options are the per-run settings.
type Options struct {
	Endpoint       string
	ConnectTimeout time.Duration
	ExtractTimeout time.Duration
	WindowTitles   bool
	MinWordCount   int    // overrides the strategy threshold when > 0
	Strategy       string // forces a strategy by name when set
	Format         string
	SnapshotDir    string
	KeepSnapshot   bool
	Open           bool
}

// Outcome describes a successful run.
type Outcome struct {
	URL      string
	Title    string
	Strategy string
	Reason   tab.Reason
	Path     string
}

// Pipeline wires the collaborators of a run. Probe and Opener may be nil.
type Pipeline struct {
	Connector browser.Connector
	Probe     wintitle.Probe
	Extractor extractor.Extractor
	Writer    *output.Writer
	Opener    func(path string) error
	Log       *zap.Logger

	resolver *tab.Resolver
}

// New creates a Pipeline.
func New(connector browser.Connector, probe wintitle.Probe, ext extractor.Extractor, writer *output.Writer, log *zap.Logger) *Pipeline {
	log = logger.OrNop(log)
	return &Pipeline{
		Connector: connector,
		Probe:     probe,
		Extractor: ext,
		Writer:    writer,
		Opener:    output.OpenViewer,
		Log:       log,
		resolver:  tab.NewResolver(log),
	}
}

// Run converts the active tab. The browser connection is released on every
// return path.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Outcome, error) {
	session, err := p.connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	defer p.release(session)

	res, err := p.resolve(ctx, session, opts)
	if err != nil {
		return nil, err
	}
	page := res.Page
	p.Log.Info("resolved active tab",
		zap.String("url", page.URL()),
		zap.String("title", page.Title()),
		zap.String("reason", string(res.Reason)),
	)

	raw, err := page.HTML(ctx)
	if err != nil {
		return nil, newError(KindConnection, "capture", err)
	}

	s, err := p.pick(page.URL(), opts.Strategy)
	if err != nil {
		return nil, err
	}
	p.Log.Info("using strategy", zap.String("strategy", s.Name))

	prepared, cfg, err := s.Prepare(page.URL(), raw)
	if err != nil {
		return nil, newError(KindExtraction, "prepare", err)
	}
	if opts.MinWordCount > 0 {
		cfg.MinWordCount = opts.MinWordCount
	}

	snap, err := output.WriteSnapshot(opts.SnapshotDir, prepared, opts.KeepSnapshot, p.Log)
	if err != nil {
		return nil, newError(KindOutput, "snapshot", err)
	}
	defer snap.Remove()

	markdown, err := p.extract(ctx, snap.URI(), cfg, opts.ExtractTimeout)
	if err != nil {
		return nil, err
	}

	doc := formatter.Document{URL: page.URL(), Title: page.Title(), Strategy: s.Name, Markdown: markdown}
	ext, err := formatter.Extension(opts.Format)
	if err != nil {
		return nil, newError(KindOutput, "format", err)
	}
	data, err := formatter.Format(doc, opts.Format)
	if err != nil {
		return nil, newError(KindOutput, "format", err)
	}
	path, err := p.Writer.Write(page.URL(), data, ext)
	if err != nil {
		return nil, newError(KindOutput, "write", err)
	}

	if opts.Open && p.Opener != nil {
		if err := p.Opener(path); err != nil {
			p.Log.Warn("failed to open viewer", zap.String("path", path), zap.Error(err))
		}
	}

	return &Outcome{
		URL:      page.URL(),
		Title:    page.Title(),
		Strategy: s.Name,
		Reason:   res.Reason,
		Path:     path,
	}, nil
}

// Inspect resolves the active tab without converting it. Page handles in
// the result only answer URL and Title once Inspect returns.
func (p *Pipeline) Inspect(ctx context.Context, opts Options) (tab.Result, error) {
	session, err := p.connect(ctx, opts)
	if err != nil {
		return tab.Result{}, err
	}
	defer p.release(session)

	return p.resolve(ctx, session, opts)
}

func (p *Pipeline) connect(ctx context.Context, opts Options) (browser.Session, error) {
	cctx := ctx
	if opts.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, opts.ConnectTimeout)
		defer cancel()
	}

	session, err := p.Connector.Connect(cctx, opts.Endpoint)
	if err != nil {
		return nil, newError(KindConnection, "connect", err)
	}
	p.Log.Debug("connected", zap.String("endpoint", opts.Endpoint))
	return session, nil
}

func (p *Pipeline) release(session browser.Session) {
	if err := session.Close(); err != nil {
		p.Log.Warn("failed to close browser connection", zap.Error(err))
	}
}

// resolve always returns a Result carrying the score cards, including on a
// no candidate error.
func (p *Pipeline) resolve(ctx context.Context, session browser.Session, opts Options) (tab.Result, error) {
	contexts, err := session.Contexts(ctx)
	if err != nil {
		return tab.Result{}, newError(KindConnection, "list pages", err)
	}

	pages := browser.AllPages(contexts)
	p.Log.Debug("listed pages", zap.Int("contexts", len(contexts)), zap.Int("pages", len(pages)))
	if len(pages) == 0 {
		return tab.Result{Reason: tab.ReasonNone}, newError(KindNoContent, "list pages", errors.New("browser has no open pages"))
	}

	res := p.resolver.Resolve(ctx, pages, p.windowTitles(ctx, opts))
	if res.Page == nil {
		return res, newError(KindNoContent, "resolve", errors.New("no candidate tab"))
	}
	return res, nil
}

// windowTitles returns nil when the probe is off or has nothing to say.
func (p *Pipeline) windowTitles(ctx context.Context, opts Options) []string {
	if !opts.WindowTitles || p.Probe == nil {
		return nil
	}
	titles, ok := p.Probe.Titles(ctx)
	if !ok {
		p.Log.Debug("no window titles available")
		return nil
	}
	p.Log.Debug("window titles", zap.Strings("titles", titles))
	return titles
}

func (p *Pipeline) pick(url, name string) (strategy.Strategy, error) {
	if name == "" {
		return strategy.Select(url), nil
	}
	s, ok := strategy.Lookup(name)
	if !ok {
		return strategy.Strategy{}, fmt.Errorf("unknown strategy %q (available: %v)", name, strategy.Names())
	}
	return s, nil
}

func (p *Pipeline) extract(ctx context.Context, source string, cfg extractor.Config, timeout time.Duration) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	res := p.Extractor.Extract(ctx, source, cfg)
	if !res.Success {
		msg := res.ErrorMessage
		if msg == "" {
			msg = "engine reported failure without a message"
		}
		return "", newError(KindExtraction, "extract", errors.New(msg))
	}
	p.Log.Debug("extracted", zap.Duration("elapsed", time.Since(start)), zap.Int("bytes", len(res.Markdown)))
	return res.Markdown, nil
}
