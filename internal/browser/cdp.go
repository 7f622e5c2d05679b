package browser

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"tab2md/internal/logger"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/cdp"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

const signalsJS = `() => ({
	visibilityState: document.visibilityState,
	hasFocus: document.hasFocus()
})`

const outerHTMLJS = `() => document.documentElement ? document.documentElement.outerHTML : ''`

// DefaultCaptureTimeout bounds the outerHTML read when the connector sets none.
const DefaultCaptureTimeout = 30 * time.Second

// CDPConnector attaches to an already running browser over the Chrome
// DevTools Protocol.
type CDPConnector struct {
	EvalTimeout    time.Duration
	CaptureTimeout time.Duration
	Log            *zap.Logger
}

// Connect resolves the websocket address behind endpoint (host:port) and
// opens a connection that Close drops without closing the browser.
func (c *CDPConnector) Connect(ctx context.Context, endpoint string) (Session, error) {
	log := logger.OrNop(c.Log)

	wsURL, err := resolveURL(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to reach %s: %w", endpoint, err)
	}
	log.Debug("resolved debugger websocket", zap.String("ws", wsURL))

	ws := &cdp.WebSocket{}
	if err := ws.Connect(ctx, wsURL, nil); err != nil {
		return nil, fmt.Errorf("failed to open websocket %s: %w", wsURL, err)
	}

	s, err := c.newSession(ws, log)
	if err != nil {
		closeQuietly(ws)
		return nil, fmt.Errorf("failed to connect to %s: %w", wsURL, err)
	}
	return s, nil
}

// newSession drives ws with a rod client. The default device stays off so
// attaching to a tab never resizes it or overrides its user agent.
func (c *CDPConnector) newSession(ws cdp.WebSocketable, log *zap.Logger) (*cdpSession, error) {
	b := rod.New().NoDefaultDevice().Client(cdp.New().Start(ws))
	if err := b.Connect(); err != nil {
		return nil, err
	}

	capture := c.CaptureTimeout
	if capture <= 0 {
		capture = DefaultCaptureTimeout
	}
	return &cdpSession{
		browser:        b,
		ws:             ws,
		evalTimeout:    c.EvalTimeout,
		captureTimeout: capture,
		log:            log,
	}, nil
}

// resolveURL runs launcher.ResolveURL, which has no context of its own.
// It issues a plain http.Get without a timeout, so on a cancelled ctx the
// goroutine is abandoned and lives until that request returns. Connect is
// called once per run, which keeps the leak to a single goroutine.
func resolveURL(ctx context.Context, endpoint string) (string, error) {
	type result struct {
		url string
		err error
	}
	done := make(chan result, 1)
	go func() {
		u, err := launcher.ResolveURL(endpoint)
		done <- result{u, err}
	}()

	select {
	case r := <-done:
		return r.url, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func closeQuietly(v any) {
	if c, ok := v.(io.Closer); ok {
		_ = c.Close()
	}
}

type cdpSession struct {
	browser        *rod.Browser
	ws             cdp.WebSocketable
	evalTimeout    time.Duration
	captureTimeout time.Duration
	log            *zap.Logger
}

// Contexts lists page targets grouped by browser context in first-seen order.
// Pages are attached lazily, so listing never touches an unresponsive tab.
func (s *cdpSession) Contexts(ctx context.Context) ([]Context, error) {
	res, err := proto.TargetGetTargets{}.Call(s.browser.Context(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to list targets: %w", err)
	}

	s.log.Debug("listed targets", zap.Int("targets", len(res.TargetInfos)))

	var contexts []Context
	index := map[string]int{}
	for _, info := range res.TargetInfos {
		if info.Type != proto.TargetTargetInfoTypePage {
			continue
		}
		id := string(info.BrowserContextID)
		i, ok := index[id]
		if !ok {
			i = len(contexts)
			index[id] = i
			contexts = append(contexts, Context{ID: id})
		}
		contexts[i].Pages = append(contexts[i].Pages, &cdpPage{session: s, info: info})
	}
	return contexts, nil
}

func (s *cdpSession) Close() error {
	closeQuietly(s.ws)
	return nil
}

type cdpPage struct {
	session *cdpSession
	info    *proto.TargetTargetInfo
	page    *rod.Page
}

func (p *cdpPage) URL() string   { return p.info.URL }
func (p *cdpPage) Title() string { return p.info.Title }

func (p *cdpPage) attach(ctx context.Context) (*rod.Page, error) {
	if p.page == nil {
		page, err := p.session.browser.Context(ctx).PageFromTarget(p.info.TargetID)
		if err != nil {
			return nil, fmt.Errorf("failed to attach to tab %s: %w", p.info.TargetID, err)
		}
		p.page = page
	}
	return p.page.Context(ctx), nil
}

func (p *cdpPage) Signals(ctx context.Context) (Signals, error) {
	if p.session.evalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.session.evalTimeout)
		defer cancel()
	}

	page, err := p.attach(ctx)
	if err != nil {
		return Signals{}, err
	}

	res, err := page.Eval(signalsJS)
	if err != nil {
		return Signals{}, fmt.Errorf("failed to query page state: %w", err)
	}

	sig := Signals{
		Visibility: res.Value.Get("visibilityState").Str(),
		HasFocus:   res.Value.Get("hasFocus").Bool(),
	}
	if sig.Visibility == "" {
		sig.Visibility = VisibilityUnknown
	}
	return sig, nil
}

func (p *cdpPage) HTML(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.session.captureTimeout)
	defer cancel()

	page, err := p.attach(ctx)
	if err != nil {
		return "", err
	}

	res, err := page.Eval(outerHTMLJS)
	if err != nil {
		return "", fmt.Errorf("failed to get full HTML: %w", err)
	}

	html := res.Value.Str()
	if !strings.Contains(html, "<!DOCTYPE") {
		html = "<!DOCTYPE html>\n" + html
	}
	return html, nil
}
