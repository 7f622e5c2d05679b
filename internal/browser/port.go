package browser

import (
	"context"
	"strings"
)

// Visibility states reported by document.visibilityState
const (
	VisibilityVisible   = "visible"
	VisibilityHidden    = "hidden"
	VisibilityPrerender = "prerender"
	VisibilityUnknown   = "unknown"
)

// Signals is what a page reports about itself being on screen.
type Signals struct {
	Visibility string
	HasFocus   bool
}

// Page is a read-only view of one tab.
type Page interface {
	URL() string
	Title() string
	// Signals queries visibility and focus inside the page.
	Signals(ctx context.Context) (Signals, error)
	// HTML returns the rendered markup of the page.
	HTML(ctx context.Context) (string, error)
}

// Context is one browser profile or window group with its tabs in open order.
type Context struct {
	ID    string
	Pages []Page
}

// Session is an open connection to one browser. Pages obtained from it are
// invalid after Close.
type Session interface {
	Contexts(ctx context.Context) ([]Context, error)
	// Close releases the connection without terminating the browser.
	Close() error
}

// Connector opens sessions against a remote debugging endpoint.
type Connector interface {
	Connect(ctx context.Context, endpoint string) (Session, error)
}

// AllPages flattens the pages of every context, keeping context order.
func AllPages(contexts []Context) []Page {
	var pages []Page
	for _, c := range contexts {
		pages = append(pages, c.Pages...)
	}
	return pages
}

// IsDevTools reports whether url is a devtools pseudo page.
func IsDevTools(url string) bool {
	return strings.HasPrefix(url, "devtools://")
}

// IsBlank reports whether url is the empty tab page.
func IsBlank(url string) bool {
	return url == "about:blank"
}
