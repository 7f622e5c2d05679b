// Package tab picks the one browser tab the user is looking at.
//
// Each candidate is scored from what the page reports about itself:
//
//	+3  document.hasFocus()
//	+2  visibilityState == "visible"
//	+1  visibilityState == "prerender"
//	-1  about:blank
//
// A page whose title appears in an OS window title outranks any score, since
// focus and visibility go stale when the browser window is not the focused one.
// Without a qualifying candidate the first non-devtools page is used.
package tab

import (
	"context"
	"strings"

	"tab2md/internal/browser"
	"tab2md/internal/logger"

	"go.uber.org/zap"
)

// Score weights
const (
	ScoreFocus     = 3
	ScoreVisible   = 2
	ScorePrerender = 1
	ScoreBlank     = -1
)

// Reason tells how a Result was chosen.
type Reason string

const (
	ReasonTitleMatch Reason = "window-title"
	ReasonScore      Reason = "score"
	ReasonFallback   Reason = "fallback"
	ReasonNone       Reason = "none"
)

// Result is the outcome of one resolution. Page is nil when there was no
// candidate at all.
type Result struct {
	Page   browser.Page
	Card   *ScoreCard
	Reason Reason
	Cards  []ScoreCard
}

// Resolver scores candidate tabs.
type Resolver struct {
	log *zap.Logger
}

// NewResolver creates a Resolver.
func NewResolver(log *zap.Logger) *Resolver {
	log = logger.OrNop(log)
	return &Resolver{log: log}
}

// Resolve chooses the active page among pages. windowTitles are the OS
// reported browser window titles; nil means no such signal. Pages are
// queried one at a time in order, so ties and the fallback always go to the
// earliest page.
func (r *Resolver) Resolve(ctx context.Context, pages []browser.Page, windowTitles []string) Result {
	res := Result{Reason: ReasonNone}

	best, matched, fallback := -1, -1, -1
	for i, page := range pages {
		if browser.IsDevTools(page.URL()) {
			continue
		}
		if fallback < 0 {
			fallback = len(res.Cards)
		}

		card := r.inspect(ctx, i, page, windowTitles)
		res.Cards = append(res.Cards, card)
		n := len(res.Cards) - 1

		if card.Qualifies() && (best < 0 || card.Score > res.Cards[best].Score) {
			best = n
		}
		if card.TitleMatch && (matched < 0 || card.Score > res.Cards[matched].Score) {
			matched = n
		}
	}

	pick := func(n int, reason Reason) Result {
		res.Page = res.Cards[n].Page
		res.Card = &res.Cards[n]
		res.Reason = reason
		return res
	}

	switch {
	case matched >= 0:
		res = pick(matched, ReasonTitleMatch)
	case best >= 0:
		res = pick(best, ReasonScore)
	case fallback >= 0:
		res = pick(fallback, ReasonFallback)
	default:
		r.log.Debug("no candidate tab", zap.Int("pages", len(pages)))
		return res
	}

	r.log.Debug("resolved active tab",
		zap.String("url", res.Page.URL()),
		zap.String("reason", string(res.Reason)),
		zap.Int("score", res.Card.Score),
	)
	return res
}

func (r *Resolver) inspect(ctx context.Context, index int, page browser.Page, windowTitles []string) ScoreCard {
	card := ScoreCard{Index: index, Page: page}

	sig, err := page.Signals(ctx)
	if err != nil {
		// A tab mid-navigation or frozen stays a candidate with no signal.
		r.log.Debug("page state unavailable", zap.String("url", page.URL()), zap.Error(err))
		card.Err = err
		sig = browser.Signals{Visibility: browser.VisibilityUnknown}
	}
	card.Signals = sig
	card.Score = Score(page.URL(), sig)
	card.TitleMatch = TitleMatches(page.Title(), windowTitles)
	return card
}

// Score computes the integer score of a page.
func Score(url string, sig browser.Signals) int {
	score := 0
	if sig.HasFocus {
		score += ScoreFocus
	}
	switch sig.Visibility {
	case browser.VisibilityVisible:
		score += ScoreVisible
	case browser.VisibilityPrerender:
		score += ScorePrerender
	}
	if browser.IsBlank(url) {
		score += ScoreBlank
	}
	return score
}

// TitleMatches reports whether title is a case-insensitive substring of any
// window title. An empty title never matches.
func TitleMatches(title string, windowTitles []string) bool {
	title = strings.ToLower(strings.TrimSpace(title))
	if title == "" {
		return false
	}
	for _, w := range windowTitles {
		if strings.Contains(strings.ToLower(w), title) {
			return true
		}
	}
	return false
}
