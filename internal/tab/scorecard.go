package tab

import (
	"fmt"

	"tab2md/internal/browser"
)

// ScoreCard is the per candidate record built during one resolution.
type ScoreCard struct {
	Index      int // position in the input page sequence
	Page       browser.Page
	Signals    browser.Signals
	Score      int
	TitleMatch bool
	Err        error // page state query failure, recovered
}

// Qualifies reports whether the page itself claims to be on screen.
// Prerender alone is not enough.
func (c ScoreCard) Qualifies() bool {
	return c.Signals.HasFocus || c.Signals.Visibility == browser.VisibilityVisible
}

// String renders a one line diagnostic.
func (c ScoreCard) String() string {
	s := fmt.Sprintf("#%d score=%d visibility=%s focus=%t", c.Index, c.Score, c.Signals.Visibility, c.Signals.HasFocus)
	if c.TitleMatch {
		s += " title-match"
	}
	if c.Err != nil {
		s += fmt.Sprintf(" error=%q", c.Err.Error())
	}
	return s
}
