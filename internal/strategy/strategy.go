// Package strategy maps a tab URL to the site-specific normalization and
// extraction settings used to convert it.
package strategy

import (
	"fmt"

	"tab2md/internal/extractor"
)

// Strategy is a stateless normalization policy for a family of URLs.
type Strategy struct {
	Name string

	match     func(url string) bool
	configure func() (extractor.Config, error)
}

// Match reports whether s applies to url. It never panics.
func (s Strategy) Match(url string) bool {
	return s.match(url)
}

// Config returns a fresh extraction configuration.
func (s Strategy) Config() (extractor.Config, error) {
	return s.configure()
}

// Prepare injects a base reference for url into rawHTML and returns it with
// the extraction configuration. Equal inputs give equal outputs.
func (s Strategy) Prepare(url, rawHTML string) (string, extractor.Config, error) {
	cfg, err := s.configure()
	if err != nil {
		return "", extractor.Config{}, fmt.Errorf("strategy %s: %w", s.Name, err)
	}
	return InjectBase(rawHTML, url), cfg, nil
}
