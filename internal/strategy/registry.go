package strategy

import "strings"

// registry is tried in order; Basic must stay last.
var registry = []Strategy{Geekbang, Basic}

// Select returns the first strategy matching url. It always returns one.
func Select(url string) Strategy {
	for _, s := range registry {
		if s.Match(url) {
			return s
		}
	}
	return Basic
}

// All lists the registered strategies in priority order.
func All() []Strategy {
	out := make([]Strategy, len(registry))
	copy(out, registry)
	return out
}

// Lookup finds a registered strategy by name, ignoring case.
func Lookup(name string) (Strategy, bool) {
	for _, s := range registry {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return Strategy{}, false
}

// Names returns the registered names, for flag help.
func Names() []string {
	names := make([]string, 0, len(registry))
	for _, s := range registry {
		names = append(names, s.Name)
	}
	return names
}
