package strategy

import "tab2md/internal/extractor"

// Basic is the catch-all strategy.
var Basic = Strategy{
	Name:      "basic",
	match:     func(string) bool { return true },
	configure: func() (extractor.Config, error) { return defaultConfig(), nil },
}
