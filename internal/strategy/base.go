package strategy

import (
	"html"
	"regexp"

	"tab2md/internal/extractor"
)

// DefaultMinWordCount is the word threshold for a content block.
const DefaultMinWordCount = 5

// DefaultExcludedTags are removed before conversion by every strategy.
var DefaultExcludedTags = []string{
	"nav",
	"footer",
	"aside",
	"script",
	"style",
	"iframe",
	"form",
	"noscript",
	"svg",
}

var (
	headOpen = regexp.MustCompile(`(?i)<head(\s[^>]*)?>`)
	htmlOpen = regexp.MustCompile(`(?i)<html(\s[^>]*)?>`)
)

// InjectBase makes url the first child of the document head, synthesizing a
// head when there is none.
func InjectBase(rawHTML, url string) string {
	base := `<base href="` + html.EscapeString(url) + `">`

	if loc := headOpen.FindStringIndex(rawHTML); loc != nil {
		return rawHTML[:loc[1]] + base + rawHTML[loc[1]:]
	}
	if loc := htmlOpen.FindStringIndex(rawHTML); loc != nil {
		return rawHTML[:loc[1]] + "<head>" + base + "</head>" + rawHTML[loc[1]:]
	}
	return "<html><head>" + base + "</head>" + rawHTML
}

func defaultConfig() extractor.Config {
	tags := make([]string, len(DefaultExcludedTags))
	copy(tags, DefaultExcludedTags)
	return extractor.Config{MinWordCount: DefaultMinWordCount, ExcludedTags: tags}
}
