package strategy

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"net/url"
	"strings"
	"text/template"

	"tab2md/internal/extractor"
)

// Geekbang column articles are written in a Slate editor that emits flat
// div markup for code blocks and lists.
const (
	GeekbangHost        = "time.geekbang.org"
	GeekbangArticlePath = "/column/article/"

	GeekbangMinWordCount    = 1
	GeekbangContentSelector = `div[class*="articleContent"]`
)

// ListRepair tunes the implicit list repair of the Geekbang page script.
type ListRepair struct {
	TriggerPhrases []string `json:"triggerPhrases"`
	MaxLineLength  int      `json:"maxLineLength"` // longer lines are prose
	MaxListItems   int      `json:"maxListItems"`  // per triggered run
	Bullet         string   `json:"bullet"`
}

// GeekbangListRepair holds the tuning used by the Geekbang strategy.
var GeekbangListRepair = ListRepair{
	TriggerPhrases: []string{"如下：", "如下:", "以下几点", "包括：", "包括:", "主要有", "分别是"},
	MaxLineLength:  80,
	MaxListItems:   6,
	Bullet:         "•",
}

// GeekbangLanguageAttr carries the language of an editor code block.
var GeekbangLanguageAttr = "data-code-language"

//go:embed geekbang.js
var geekbangJS string

var geekbangTmpl = template.Must(template.New("geekbang.js").Funcs(template.FuncMap{
	"json": func(v any) (string, error) {
		b, err := json.Marshal(v)
		return string(b), err
	},
}).Parse(geekbangJS))

type scriptParams struct {
	LanguageAttr string
	ListRepair   ListRepair
}

// Geekbang handles time.geekbang.org column articles.
var Geekbang = Strategy{
	Name:      "geekbang",
	match:     matchGeekbang,
	configure: geekbangConfig,
}

func matchGeekbang(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Hostname(), GeekbangHost) && strings.HasPrefix(u.Path, GeekbangArticlePath)
}

func geekbangConfig() (extractor.Config, error) {
	script, err := GeekbangScript(GeekbangLanguageAttr, GeekbangListRepair)
	if err != nil {
		return extractor.Config{}, err
	}
	cfg := defaultConfig()
	cfg.MinWordCount = GeekbangMinWordCount
	cfg.ContentSelector = GeekbangContentSelector
	cfg.PageScript = script
	return cfg, nil
}

// GeekbangScript renders the page-side normalization function.
func GeekbangScript(languageAttr string, repair ListRepair) (string, error) {
	var buf bytes.Buffer
	if err := geekbangTmpl.Execute(&buf, scriptParams{LanguageAttr: languageAttr, ListRepair: repair}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
