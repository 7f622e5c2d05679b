package extractor

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"tab2md/internal/logger"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// ErrEmptyContent is returned when nothing is left to convert.
var ErrEmptyContent = errors.New("no content left after cleanup")

var multiNewline = regexp.MustCompile(`\n{3,}`)

// Leaf text blocks subject to the word count threshold.
const textBlocks = "p, div, section, article, blockquote, dd, dt, figcaption"

// Elements that make a block structural: a block holding any of these is not
// a leaf and is never dropped.
const structural = textBlocks + ", pre, code, table, ul, ol, li, h1, h2, h3, h4, h5, h6, img, picture, video, audio, figure"

// Containers whose text is kept whatever its length.
const protected = "pre, code, table, li, h1, h2, h3, h4, h5, h6"

// Converter cleans HTML according to a Config and renders it as Markdown.
type Converter struct {
	log *zap.Logger
}

// NewConverter creates a Converter.
func NewConverter(log *zap.Logger) *Converter {
	log = logger.OrNop(log)
	return &Converter{log: log}
}

// Convert applies cfg to html and returns the Markdown of what remains.
func (c *Converter) Convert(html string, cfg Config) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	base := baseURL(doc)
	root := c.contentRoot(doc, cfg.ContentSelector)

	for _, tag := range cfg.ExcludedTags {
		root.Find(tag).Remove()
	}
	if dropped := dropShortBlocks(root, cfg.MinWordCount); dropped > 0 {
		c.log.Debug("dropped short text blocks", zap.Int("count", dropped), zap.Int("min_words", cfg.MinWordCount))
	}
	if base != nil {
		resolveLinks(root, base)
	}

	var content strings.Builder
	var outerErr error
	root.Each(func(i int, s *goquery.Selection) {
		h, err := goquery.OuterHtml(s)
		if err != nil {
			outerErr = err
			return
		}
		if i > 0 {
			content.WriteString("\n")
		}
		content.WriteString(h)
	})
	if outerErr != nil {
		return "", fmt.Errorf("failed to serialize content: %w", outerErr)
	}

	converter := md.NewConverter("", true, &md.Options{
		CodeBlockStyle:   "fenced",
		BulletListMarker: "-",
	})
	converter.Use(plugin.GitHubFlavored())

	markdown, err := converter.ConvertString(content.String())
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to Markdown: %w", err)
	}

	markdown = strings.TrimSpace(multiNewline.ReplaceAllString(markdown, "\n\n"))
	if markdown == "" {
		return "", ErrEmptyContent
	}
	return markdown + "\n", nil
}

// contentRoot returns the outermost matches of selector, or body when the
// selector is empty or matches nothing.
func (c *Converter) contentRoot(doc *goquery.Document, selector string) *goquery.Selection {
	body := doc.Find("body")
	if selector == "" {
		return body
	}

	matches := doc.Find(selector)
	if matches.Length() == 0 {
		c.log.Warn("content selector matched nothing, using body", zap.String("selector", selector))
		return body
	}
	return matches.NotSelection(matches.Find(selector))
}

// dropShortBlocks removes leaf text blocks under root with fewer than min
// words and returns how many went.
func dropShortBlocks(root *goquery.Selection, min int) int {
	if min <= 0 {
		return 0
	}

	var short []*goquery.Selection
	root.Find(textBlocks).Each(func(_ int, s *goquery.Selection) {
		if s.Find(structural).Length() > 0 || s.Closest(protected).Length() > 0 {
			return
		}
		if CountWords(s.Text()) < min {
			short = append(short, s)
		}
	})
	for _, s := range short {
		s.Remove()
	}
	return len(short)
}

func baseURL(doc *goquery.Document) *url.URL {
	href, ok := doc.Find("base[href]").First().Attr("href")
	if !ok {
		return nil
	}
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil || !u.IsAbs() {
		return nil
	}
	return u
}

// resolveLinks rewrites relative href and src attributes against base.
func resolveLinks(root *goquery.Selection, base *url.URL) {
	rewrite := func(selector, attr string) {
		root.Find(selector).Each(func(_ int, s *goquery.Selection) {
			v, _ := s.Attr(attr)
			v = strings.TrimSpace(v)
			if v == "" || strings.HasPrefix(v, "#") {
				return
			}
			ref, err := url.Parse(v)
			if err != nil || ref.IsAbs() {
				return
			}
			s.SetAttr(attr, base.ResolveReference(ref).String())
		})
	}
	rewrite("a[href]", "href")
	rewrite("img[src]", "src")
}
