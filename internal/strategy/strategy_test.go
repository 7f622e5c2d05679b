package strategy

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tab2md/internal/extractor"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelect(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://time.geekbang.org/column/article/12345", "geekbang"},
		{"https://TIME.geekbang.org/column/article/1?from=x", "geekbang"},
		{"http://time.geekbang.org:443/column/article/", "geekbang"},
		{"https://time.geekbang.org/column/intro/100", "basic"},
		{"https://time.geekbang.org/", "basic"},
		{"https://geekbang.org/column/article/1", "basic"},
		{"https://example.com/column/article/1", "basic"},
		{"about:blank", "basic"},
		{"", "basic"},
		{"::not a url", "basic"},
		{"http://[::1", "basic"},
		{"%zz", "basic"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Select(tt.url).Name, tt.url)
	}
}

func TestRegistryOrder(t *testing.T) {
	names := Names()
	require.NotEmpty(t, names)
	assert.Equal(t, "basic", names[len(names)-1])
	assert.Equal(t, names, func() []string {
		var out []string
		for _, s := range All() {
			out = append(out, s.Name)
		}
		return out
	}())

	s, ok := Lookup("GeekBang")
	require.True(t, ok)
	assert.Equal(t, "geekbang", s.Name)
	_, ok = Lookup("nope")
	assert.False(t, ok)
}

func TestInjectBase(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "head",
			in:   `<html><head><title>x</title></head><body></body></html>`,
			want: `<html><head><base href="https://a.example/p">` + `<title>x</title></head><body></body></html>`,
		},
		{
			name: "head with attributes",
			in:   `<HTML><HEAD lang="en"><meta charset="utf-8"></HEAD></HTML>`,
			want: `<HTML><HEAD lang="en"><base href="https://a.example/p"><meta charset="utf-8"></HEAD></HTML>`,
		},
		{
			name: "header is not head",
			in:   `<html><body><header>h</header></body></html>`,
			want: `<html><head><base href="https://a.example/p"></head><body><header>h</header></body></html>`,
		},
		{
			name: "no html",
			in:   `<p>hi</p>`,
			want: `<html><head><base href="https://a.example/p"></head><p>hi</p>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InjectBase(tt.in, "https://a.example/p"))
		})
	}
}

func TestInjectBaseEscapesURL(t *testing.T) {
	got := InjectBase("<head></head>", `https://a.example/?q="x"&y=1`)
	assert.Equal(t, `<head><base href="https://a.example/?q=&#34;x&#34;&amp;y=1"></head>`, got)
}

func TestPrepareIsIdempotent(t *testing.T) {
	raw := `<html><head></head><body><p>text</p></body></html>`
	for _, s := range All() {
		html1, cfg1, err := s.Prepare("https://time.geekbang.org/column/article/1", raw)
		require.NoError(t, err)
		html2, cfg2, err := s.Prepare("https://time.geekbang.org/column/article/1", raw)
		require.NoError(t, err)
		assert.Equal(t, html1, html2, s.Name)
		assert.Equal(t, cfg1, cfg2, s.Name)
	}
}

func TestConfigIsFresh(t *testing.T) {
	cfg, err := Basic.Config()
	require.NoError(t, err)
	cfg.ExcludedTags[0] = "p"

	again, err := Basic.Config()
	require.NoError(t, err)
	assert.Equal(t, "nav", again.ExcludedTags[0])
	assert.Equal(t, "nav", DefaultExcludedTags[0])
}

func TestBasicConfig(t *testing.T) {
	cfg, err := Basic.Config()
	require.NoError(t, err)
	assert.Equal(t, DefaultMinWordCount, cfg.MinWordCount)
	assert.ElementsMatch(t, DefaultExcludedTags, cfg.ExcludedTags)
	assert.Empty(t, cfg.ContentSelector)
	assert.Empty(t, cfg.PageScript)
}

func TestGeekbangConfig(t *testing.T) {
	cfg, err := Geekbang.Config()
	require.NoError(t, err)
	assert.Equal(t, GeekbangMinWordCount, cfg.MinWordCount)
	assert.Less(t, cfg.MinWordCount, DefaultMinWordCount)
	assert.Equal(t, GeekbangContentSelector, cfg.ContentSelector)
	assert.ElementsMatch(t, DefaultExcludedTags, cfg.ExcludedTags)
	assert.NotEmpty(t, cfg.PageScript)
}

func TestGeekbangScriptRendersParameters(t *testing.T) {
	script, err := GeekbangScript("data-lang", ListRepair{
		TriggerPhrases: []string{"as follows:", `"quoted"`},
		MaxLineLength:  42,
		MaxListItems:   3,
		Bullet:         "*",
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(script, "() => {"))
	assert.NotContains(t, script, "{{")
	assert.Contains(t, script, `const languageAttr = "data-lang";`)
	assert.Contains(t, script, `"triggerPhrases":["as follows:","\"quoted\""]`)
	assert.Contains(t, script, `"maxLineLength":42`)
	assert.Contains(t, script, `"maxListItems":3`)
	assert.Contains(t, script, `"bullet":"*"`)
}

const geekbangFixture = `<html><head><title>Article</title></head><body>
<div class="Index_header">Header navigation text that is long enough to keep</div>
<div class="ArticleContent_articleContent__x">
<h2>背景</h2>
<p>本文的主要内容如下：</p>
<p>第一点</p>
<p>• 第二点</p>
<p>第三点</p>
<h2>代码</h2>
<p>结束语</p>
<div data-slate-type="pre" data-code-language="go">
<div data-slate-type="code-line">fmt.Println(1)</div>
<div data-slate-type="code-line">return</div>
</div>
<p>这一段说明包括：</p>
<p>这一行非常长这一行非常长这一行非常长这一行非常长这一行非常长这一行非常长这一行非常长这一行非常长这一行非常长这一行非常长这一行非常长这一行非常长这一行非常长这一行非常长这一行非常长</p>
<p>之后</p>
</div>
</body></html>`

func TestGeekbangScriptInBrowser(t *testing.T) {
	if testing.Short() {
		t.Skip("launches a browser")
	}
	bin, ok := launcher.LookPath()
	if !ok {
		t.Skip("no browser installed")
	}

	prepared, cfg, err := Geekbang.Prepare("https://time.geekbang.org/column/article/1", geekbangFixture)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "snapshot.html")
	require.NoError(t, os.WriteFile(path, []byte(prepared), 0644))
	source := (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()

	res := extractor.NewEngine(bin, nil).Extract(context.Background(), source, cfg)
	require.True(t, res.Success, res.ErrorMessage)
	md := res.Markdown

	assert.NotContains(t, md, "Header navigation")
	assert.Contains(t, md, "```go\nfmt.Println(1)\nreturn\n```")
	assert.Contains(t, md, "• 第一点")
	assert.Contains(t, md, "• 第二点")
	assert.NotContains(t, md, "• • 第二点")
	assert.Contains(t, md, "• 第三点")
	assert.NotContains(t, md, "• 结束语")
	assert.NotContains(t, md, "• 之后")
	assert.NotContains(t, md, "• 这一行")
}
